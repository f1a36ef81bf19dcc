package ticketAuth

import (
	"context"
	"testing"
)

func newBenchmarkEngine(b *testing.B) *Engine {
	b.Helper()

	users := newFakeUsers()
	users.seed(b, testMobile, "123456", testSalt)

	cfg := DefaultConfig()
	cfg.Metrics.Enabled = false
	engine, _ := newTestEngine(b, cfg, users)
	return engine
}

func BenchmarkLogin(b *testing.B) {
	engine := newBenchmarkEngine(b)
	creds := loginCreds(testMobile, "123456")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(context.Background(), creds); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

func BenchmarkResolve(b *testing.B) {
	engine := newBenchmarkEngine(b)

	ticket, err := engine.Login(context.Background(), loginCreds(testMobile, "123456"))
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := engine.Resolve(context.Background(), ticket); !ok {
			b.Fatal("resolve missed")
		}
	}
}

func BenchmarkResolveAnonymous(b *testing.B) {
	engine := newBenchmarkEngine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Resolve(context.Background(), "")
	}
}
