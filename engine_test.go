package ticketAuth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/ticketAuth/session"
	"github.com/MrEthical07/ticketAuth/validation"
	"github.com/samber/oops"
)

func TestLoginKnownUser(t *testing.T) {
	users := newFakeUsers()
	users.seed(t, testMobile, "123456", testSalt)
	engine, mr := newTestEngine(t, DefaultConfig(), users)

	ticket, err := engine.Login(context.Background(), loginCreds(testMobile, "123456"))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if len(ticket) != 32 {
		t.Fatalf("ticket length = %d", len(ticket))
	}
	if !mr.Exists("user:" + ticket) {
		t.Fatal("ticket not stored under user:<ticket>")
	}
	if ttl := mr.TTL("user:" + ticket); ttl != DefaultTicketTTL {
		t.Fatalf("ttl = %v, want %v", ttl, DefaultTicketTTL)
	}

	id, ok := engine.Resolve(context.Background(), ticket)
	if !ok {
		t.Fatal("expected ticket to resolve")
	}
	if id.UserID != testMobile {
		t.Fatalf("resolved user = %q", id.UserID)
	}
	if id.Ticket != ticket {
		t.Fatalf("resolved ticket = %q", id.Ticket)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUsers()
	users.seed(t, testMobile, "123456", testSalt)
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	ticket, err := engine.Login(context.Background(), loginCreds(testMobile, "000000"))
	if err != ErrInvalidCredentials {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if ticket != "" {
		t.Fatalf("ticket = %q, want empty", ticket)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	users := newFakeUsers()
	users.seed(t, testMobile, "123456", testSalt)
	engine, _ := newTestEngine(t, DefaultConfig(), users)
	ctx := context.Background()

	_, wrongPassword := engine.Login(ctx, loginCreds(testMobile, "000000"))
	_, unknownUser := engine.Login(ctx, loginCreds("13999999999", "123456"))

	if wrongPassword != unknownUser {
		t.Fatalf("outcomes differ: %v vs %v", wrongPassword, unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatal("error text differs between failure causes")
	}
	if got := engine.MetricsSnapshot().Counters[MetricLoginFailure]; got != 2 {
		t.Fatalf("login failure counter = %d, want 2", got)
	}
}

func TestLoginValidationRunsBeforeRepository(t *testing.T) {
	users := newFakeUsers()
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	cases := []struct {
		name  string
		creds Credentials
		field string
	}{
		{"empty mobile", Credentials{Password: strings.Repeat("a", 32)}, validation.FieldMobile},
		{"bad mobile", Credentials{Identifier: "12000000000", Password: strings.Repeat("a", 32)}, validation.FieldMobile},
		{"short password", Credentials{Identifier: testMobile, Password: "123456"}, validation.FieldPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Login(context.Background(), tc.creds)
			if !errors.Is(err, validation.ErrInvalid) {
				t.Fatalf("err = %v, want validation error", err)
			}
			var ferr *validation.FieldError
			if !errors.As(err, &ferr) || ferr.Field != tc.field {
				t.Fatalf("field error = %+v, want field %q", ferr, tc.field)
			}
		})
	}

	if n := users.lookups.Load(); n != 0 {
		t.Fatalf("repository consulted %d times", n)
	}
}

func TestTwoLoginsIssueDistinctLiveTickets(t *testing.T) {
	users := newFakeUsers()
	users.seed(t, testMobile, "123456", testSalt)
	engine, _ := newTestEngine(t, DefaultConfig(), users)
	ctx := context.Background()

	first, err := engine.Login(ctx, loginCreds(testMobile, "123456"))
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := engine.Login(ctx, loginCreds(testMobile, "123456"))
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tickets")
	}

	for _, ticket := range []string{first, second} {
		id, ok := engine.Resolve(ctx, ticket)
		if !ok || id.UserID != testMobile {
			t.Fatalf("ticket %s did not resolve", ticket)
		}
	}
}

func TestLoginRedisDownIsInfrastructure(t *testing.T) {
	users := newFakeUsers()
	users.seed(t, testMobile, "123456", testSalt)
	engine, mr := newTestEngine(t, DefaultConfig(), users)
	mr.Close()

	_, err := engine.Login(context.Background(), loginCreds(testMobile, "123456"))
	if !errors.Is(err, ErrInfrastructure) {
		t.Fatalf("err = %v, want ErrInfrastructure", err)
	}
	if !errors.Is(err, session.ErrRedisUnavailable) {
		t.Fatalf("err = %v, want wrapped ErrRedisUnavailable", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("infrastructure failure reported as bad credentials")
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		t.Fatal("expected oops error")
	}
	if oopsErr.Code() != CodeInfrastructure {
		t.Fatalf("code = %v", oopsErr.Code())
	}
	if got := engine.MetricsSnapshot().Counters[MetricLoginInfrastructure]; got != 1 {
		t.Fatalf("infrastructure counter = %d", got)
	}
}

func TestLoginRepositoryDownIsInfrastructure(t *testing.T) {
	users := newFakeUsers()
	users.findErr = errRepositoryDown
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	_, err := engine.Login(context.Background(), loginCreds(testMobile, "123456"))
	if !errors.Is(err, ErrInfrastructure) {
		t.Fatalf("err = %v, want ErrInfrastructure", err)
	}
	if !errors.Is(err, errRepositoryDown) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestLoginBrokenSaltIsNotBadCredentials(t *testing.T) {
	users := newFakeUsers()
	users.put(User{ID: testMobile, PasswordHash: strings.Repeat("0", 32), Salt: "abc"})
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	_, err := engine.Login(context.Background(), loginCreds(testMobile, "123456"))
	if !errors.Is(err, ErrInfrastructure) {
		t.Fatalf("err = %v, want ErrInfrastructure", err)
	}
	if errors.Is(err, ErrConfiguration) {
		t.Fatal("configuration errors are reserved for provisioning")
	}
}

func TestLoginThrottle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Throttle = ThrottleConfig{Enabled: true, MaxAttempts: 2, Window: time.Minute}

	users := newFakeUsers()
	users.seed(t, testMobile, "123456", testSalt)
	engine, mr := newTestEngine(t, cfg, users)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, loginCreds(testMobile, "000000")); err != ErrInvalidCredentials {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}

	lookups := users.lookups.Load()
	if _, err := engine.Login(ctx, loginCreds(testMobile, "123456")); !errors.Is(err, ErrLoginThrottled) {
		t.Fatalf("err = %v, want ErrLoginThrottled", err)
	}
	if users.lookups.Load() != lookups {
		t.Fatal("throttled login must not reach the repository")
	}

	mr.FastForward(time.Minute + time.Second)
	if _, err := engine.Login(ctx, loginCreds(testMobile, "123456")); err != nil {
		t.Fatalf("login after window: %v", err)
	}
	if got := engine.MetricsSnapshot().Counters[MetricLoginThrottled]; got != 1 {
		t.Fatalf("throttled counter = %d", got)
	}
}

func TestLoginSuccessResetsThrottle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Throttle = ThrottleConfig{Enabled: true, MaxAttempts: 2, Window: time.Minute}

	users := newFakeUsers()
	users.seed(t, testMobile, "123456", testSalt)
	engine, _ := newTestEngine(t, cfg, users)
	ctx := context.Background()

	if _, err := engine.Login(ctx, loginCreds(testMobile, "000000")); err != ErrInvalidCredentials {
		t.Fatalf("err = %v", err)
	}
	if _, err := engine.Login(ctx, loginCreds(testMobile, "123456")); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := engine.Login(ctx, loginCreds(testMobile, "000000")); err != ErrInvalidCredentials {
		t.Fatalf("err = %v", err)
	}
	if _, err := engine.Login(ctx, loginCreds(testMobile, "123456")); err != nil {
		t.Fatalf("counter was not reset: %v", err)
	}
}

func TestLoginHTTPSetsCookie(t *testing.T) {
	users := newFakeUsers()
	users.seed(t, testMobile, "123456", testSalt)
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login/doLogin", nil)

	ticket, err := engine.LoginHTTP(rec, req, loginCreds(testMobile, "123456"))
	if err != nil {
		t.Fatalf("LoginHTTP: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != "userTicket" || c.Value != ticket {
		t.Fatalf("cookie = %s=%s", c.Name, c.Value)
	}
	if c.MaxAge != int(DefaultTicketTTL/time.Second) {
		t.Fatalf("max-age = %d", c.MaxAge)
	}
	if c.Path != "/" || !c.HttpOnly {
		t.Fatalf("cookie attributes = %+v", c)
	}
}

func TestLoginHTTPFailureSetsNoCookie(t *testing.T) {
	users := newFakeUsers()
	users.seed(t, testMobile, "123456", testSalt)
	engine, _ := newTestEngine(t, DefaultConfig(), users)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login/doLogin", nil)

	if _, err := engine.LoginHTTP(rec, req, loginCreds(testMobile, "000000")); err != ErrInvalidCredentials {
		t.Fatalf("err = %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("failed login must not set a cookie")
	}
}

func TestNilEngine(t *testing.T) {
	var engine *Engine
	if _, err := engine.Login(context.Background(), loginCreds(testMobile, "123456")); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := engine.Resolve(context.Background(), "x"); ok {
		t.Fatal("nil engine resolved a ticket")
	}
}

type recordingUsers struct {
	*fakeUsers
	recorded []string
	err      error
}

func (r *recordingUsers) RecordLogin(_ context.Context, identifier string, _ time.Time) error {
	r.recorded = append(r.recorded, identifier)
	return r.err
}

func TestLoginRecordsActivity(t *testing.T) {
	users := &recordingUsers{fakeUsers: newFakeUsers(), err: errRepositoryDown}
	users.seed(t, testMobile, "123456", testSalt)

	_, rdb := newTestRedis(t)
	engine, err := New().WithRedis(rdb).WithUserRepository(users).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := engine.Login(context.Background(), loginCreds(testMobile, "123456")); err != nil {
		t.Fatalf("a failing recorder must not fail login: %v", err)
	}
	if _, err := engine.Login(context.Background(), loginCreds(testMobile, "000000")); err != ErrInvalidCredentials {
		t.Fatalf("err = %v", err)
	}
	if len(users.recorded) != 1 || users.recorded[0] != testMobile {
		t.Fatalf("recorded = %v", users.recorded)
	}
}
