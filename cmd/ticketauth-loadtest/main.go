// Command ticketauth-loadtest measures concurrent login and ticket resolution
// against real or in-process Redis.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	ticketAuth "github.com/MrEthical07/ticketAuth"
	"github.com/MrEthical07/ticketAuth/password"
	"github.com/MrEthical07/ticketAuth/repository/memory"
)

var errNotResolved = errors.New("ticket did not resolve")

const (
	firstMobile  = 13000000000
	seedPassword = "123456"
)

func main() {
	var (
		users       = flag.Int("users", 10000, "number of users to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (login + resolve)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "user", "ticket key prefix")
		sliding     = flag.Bool("sliding", true, "refresh ticket TTL on every resolve")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := ticketAuth.DefaultConfig()
	cfg.Ticket.RedisPrefix = *prefix
	cfg.Ticket.SlidingExpiration = *sliding

	repo := memory.NewUsers()
	engine, err := ticketAuth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserRepository(repo).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close(ctx)

	mobiles, err := seedUsers(ctx, engine, *users)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	formHash := password.MD5Chain{}.FormHash(seedPassword)
	tickets := make([]string, len(mobiles))
	var ticketsMu sync.Mutex

	loginStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		idx := r.Intn(len(mobiles))
		ticket, err := engine.Login(ctx, ticketAuth.Credentials{Identifier: mobiles[idx], Password: formHash})
		if err != nil {
			return err
		}
		// Last writer wins; every issued ticket stays valid.
		ticketsMu.Lock()
		tickets[idx] = ticket
		ticketsMu.Unlock()
		return nil
	})

	live := make([]string, 0, len(tickets))
	for _, t := range tickets {
		if t != "" {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		fmt.Fprintln(os.Stderr, "no tickets issued; skipping resolve phase")
		os.Exit(1)
	}

	resolveStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		if _, ok := engine.Resolve(ctx, live[r.Intn(len(live))]); !ok {
			return errNotResolved
		}
		return nil
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("resolve", resolveStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("engine: tickets_issued=%d resolve_hit=%d resolve_error=%d\n",
		snap.Counters[ticketAuth.MetricTicketIssued],
		snap.Counters[ticketAuth.MetricResolveHit],
		snap.Counters[ticketAuth.MetricResolveError],
	)
}

// seedUsers provisions n users sharing the seed password and the public salt,
// the same shape as the reference seed data.
func seedUsers(ctx context.Context, engine *ticketAuth.Engine, n int) ([]string, error) {
	fmt.Printf("seeding %d users...\n", n)
	start := time.Now()

	mobiles := make([]string, n)
	for i := 0; i < n; i++ {
		mobile := strconv.FormatInt(firstMobile+int64(i), 10)
		if _, err := engine.ProvisionUser(ctx, ticketAuth.NewUser{
			Identifier: mobile,
			Nickname:   "user" + strconv.Itoa(i),
			Password:   seedPassword,
			Salt:       password.PublicSalt,
		}); err != nil {
			return nil, err
		}
		mobiles[i] = mobile
	}

	fmt.Printf("seeded in %s\n", time.Since(start).Round(time.Millisecond))
	return mobiles, nil
}

func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
