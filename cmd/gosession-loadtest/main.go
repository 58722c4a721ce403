package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/signer"
	"github.com/MrEthical07/goSession/store/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// memJar is a single-cookie jar for driving the engine without HTTP.
type memJar struct {
	mu    sync.Mutex
	value string
}

func (j *memJar) Get(string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.value, j.value != ""
}

func (j *memJar) Set(_, value string) error {
	j.mu.Lock()
	j.value = value
	j.mu.Unlock()
	return nil
}

func (j *memJar) Clear(string) {
	j.mu.Lock()
	j.value = ""
	j.mu.Unlock()
}

func main() {
	var (
		subjects    = flag.Int("subjects", 1000, "number of subjects to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "resolve operations")
		logins      = flag.Int("logins", 2000, "login operations")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gsload", "user store key prefix")
	)
	flag.Parse()

	if *subjects <= 0 || *concurrency <= 0 || *ops <= 0 || *logins <= 0 {
		fmt.Fprintln(os.Stderr, "subjects, concurrency, ops, and logins must be > 0")
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

	cfg := goSession.DefaultConfig()
	cfg.Keys.PasswordKey = signer.Key(strings.Repeat("p", 32))
	cfg.Keys.TokenKey = signer.Key(strings.Repeat("t", 32))
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := goSession.New().
		WithConfig(cfg).
		WithUserStore(redisstore.New(client, *prefix)).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d subjects...\n", *subjects)
	startSeed := time.Now()
	jars := make([]*memJar, *subjects)
	for i := 0; i < *subjects; i++ {
		identity := identityFor(i)
		if _, err := engine.CreateUser(ctx, goSession.CreateUserRequest{Identity: identity, Password: passwordFor(i)}); err != nil && !errors.Is(err, goSession.ErrAccountExists) {
			fmt.Fprintf(os.Stderr, "create failed: %v\n", err)
			os.Exit(1)
		}
		jars[i] = &memJar{}
		if _, err := engine.Login(ctx, jars[i], identity, passwordFor(i)); err != nil {
			fmt.Fprintf(os.Stderr, "seed login failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(*logins, *concurrency, len(jars), func(idx int) error {
		_, err := engine.Login(ctx, &memJar{}, identityFor(idx), passwordFor(idx))
		return err
	})
	resolveStats := runPhase(*ops, *concurrency, len(jars), func(idx int) error {
		_, err := engine.Resolve(ctx, jars[idx]).Subject()
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("resolve", resolveStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("engine: resolve_success=%d renewed=%d login_success=%d\n",
		snap.Counters[goSession.MetricResolveSuccess],
		snap.Counters[goSession.MetricSessionRenewed],
		snap.Counters[goSession.MetricLoginSuccess],
	)
}

func runPhase(ops, concurrency, population int, op func(idx int) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(population)
				t0 := time.Now()
				err := op(idx)
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

func identityFor(i int) string { return fmt.Sprintf("user-%d@load.test", i) }

func passwordFor(i int) string { return fmt.Sprintf("pw-%d-%d", i, i*7919%1000) }
