package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/optionset"
	"github.com/MrEthical07/optionset/binding"
	"github.com/MrEthical07/optionset/metrics/export/prometheus"
	"github.com/MrEthical07/optionset/store"
	"github.com/MrEthical07/optionset/token"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var (
	adminPermission = optionset.Define("AdminPermission", "view", "edit", "delete", "share", "export", "audit")
	role            = optionset.Define("Role", "admin", "manager", "member", "guest")
)

func main() {
	var (
		records     = flag.Int("records", 10000, "number of records to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per update and token phase")
		matchOps    = flag.Int("match-ops", 200, "matching queries to run; each scans every record")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "os", "record key prefix")
		batch       = flag.Int("batch", 256, "records fetched per match pipeline")
		showMetrics = flag.Bool("metrics", false, "print store metrics in Prometheus text format")
	)
	flag.Parse()

	if *records <= 0 || *concurrency <= 0 || *ops <= 0 || *matchOps <= 0 {
		fmt.Fprintln(os.Stderr, "records, concurrency, ops, and match-ops must be > 0")
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

	cfg := store.DefaultConfig()
	cfg.Prefix = *prefix
	cfg.MatchBatchSize = *batch
	s, err := store.New(client, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store config: %v\n", err)
		os.Exit(2)
	}

	schema := binding.NewSchema[*store.Record](s)
	perms, err := store.Attach(schema, adminPermission, binding.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "attach %s: %v\n", adminPermission.TypeName(), err)
		os.Exit(1)
	}
	roles, err := store.Attach(schema, role, binding.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "attach %s: %v\n", role.TypeName(), err)
		os.Exit(1)
	}

	ids := make([]string, *records)
	fmt.Printf("seeding %d records...\n", *records)
	startSeed := time.Now()
	r := rand.New(rand.NewSource(1))
	for i := range ids {
		rec, err := s.Create(ctx, map[string]uint64{
			perms.Names().Column: r.Uint64() & adminPermission.FullMask(),
			roles.Names().Column: r.Uint64() & role.FullMask(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create failed: %v\n", err)
			os.Exit(1)
		}
		ids[i] = rec.ID
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	matchStats := runPhase(*matchOps, *concurrency, 7919, func(r *rand.Rand, _ int) error {
		p, err := schema.Matching(map[string][]string{
			perms.Names().Plural: {pick(r, adminPermission)},
			roles.Names().Plural: {pick(r, role)},
		})
		if err != nil {
			return err
		}
		_, err = s.Match(ctx, p)
		return err
	})

	updateStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand, _ int) error {
		name := pick(r, adminPermission)
		toggle := adminPermission.Add
		if r.Intn(2) == 0 {
			toggle = adminPermission.Remove
		}
		_, err := s.Update(ctx, ids[r.Intn(len(ids))], perms.Names().Column, func(mask uint64) (uint64, error) {
			return toggle(name, mask)
		})
		return err
	})

	tokens, err := token.NewManager(token.Config{
		TTL:           time.Minute,
		SigningMethod: token.MethodHS256,
		PrivateKey:    []byte("optionset-loadtest-secret"),
		Issuer:        "optionset-loadtest",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "token config: %v\n", err)
		os.Exit(2)
	}
	tokenStats := runPhase(*ops, *concurrency, 104729, func(r *rand.Rand, _ int) error {
		p, err := schema.Scope(perms.Names().Plural, pick(r, adminPermission))
		if err != nil {
			return err
		}
		tok, err := tokens.Issue("u", map[string]uint64{perms.Names().Column: r.Uint64() & adminPermission.FullMask()})
		if err != nil {
			return err
		}
		claims, err := tokens.Parse(tok)
		if err != nil {
			return err
		}
		claims.Matches(p)
		return nil
	})

	fmt.Println("---- results ----")
	printStats("match", matchStats)
	printStats("update", updateStats)
	printStats("token", tokenStats)

	if *showMetrics {
		fmt.Println("---- metrics ----")
		fmt.Print(prometheus.NewPrometheusExporter(s).Render())
	}
}

func pick(r *rand.Rand, def *optionset.Definition) string {
	names := def.AllNames()
	return names[r.Intn(len(names))]
}

func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand, i int) error) phaseStats {
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
				err := op(r, i)
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
