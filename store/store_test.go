package store

import (
	"context"
	"errors"
	"math/bits"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/MrEthical07/optionset"
	"github.com/MrEthical07/optionset/binding"
	"github.com/MrEthical07/optionset/metrics"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	s, err := New(rdb, DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, mr
}

func adminPermission() *optionset.Definition {
	d := optionset.New("AdminPermission")
	d.MustDeclare("view", 1<<0)
	d.MustDeclare("edit", 1<<1)
	d.MustDeclare("delete", 1<<2)
	d.Finalize()
	return d
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for nil client, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"prefix with space", func(c *Config) { c.Prefix = "a b" }},
		{"prefix with hash tag", func(c *Config) { c.Prefix = "{os}" }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"huge batch", func(c *Config) { c.MatchBatchSize = 20000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSaveLoadDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Create(ctx, map[string]uint64{"admin_permissions_mask": 3, "roles_mask": 1 << 63})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected generated id")
	}

	loaded, err := s.Load(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.Masks, rec.Masks) {
		t.Fatalf("loaded %v, want %v", loaded.Masks, rec.Masks)
	}

	if err := s.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load(ctx, rec.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	ids, _ := s.IDs(ctx)
	if len(ids) != 0 {
		t.Fatalf("index still holds %v", ids)
	}
}

func TestSaveRecordWithoutMasks(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Create(ctx, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	loaded, err := s.Load(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Masks) != 0 {
		t.Fatalf("expected no masks, got %v", loaded.Masks)
	}
}

func TestLoadCorruptMask(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	rec, _ := s.Create(ctx, map[string]uint64{"roles_mask": 1})
	mr.HSet(s.key(rec.ID), "roles_mask", "xyz")

	if _, err := s.Load(ctx, rec.ID); !errors.Is(err, ErrRecordCorrupt) {
		t.Fatalf("expected ErrRecordCorrupt, got %v", err)
	}
}

func TestUpdateAppliesMaskAlgebra(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	perms := adminPermission()

	rec, _ := s.Create(ctx, map[string]uint64{"admin_permissions_mask": 1})

	got, err := s.Update(ctx, rec.ID, "admin_permissions_mask", func(m uint64) (uint64, error) {
		return perms.Add("delete", m)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got != 5 {
		t.Fatalf("committed %d, want 5", got)
	}

	got, err = s.Update(ctx, rec.ID, "roles_mask", func(m uint64) (uint64, error) {
		if m != 0 {
			t.Fatalf("missing column read as %d", m)
		}
		return 2, nil
	})
	if err != nil || got != 2 {
		t.Fatalf("Update on new column = %d, %v", got, err)
	}

	loaded, _ := s.Load(ctx, rec.ID)
	if loaded.Mask("admin_permissions_mask") != 5 || loaded.Mask("roles_mask") != 2 {
		t.Fatalf("loaded masks %v", loaded.Masks)
	}
}

func TestUpdateErrors(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	perms := adminPermission()

	if _, err := s.Update(ctx, "missing", "admin_permissions_mask", func(m uint64) (uint64, error) { return m, nil }); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	rec, _ := s.Create(ctx, map[string]uint64{"admin_permissions_mask": 3})
	_, err := s.Update(ctx, rec.ID, "admin_permissions_mask", func(m uint64) (uint64, error) {
		return perms.Add("share", m)
	})
	if !errors.Is(err, optionset.ErrUnknownMember) {
		t.Fatalf("expected ErrUnknownMember, got %v", err)
	}

	loaded, _ := s.Load(ctx, rec.ID)
	if loaded.Mask("admin_permissions_mask") != 3 {
		t.Fatalf("failed update changed mask to %d", loaded.Mask("admin_permissions_mask"))
	}
}

func TestUpdateConcurrentWritersKeepAllBits(t *testing.T) {
	s, err := New(newClient(t), Config{Prefix: "os", MaxRetries: 64})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	rec, _ := s.Create(ctx, map[string]uint64{"flags_mask": 0})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)
	for bit := 0; bit < 8; bit++ {
		wg.Add(1)
		go func(bit int) {
			defer wg.Done()
			_, err := s.Update(ctx, rec.ID, "flags_mask", func(m uint64) (uint64, error) {
				return m | 1<<bit, nil
			})
			switch {
			case err == nil:
				mu.Lock()
				committed++
				mu.Unlock()
			case !errors.Is(err, ErrConflict):
				t.Errorf("Update failed: %v", err)
			}
		}(bit)
	}
	wg.Wait()

	loaded, _ := s.Load(ctx, rec.ID)
	if got := bits.OnesCount64(loaded.Mask("flags_mask")); got != committed {
		t.Fatalf("stored %d bits, committed %d updates", got, committed)
	}
}

func newClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return rdb
}

func TestMatchWithSchema(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	schema := binding.NewSchema[*Record](s)
	perms, err := Attach(schema, adminPermission(), binding.Options{})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	var want []string
	for _, mask := range []uint64{3, 4, 6} {
		rec := &Record{ID: "u" + strconv.FormatUint(mask, 10)}
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		for _, name := range perms.Definition().Cast(mask) {
			if err := perms.Enable(ctx, rec, name); err != nil {
				t.Fatalf("Enable failed: %v", err)
			}
		}
		if mask&2 != 0 {
			want = append(want, rec.ID)
		}
	}
	sort.Strings(want)

	p, err := schema.Matching(map[string][]string{"admin_permissions": {"edit"}})
	if err != nil {
		t.Fatalf("Matching failed: %v", err)
	}
	got, err := s.Match(ctx, p)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Match = %v, want %v", got, want)
	}

	all, _ := s.Match(ctx, binding.Predicate{})
	if len(all) != 3 {
		t.Fatalf("empty predicate matched %v", all)
	}

	if _, err := schema.Matching(map[string][]string{"admin_permissions": {"nonexistent"}}); !errors.Is(err, optionset.ErrUnknownMember) {
		t.Fatalf("expected ErrUnknownMember, got %v", err)
	}
}

func TestMatchAcrossBatches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MatchBatchSize = 2
	s, err := New(newClient(t), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	var want []string
	for i := 0; i < 7; i++ {
		rec, err := s.Create(ctx, map[string]uint64{"roles_mask": uint64(i)})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if i&1 != 0 {
			want = append(want, rec.ID)
		}
	}
	sort.Strings(want)

	got, err := s.Match(ctx, binding.Predicate{Clauses: []binding.Clause{{Column: "roles_mask", Mask: 1}}})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Match = %v, want %v", got, want)
	}
}

func TestMatchRejectsCancelledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Match(ctx, binding.Predicate{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := s.MetricsSnapshot().Counters[metrics.MatchQueryRejected]; got != 1 {
		t.Fatalf("MatchQueryRejected = %d, want 1", got)
	}
}

func TestMetricsRecorded(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec, _ := s.Create(ctx, map[string]uint64{"roles_mask": 1})
	_, _ = s.Load(ctx, rec.ID)
	_, _ = s.Match(ctx, binding.Predicate{Clauses: []binding.Clause{{Column: "roles_mask", Mask: 1}}})

	snap := s.MetricsSnapshot()
	if snap.Counters[metrics.RecordSaved] != 1 || snap.Counters[metrics.RecordLoaded] != 1 || snap.Counters[metrics.MatchQuery] != 1 {
		t.Fatalf("unexpected counters %v", snap.Counters)
	}
	if len(snap.Histograms[metrics.MatchLatency]) != 8 {
		t.Fatalf("expected latency histogram, got %v", snap.Histograms)
	}
}

func TestEnableKeepsConcurrentlyCommittedBits(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	schema := binding.NewSchema[*Record](s)
	perms, err := Attach(schema, adminPermission(), binding.Options{})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	column := perms.Names().Column

	rec, _ := s.Create(ctx, map[string]uint64{column: 1})
	stale, err := s.Load(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := s.Update(ctx, rec.ID, column, func(m uint64) (uint64, error) { return m | 4, nil }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := perms.Enable(ctx, stale, "edit"); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if got := stale.Mask(column); got != 7 {
		t.Fatalf("in-memory mask = %d, want 7", got)
	}

	loaded, _ := s.Load(ctx, rec.ID)
	if got := loaded.Mask(column); got != 7 {
		t.Fatalf("stored mask after Update(delete) then Enable(edit) = %d, want 7", got)
	}
}

func TestEnableSavesNewRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	schema := binding.NewSchema[*Record](s)
	perms, _ := Attach(schema, adminPermission(), binding.Options{})
	roles, _ := Attach(schema, optionset.Define("Role", "admin", "member"), binding.Options{})

	rec := &Record{ID: "fresh"}
	if err := roles.Set(rec, "member"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := perms.Enable(ctx, rec, "view"); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}

	loaded, err := s.Load(ctx, "fresh")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Mask("admin_permissions_mask") != 1 || loaded.Mask("roles_mask") != 2 {
		t.Fatalf("loaded masks %v", loaded.Masks)
	}
}

func TestReservedColumnRejected(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	schema := binding.NewSchema[*Record](s)
	if _, err := Attach(schema, adminPermission(), binding.Options{Through: "_v"}); !errors.Is(err, ErrReservedColumn) {
		t.Fatalf("Attach: expected ErrReservedColumn, got %v", err)
	}
	if err := s.Save(ctx, &Record{ID: "r1", Masks: map[string]uint64{"_v": 3}}); !errors.Is(err, ErrReservedColumn) {
		t.Fatalf("Save: expected ErrReservedColumn, got %v", err)
	}

	rec, _ := s.Create(ctx, map[string]uint64{"roles_mask": 1})
	if _, err := s.Update(ctx, rec.ID, "_v", func(m uint64) (uint64, error) { return m, nil }); !errors.Is(err, ErrReservedColumn) {
		t.Fatalf("Update: expected ErrReservedColumn, got %v", err)
	}
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	s, err := New(newClient(t), Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !reflect.DeepEqual(s.cfg, DefaultConfig()) {
		t.Fatalf("cfg = %+v, want %+v", s.cfg, DefaultConfig())
	}

	if _, err := s.Create(context.Background(), map[string]uint64{"roles_mask": 1}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := s.MetricsSnapshot().Counters[metrics.RecordSaved]; got != 1 {
		t.Fatalf("RecordSaved = %d, want 1", got)
	}

	partial, err := New(newClient(t), Config{Prefix: "p"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if partial.cfg.Metrics.Enabled {
		t.Fatal("explicit config must keep metrics as given")
	}
	if partial.cfg.MaxRetries != DefaultConfig().MaxRetries {
		t.Fatalf("MaxRetries = %d", partial.cfg.MaxRetries)
	}
}
