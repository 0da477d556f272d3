package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/MrEthical07/optionset"
	"github.com/MrEthical07/optionset/binding"
	"github.com/MrEthical07/optionset/metrics"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrRecordNotFound is returned when the record does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRecordCorrupt is returned when a stored mask cannot be decoded.
	ErrRecordCorrupt = errors.New("record corrupt")
	// ErrRedisUnavailable wraps every Redis transport failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrConflict is returned when an update keeps losing optimistic races.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrEmptyID is returned for operations on a record without an identifier.
	ErrEmptyID = errors.New("record id empty")
	// ErrReservedColumn is returned when a mask column collides with a field
	// the store keeps for itself.
	ErrReservedColumn = errors.New("reserved column name")
)

const (
	recordVersionField = "_v"
	recordVersionV1    = 1
)

// Store persists [Record] values in Redis hashes, one field per mask column,
// and evaluates matching predicates against them.
type Store struct {
	redis   redis.UniversalClient
	cfg     Config
	metrics *metrics.Metrics
}

// New creates a Store. A zero Config means [DefaultConfig]; otherwise zero
// Prefix, MaxRetries and MatchBatchSize take their default values and Metrics
// is used as given.
func New(client redis.UniversalClient, cfg Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil redis client", ErrInvalidConfig)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		redis:   client,
		cfg:     cfg,
		metrics: metrics.New(cfg.Metrics),
	}, nil
}

func (s *Store) key(id string) string {
	return s.cfg.Prefix + ":rec:" + id
}

func (s *Store) indexKey() string {
	return s.cfg.Prefix + ":ids"
}

// MetricsSnapshot returns the store's metric values.
func (s *Store) MetricsSnapshot() metrics.Snapshot {
	return s.metrics.Snapshot()
}

// Create stores a new record with a random identifier.
func (s *Store) Create(ctx context.Context, masks map[string]uint64) (*Record, error) {
	rec := &Record{ID: uuid.NewString(), Masks: make(map[string]uint64, len(masks))}
	for column, mask := range masks {
		rec.Masks[column] = mask
	}
	if err := s.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save replaces the stored record with rec.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return ErrEmptyID
	}

	key := s.key(rec.ID)
	fields := make([]interface{}, 0, 2+len(rec.Masks)*2)
	fields = append(fields, recordVersionField, recordVersionV1)
	for column, mask := range rec.Masks {
		if err := checkColumn(column); err != nil {
			return err
		}
		fields = append(fields, column, optionset.EncodeMask(mask))
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields...)
		pipe.SAdd(ctx, s.indexKey(), rec.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	s.metrics.Inc(metrics.RecordSaved)
	return nil
}

// Persist saves rec. It lets a Store act as the persister of a
// binding.Schema[*Record]. The stored record is replaced as a whole, so the
// last writer wins; binding.Attribute.Enable goes through UpdateMask instead.
func (s *Store) Persist(ctx context.Context, rec *Record) error {
	return s.Save(ctx, rec)
}

// UpdateMask applies fn to the stored mask under column via [Store.Update].
// A record that was never saved is created from rec with fn applied to its
// in-memory mask. rec itself is not modified.
func (s *Store) UpdateMask(ctx context.Context, rec *Record, column string, fn func(mask uint64) (uint64, error)) (uint64, error) {
	if rec == nil {
		return 0, ErrEmptyID
	}

	committed, err := s.Update(ctx, rec.ID, column, fn)
	if !errors.Is(err, ErrRecordNotFound) {
		return committed, err
	}

	next, err := fn(rec.Mask(column))
	if err != nil {
		return 0, err
	}
	fresh := &Record{ID: rec.ID, Masks: make(map[string]uint64, len(rec.Masks)+1)}
	for c, m := range rec.Masks {
		fresh.Masks[c] = m
	}
	fresh.Masks[column] = next
	if err := s.Save(ctx, fresh); err != nil {
		return 0, err
	}
	return next, nil
}

// Load reads the record stored under id.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	values, err := s.redis.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(values) == 0 {
		s.metrics.Inc(metrics.RecordNotFound)
		return nil, ErrRecordNotFound
	}

	rec := &Record{ID: id, Masks: make(map[string]uint64, len(values))}
	for field, raw := range values {
		if field == recordVersionField {
			continue
		}
		mask, err := optionset.DecodeMask([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %v", ErrRecordCorrupt, field, err)
		}
		rec.Masks[field] = mask
	}

	s.metrics.Inc(metrics.RecordLoaded)
	return rec, nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	s.metrics.Inc(metrics.RecordDeleted)
	return nil
}

// Update applies fn to the mask stored under column of record id inside a
// WATCH/MULTI transaction and returns the committed mask. A missing column
// reads as zero. Concurrent writers cause a retry; after MaxRetries lost
// races Update fails with ErrConflict. Errors returned by fn abort the update
// and are returned unchanged.
func (s *Store) Update(ctx context.Context, id, column string, fn func(mask uint64) (uint64, error)) (uint64, error) {
	if id == "" {
		return 0, ErrEmptyID
	}
	if err := checkColumn(column); err != nil {
		return 0, err
	}
	key := s.key(id)

	for i := 0; i < s.cfg.MaxRetries; i++ {
		var (
			committed uint64
			fnErr     error
		)

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if exists == 0 {
				return ErrRecordNotFound
			}

			var current uint64
			raw, err := tx.HGet(ctx, key, column).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				// column not written yet
			case err != nil:
				return err
			default:
				current, err = optionset.DecodeMask(raw)
				if err != nil {
					return fmt.Errorf("%w: column %s: %v", ErrRecordCorrupt, column, err)
				}
			}

			next, err := fn(current)
			if err != nil {
				fnErr = err
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, column, optionset.EncodeMask(next))
				return nil
			})
			if err != nil {
				return err
			}

			committed = next
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			s.metrics.Inc(metrics.MaskUpdateConflict)
			continue
		}
		if err != nil {
			switch {
			case fnErr != nil:
				return 0, fnErr
			case errors.Is(err, ErrRecordNotFound):
				s.metrics.Inc(metrics.RecordNotFound)
				return 0, err
			case errors.Is(err, ErrRecordCorrupt):
				return 0, err
			default:
				return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}

		s.metrics.Inc(metrics.MaskUpdated)
		return committed, nil
	}

	s.metrics.Inc(metrics.MaskUpdateAborted)
	return 0, ErrConflict
}

func checkColumn(column string) error {
	if column == recordVersionField {
		return fmt.Errorf("%w: %s", ErrReservedColumn, column)
	}
	return nil
}

// IDs returns every stored record identifier in lexical order.
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Match returns, in lexical order, the identifiers of every record whose
// masks satisfy p: (mask & clause) == clause for each clause. Missing columns
// read as zero. Records are fetched in pipelined batches of MatchBatchSize.
func (s *Store) Match(ctx context.Context, p binding.Predicate) ([]string, error) {
	if err := ctx.Err(); err != nil {
		s.metrics.Inc(metrics.MatchQueryRejected)
		return nil, err
	}

	start := time.Now()
	defer func() {
		s.metrics.Observe(metrics.MatchLatency, time.Since(start))
	}()
	s.metrics.Inc(metrics.MatchQuery)

	ids, err := s.IDs(ctx)
	if err != nil {
		return nil, err
	}

	columns := p.Columns()
	if len(columns) == 0 {
		return ids, nil
	}

	matched := make([]string, 0, len(ids))
	for lo := 0; lo < len(ids); lo += s.cfg.MatchBatchSize {
		hi := lo + s.cfg.MatchBatchSize
		if hi > len(ids) {
			hi = len(ids)
		}
		batch := ids[lo:hi]

		cmds := make([]*redis.SliceCmd, len(batch))
		_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, id := range batch {
				cmds[i] = pipe.HMGet(ctx, s.key(id), columns...)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		for i, cmd := range cmds {
			values := cmd.Val()
			masks := make(map[string]uint64, len(columns))
			for j, column := range columns {
				raw, ok := values[j].(string)
				if !ok {
					continue
				}
				mask, err := optionset.DecodeMask([]byte(raw))
				if err != nil {
					return nil, fmt.Errorf("%w: record %s column %s: %v", ErrRecordCorrupt, batch[i], column, err)
				}
				masks[column] = mask
			}
			if p.Eval(func(column string) uint64 { return masks[column] }) {
				matched = append(matched, batch[i])
			}
		}
	}

	return matched, nil
}
