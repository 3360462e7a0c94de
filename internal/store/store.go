package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"glucotrack/internal/model"
)

const (
	KeyReminders = "reminders"
	KeyLogs      = "logs"
)

// Store maps the two persisted collections onto JSON records in a KV.
// Missing or unreadable records load as defaults.
type Store struct {
	kv     KV
	logger *zap.Logger
}

func New(kv KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// Open picks a backend from the URL scheme: postgres, redis, memory, or
// else a sqlite file path (an optional sqlite:// prefix is stripped).
func Open(rawURL string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		kv  KV
		err error
	)
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		kv, err = NewPostgres(rawURL)
	case strings.HasPrefix(rawURL, "redis://"), strings.HasPrefix(rawURL, "rediss://"):
		kv, err = NewRedis(rawURL, logger)
	case rawURL == "memory://":
		kv = NewMemory()
	case rawURL == "":
		return nil, errors.New("store url is empty")
	default:
		kv, err = NewSQLite(strings.TrimPrefix(rawURL, "sqlite://"))
	}
	if err != nil {
		return nil, err
	}
	return New(kv, logger), nil
}

func (s *Store) LoadReminders(ctx context.Context) ([]model.Reminder, error) {
	var out []model.Reminder
	ok, err := s.load(ctx, KeyReminders, &out)
	if err != nil {
		return nil, err
	}
	if !ok || out == nil {
		return model.DefaultReminders(), nil
	}
	return out, nil
}

func (s *Store) SaveReminders(ctx context.Context, reminders []model.Reminder) error {
	return s.save(ctx, KeyReminders, reminders)
}

func (s *Store) LoadLogs(ctx context.Context) ([]model.GlucoseLog, error) {
	var out []model.GlucoseLog
	ok, err := s.load(ctx, KeyLogs, &out)
	if err != nil {
		return nil, err
	}
	if !ok || out == nil {
		return []model.GlucoseLog{}, nil
	}
	return out, nil
}

func (s *Store) SaveLogs(ctx context.Context, logs []model.GlucoseLog) error {
	return s.save(ctx, KeyLogs, logs)
}

func (s *Store) Close() error {
	return s.kv.Close()
}

// load reports false when the record is absent or corrupt.
func (s *Store) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("corrupt record, using defaults", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
