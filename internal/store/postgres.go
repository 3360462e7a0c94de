package store

import (
	"context"
	"errors"
	"fmt"

	"glucotrack/internal/db"
)

// Postgres keeps records in the kv_records table through gorm.
type Postgres struct {
	records *db.Records
}

func NewPostgres(dsn string) (*Postgres, error) {
	gdb, err := db.Connect(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return &Postgres{records: &db.Records{DB: gdb}}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := p.records.Get(ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	return p.records.Put(ctx, key, value)
}

func (p *Postgres) Close() error {
	return p.records.Close()
}
