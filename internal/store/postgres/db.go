package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Store keeps every record as one jsonb row in the tabwarden_kv table.
type Store struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	s := &Store{Pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	return nil
}

func (s *Store) Ready(ctx context.Context) error {
	var one int
	return s.Pool.QueryRow(ctx, "select 1").Scan(&one)
}

// Migrate creates the key-value table if it is missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string, v any) (bool, error) {
	var raw []byte
	err := s.Pool.QueryRow(ctx, "SELECT value FROM tabwarden_kv WHERE key = $1", key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO tabwarden_kv (key, value, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, string(raw))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.Pool.Exec(ctx, "DELETE FROM tabwarden_kv WHERE key = $1", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.Pool.Query(ctx,
		"SELECT key FROM tabwarden_kv WHERE starts_with(key, $1) ORDER BY key", prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	return keys, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, "DELETE FROM tabwarden_kv"); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}
