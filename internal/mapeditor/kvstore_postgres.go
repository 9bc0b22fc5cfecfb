package mapeditor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campaign-server/internal/shared/database"
)

// PostgresKV stores saves in the map_saves table created by the migrations.
type PostgresKV struct {
	db database.Executor
}

func NewPostgresKV(db database.Executor) *PostgresKV {
	return &PostgresKV{db: db}
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM map_saves WHERE save_key = $1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read map save %s: %w", key, err)
	}
	return payload, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO map_saves (save_key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (save_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = NOW()`

	if _, err := p.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("failed to write map save %s: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM map_saves WHERE save_key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete map save %s: %w", key, err)
	}
	return nil
}
