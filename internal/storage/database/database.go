package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/BorodachevAV/shortlinkbot/internal/storage"
)

type DBStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDBStorage(ctx context.Context, dsn string, logger *zap.Logger) (*DBStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &DBStorage{
		db:     db,
		logger: logger,
	}
	if err := s.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DBStorage) CreateSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start a transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil {
			if !errors.Is(err, sql.ErrTxDone) {
				s.logger.Error("failed to rollback the transaction", zap.Error(err))
			}
		}
	}()

	createSchema :=
		`CREATE TABLE IF NOT EXISTS user_credentials(
			user_id BIGINT PRIMARY KEY,
			api_key TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	if _, err := tx.ExecContext(ctx, createSchema); err != nil {
		return fmt.Errorf("failed to execute statement `%s`: %w", createSchema, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit the transaction: %w", err)
	}
	return nil
}

func (s *DBStorage) WriteCredential(ctx context.Context, cd *storage.CredentialData) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_credentials (user_id, api_key) VALUES($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET api_key = EXCLUDED.api_key, updated_at = now()`,
		cd.UserID, cd.APIKey)
	if err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

func (s *DBStorage) ReadCredential(ctx context.Context, userID int64) (*storage.CredentialData, error) {
	var apiKey string
	err := s.db.QueryRowContext(ctx,
		"SELECT api_key FROM user_credentials WHERE user_id = $1", userID).Scan(&apiKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}
	return &storage.CredentialData{
		UserID: userID,
		APIKey: apiKey,
	}, nil
}

func (s *DBStorage) DeleteCredential(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM user_credentials WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func (s *DBStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DBStorage) Close() error {
	return s.db.Close()
}
