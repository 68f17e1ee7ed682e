package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("credential not found")

// CredentialData binds a chat user to the shortener API key they registered.
type CredentialData struct {
	UserID int64  `json:"user_id"`
	APIKey string `json:"api_key"`
}

type CredentialStorage interface {
	WriteCredential(ctx context.Context, cd *CredentialData) error
	// ReadCredential returns ErrNotFound when the user has no key.
	ReadCredential(ctx context.Context, userID int64) (*CredentialData, error)
	DeleteCredential(ctx context.Context, userID int64) error
}
