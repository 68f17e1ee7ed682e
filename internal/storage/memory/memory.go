package memory

import (
	"context"
	"sync"

	"github.com/BorodachevAV/shortlinkbot/internal/storage"
)

type MapStorage struct {
	credentials *sync.Map
}

func NewMapStorage() *MapStorage {
	return &MapStorage{credentials: &sync.Map{}}
}

func (m MapStorage) WriteCredential(_ context.Context, cd *storage.CredentialData) error {
	m.credentials.Store(cd.UserID, cd.APIKey)
	return nil
}

func (m MapStorage) ReadCredential(_ context.Context, userID int64) (*storage.CredentialData, error) {
	val, ok := m.credentials.Load(userID)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.CredentialData{
		UserID: userID,
		APIKey: val.(string),
	}, nil
}

func (m MapStorage) DeleteCredential(_ context.Context, userID int64) error {
	m.credentials.Delete(userID)
	return nil
}
