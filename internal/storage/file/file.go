package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/BorodachevAV/shortlinkbot/internal/storage"
)

// FileStorage keeps credentials as an append-only JSON lines log. A record
// with an empty api_key removes the user's key. The log is replayed on open
// and served from memory afterwards.
type FileStorage struct {
	mu          sync.RWMutex
	file        *os.File
	credentials map[int64]string
}

func NewFileStorage(filename string) (*FileStorage, error) {
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	f := &FileStorage{
		file:        file,
		credentials: make(map[int64]string),
	}
	if err := f.load(); err != nil {
		file.Close()
		return nil, err
	}
	return f, nil
}

func (f *FileStorage) load() error {
	scanner := bufio.NewScanner(f.file)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var cd storage.CredentialData
		if err := json.Unmarshal(scanner.Bytes(), &cd); err != nil {
			return fmt.Errorf("credentials file line %d: %w", line, err)
		}
		f.apply(&cd)
	}
	return scanner.Err()
}

func (f *FileStorage) apply(cd *storage.CredentialData) {
	if cd.APIKey == "" {
		delete(f.credentials, cd.UserID)
		return
	}
	f.credentials[cd.UserID] = cd.APIKey
}

func (f *FileStorage) writeRecord(cd *storage.CredentialData) error {
	data, err := json.Marshal(cd)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.file.Write(data); err != nil {
		return err
	}
	f.apply(cd)
	return nil
}

func (f *FileStorage) WriteCredential(_ context.Context, cd *storage.CredentialData) error {
	return f.writeRecord(cd)
}

func (f *FileStorage) ReadCredential(_ context.Context, userID int64) (*storage.CredentialData, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	key, ok := f.credentials[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.CredentialData{UserID: userID, APIKey: key}, nil
}

func (f *FileStorage) DeleteCredential(_ context.Context, userID int64) error {
	f.mu.RLock()
	_, ok := f.credentials[userID]
	f.mu.RUnlock()
	if !ok {
		return nil
	}
	return f.writeRecord(&storage.CredentialData{UserID: userID})
}

func (f *FileStorage) Close() error {
	return f.file.Close()
}
