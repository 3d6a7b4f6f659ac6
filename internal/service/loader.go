package service

import (
	"context"
	"time"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/cloo-solutions/docgpt/internal/storage"
)

// FileStore persists uploaded files.
type FileStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Location(key string) string
}

// Loader saves uploads unmodified under the profile's files directory.
type Loader struct {
	store    FileStore
	filesDir string
	now      func() time.Time
}

func NewLoader(store FileStore, filesDir string) *Loader {
	return &Loader{store: store, filesDir: filesDir, now: time.Now}
}

// Save validates name and writes data to <filesDir>/<name>, replacing any
// earlier upload with the same name.
func (l *Loader) Save(ctx context.Context, name string, data []byte) (*domain.Document, error) {
	if err := domain.ValidateFilename(name); err != nil {
		return nil, err
	}

	key := storage.Key(l.filesDir, name)
	if err := l.store.Put(ctx, key, data); err != nil {
		return nil, domain.Wrap(domain.ErrCacheWrite, err)
	}

	return domain.NewDocument(name, l.store.Location(key), data, l.now().UTC()), nil
}
