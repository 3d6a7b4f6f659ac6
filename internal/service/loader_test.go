package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Save(t *testing.T) {
	store := newMemStore()
	loader := NewLoader(store, "files")
	loader.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("X", 3600)) }

	doc, err := loader.Save(context.Background(), "report.pdf", []byte("%PDF-1.4 bytes"))

	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Name)
	assert.Equal(t, "mem://files/report.pdf", doc.Path)
	assert.Equal(t, []byte("%PDF-1.4 bytes"), store.objects["files/report.pdf"])
	assert.Equal(t, domain.ContentHash([]byte("%PDF-1.4 bytes")), doc.SHA256)
	assert.Equal(t, time.UTC, doc.UploadedAt.Location())
}

func TestLoader_SaveOverwrites(t *testing.T) {
	store := newMemStore()
	loader := NewLoader(store, "private_files")
	ctx := context.Background()

	_, err := loader.Save(ctx, "a.txt", []byte("v1"))
	require.NoError(t, err)
	_, err = loader.Save(ctx, "a.txt", []byte("v2"))
	require.NoError(t, err)

	assert.Equal(t, []byte("v2"), store.objects["private_files/a.txt"])
}

func TestLoader_SaveRejectsInvalidNames(t *testing.T) {
	store := newMemStore()
	loader := NewLoader(store, "files")

	for _, name := range []string{"slides.pptx", "../etc/passwd.txt", "dir/a.txt", ""} {
		_, err := loader.Save(context.Background(), name, []byte("x"))
		assert.True(t, domain.IsCode(err, domain.ErrCodeValidation), name)
	}
	assert.Empty(t, store.objects)
}

func TestLoader_SaveWriteFailure(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("read-only file system")

	_, err := NewLoader(store, "files").Save(context.Background(), "a.txt", []byte("x"))

	assert.True(t, domain.IsCode(err, domain.ErrCodeIO))
}
