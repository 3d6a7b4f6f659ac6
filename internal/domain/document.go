package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"
)

// SupportedExtensions lists the upload types accepted by the loader.
var SupportedExtensions = []string{".pdf", ".txt", ".docx"}

// Document is an uploaded file. It is never mutated after upload.
type Document struct {
	Name       string
	Path       string
	Content    []byte
	Text       string
	SHA256     string
	UploadedAt time.Time
}

// NewDocument creates a Document and computes its content hash
func NewDocument(name, path string, content []byte, uploadedAt time.Time) *Document {
	return &Document{
		Name:       name,
		Path:       path,
		Content:    content,
		SHA256:     ContentHash(content),
		UploadedAt: uploadedAt,
	}
}

// Extension returns the lower-cased file extension including the dot.
func (d *Document) Extension() string {
	return strings.ToLower(filepath.Ext(d.Name))
}

// SameAs reports whether other is the same upload (name and content).
func (d *Document) SameAs(other *Document) bool {
	if d == nil || other == nil {
		return false
	}
	return d.Name == other.Name && d.SHA256 == other.SHA256
}

// ValidateFilename checks that name is a bare file name with a supported extension.
func ValidateFilename(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidFilename
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidFilename
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return nil
		}
	}
	return ErrUnsupportedFileType
}

// Chunk is a contiguous span of a document's text. Start and End are rune
// offsets into the text; consecutive chunks overlap by End(prev)-Start(next).
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// VectorIndexEntry pairs a chunk with its embedding.
type VectorIndexEntry struct {
	Chunk     Chunk
	Embedding []float32
}

// ContentHash returns the hex sha256 of b.
func ContentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
