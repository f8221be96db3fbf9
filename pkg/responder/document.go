package responder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Document is the journal a Responder reads from and appends replies to.
type Document interface {
	// Name identifies the document in logs and notices.
	Name() string
	Read(ctx context.Context) (string, error)
	Append(ctx context.Context, text string) error
}

// FileDocument is a document stored in a file on disk.
type FileDocument struct {
	path string
}

// NewFileDocument returns a Document for the file at path.
func NewFileDocument(path string) *FileDocument {
	return &FileDocument{path: path}
}

// Name implements Document.
func (d *FileDocument) Name() string { return d.path }

// Read implements Document.
func (d *FileDocument) Read(_ context.Context) (string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return "", fmt.Errorf("could not read document: %w", err)
	}
	return string(data), nil
}

// Append implements Document. Writes go through O_APPEND so concurrent
// appends never overwrite each other.
func (d *FileDocument) Append(_ context.Context, text string) error {
	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("could not open document: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("could not append to document: %w", err)
	}
	return nil
}

// MemoryDocument is a document held in memory. It records appended text
// separately so callers that own the real document can apply it themselves.
type MemoryDocument struct {
	name string

	mu       sync.Mutex
	text     string
	appended strings.Builder
}

// NewMemoryDocument returns a MemoryDocument holding text.
func NewMemoryDocument(name, text string) *MemoryDocument {
	return &MemoryDocument{name: name, text: text}
}

// Name implements Document.
func (d *MemoryDocument) Name() string { return d.name }

// Read implements Document.
func (d *MemoryDocument) Read(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text, nil
}

// Append implements Document.
func (d *MemoryDocument) Append(_ context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text += text
	d.appended.WriteString(text)
	return nil
}

// Appended returns everything appended so far.
func (d *MemoryDocument) Appended() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.appended.String()
}
