// Package checkpoint persists copy progress so that an interrupted run can resume without duplicating issues.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Entry records how far the copy of one source issue got
type Entry struct {
	// Destination is the number of the issue created in the destination repository
	Destination    int       `json:"destination"`
	Closed         bool      `json:"closed,omitempty"`
	CommentsCopied int       `json:"comments_copied"`
	// LastCommentID is the ID of the last source comment copied. Resuming continues after it
	LastCommentID  int64     `json:"last_comment_id,omitempty"`
	Done           bool      `json:"done"`
	RunID          string    `json:"run_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store maps source issue numbers to copy progress
type Store interface {
	// Get returns the entry stored for the source issue, or nil if there is none
	Get(source int) (*Entry, error)
	// Set stores the entry for the source issue
	Set(source int, entry Entry) error
}

// NopStore remembers nothing. Every run starts from scratch
type NopStore struct{}

func (NopStore) Get(source int) (*Entry, error) { return nil, nil }

func (NopStore) Set(source int, entry Entry) error { return nil }

type document struct {
	Source      string           `json:"source"`
	Destination string           `json:"destination"`
	Issues      map[string]Entry `json:"issues"`
}

// FileStore implements Store with a JSON file. The whole document is rewritten on every Set
type FileStore struct {
	path string
	doc  document
}

// OpenFileStore loads the checkpoint at path, or starts an empty one if the file does not exist. A checkpoint written
// for a different pair of repositories is rejected
func OpenFileStore(path, source, destination string) (*FileStore, error) {
	fs := &FileStore{
		path: path,
		doc: document{
			Source:      source,
			Destination: destination,
			Issues:      map[string]Entry{},
		},
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", path, err)
	}
	if doc.Source != source || doc.Destination != destination {
		return nil, fmt.Errorf("checkpoint %s was written for copying %s to %s, not %s to %s",
			path, doc.Source, doc.Destination, source, destination)
	}
	if doc.Issues == nil {
		doc.Issues = map[string]Entry{}
	}
	fs.doc = doc

	return fs, nil
}

func (fs *FileStore) Get(source int) (*Entry, error) {
	entry, ok := fs.doc.Issues[strconv.Itoa(source)]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (fs *FileStore) Set(source int, entry Entry) error {
	entry.UpdatedAt = time.Now().UTC()
	fs.doc.Issues[strconv.Itoa(source)] = entry
	return fs.write()
}

// Len returns the number of source issues with a stored entry
func (fs *FileStore) Len() int {
	return len(fs.doc.Issues)
}

// write replaces the checkpoint file atomically
func (fs *FileStore) write() error {
	b, err := json.MarshalIndent(fs.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), filepath.Base(fs.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}
