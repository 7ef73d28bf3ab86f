package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend keeps records as JSON lines in a single append-only file.
// The file is replayed once on open; reads are served from memory.
type FileBackend struct {
	path     string
	pageSize int

	mu      sync.RWMutex
	records []Record
	keys    map[string]struct{}
}

func NewFileBackend(path string, pageSize int) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init log file: %w", err)
	}
	_ = f.Close()

	b := &FileBackend{path: path, pageSize: pageSize, keys: make(map[string]struct{})}
	recs, err := b.load()
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		k := keyOf(r)
		if _, ok := b.keys[k]; ok {
			continue
		}
		b.keys[k] = struct{}{}
		b.records = append(b.records, r)
	}
	return b, nil
}

func (b *FileBackend) Put(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	k := keyOf(rec)
	if _, ok := b.keys[k]; ok {
		return fmt.Errorf("%w: %s/%s", ErrDuplicate, rec.SessionID, rec.SortKey)
	}

	f, err := os.OpenFile(b.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("encode append: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync append: %w", err)
	}
	b.keys[k] = struct{}{}
	b.records = append(b.records, rec)
	return nil
}

func (b *FileBackend) Query(ctx context.Context, q Query, token string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	b.mu.RLock()
	snapshot := b.records[:len(b.records):len(b.records)]
	b.mu.RUnlock()
	return pageOf(snapshot, q, token, b.pageSize)
}

func (b *FileBackend) Close() error { return nil }

// load reads every record. Lines that fail to decode are skipped.
func (b *FileBackend) load() ([]Record, error) {
	f, err := os.Open(b.path)
	if err != nil {
		return nil, fmt.Errorf("open read: %w", err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 10*1024*1024)
	var recs []Record
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		recs = append(recs, r)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return recs, nil
}
