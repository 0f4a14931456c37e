package predictor

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrModelNotFound = errors.New("model not found")
	ErrCorruptModel  = errors.New("model artifact corrupt")
)

// ModelStore persists the trained model between processes.
type ModelStore interface {
	Load(ctx context.Context) (*Model, error)
	Save(ctx context.Context, m *Model) error
}

const artifactFormat = "query-advisor/model/v1"

// envelope wraps the gob-encoded model with a checksum so a truncated or
// hand-edited file is rejected instead of yielding garbage coefficients.
type envelope struct {
	Format   string
	Payload  []byte
	Checksum [blake2b.Size256]byte
}

// FileStore keeps the model in a single file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	var env envelope
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrCorruptModel, err)
	}
	if env.Format != artifactFormat {
		return nil, fmt.Errorf("%w: unexpected format %q", ErrCorruptModel, env.Format)
	}
	if blake2b.Sum256(env.Payload) != env.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptModel)
	}
	var m Model
	if err := gob.NewDecoder(bytes.NewReader(env.Payload)).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decode model: %v", ErrCorruptModel, err)
	}
	return &m, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers see either the old or the new model.
func (s *FileStore) Save(ctx context.Context, m *Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(m); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	env := envelope{
		Format:   artifactFormat,
		Payload:  payload.Bytes(),
		Checksum: blake2b.Sum256(payload.Bytes()),
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := gob.NewEncoder(tmp).Encode(&env); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace model: %w", err)
	}
	return nil
}

// MemoryStore keeps the model in process memory; tests inject it to avoid
// touching the filesystem.
type MemoryStore struct {
	mu    sync.Mutex
	model *Model
	saves int
}

func NewMemoryStore(m *Model) *MemoryStore {
	return &MemoryStore{model: m}
}

func (s *MemoryStore) Load(ctx context.Context) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return nil, ErrModelNotFound
	}
	cp := *s.model
	return &cp, nil
}

func (s *MemoryStore) Save(ctx context.Context, m *Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.model = &cp
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
