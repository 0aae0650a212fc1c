package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/okian/skinlens/internal/domain/model"
)

const (
	keySize   = 32
	nonceSize = 24
	// hkdfInfo scopes the derived key to session files.
	hkdfInfo = "skinlens-session-v1"
)

// Persister stores a session between process runs.
type Persister interface {
	Load(ctx context.Context) (model.Session, error)
	Save(ctx context.Context, s model.Session) error
	Clear(ctx context.Context) error
}

// NopPersister keeps nothing.
type NopPersister struct{}

func (NopPersister) Load(context.Context) (model.Session, error) { return model.Session{}, nil }
func (NopPersister) Save(context.Context, model.Session) error   { return nil }
func (NopPersister) Clear(context.Context) error                 { return nil }

// FilePersister writes the session as JSON sealed with NaCl secretbox.
type FilePersister struct {
	path string
	key  [keySize]byte
}

// NewFilePersister derives the sealing key from secret with HKDF-SHA256.
func NewFilePersister(path, secret string) (*FilePersister, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrPersist)
	}
	if secret == "" {
		return nil, fmt.Errorf("%w: empty secret", ErrPersist)
	}
	p := &FilePersister{path: path}
	h := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(h, p.key[:]); err != nil {
		return nil, fmt.Errorf("%w: derive key: %w", ErrPersist, err)
	}
	return p, nil
}

// Load returns an empty session when the file does not exist.
func (p *FilePersister) Load(_ context.Context) (model.Session, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Session{}, nil
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if len(data) < nonceSize+secretbox.Overhead {
		return model.Session{}, ErrCorruptSession
	}

	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])
	plain, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &p.key)
	if !ok {
		return model.Session{}, ErrCorruptSession
	}

	var s model.Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return model.Session{}, fmt.Errorf("%w: %w", ErrCorruptSession, err)
	}
	return s, nil
}

// Save seals s and replaces the file atomically.
func (p *FilePersister) Save(_ context.Context, s model.Session) error {
	plain, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("%w: nonce: %w", ErrPersist, err)
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &p.key)

	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".session-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(sealed); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Clear removes the file. A missing file is not an error.
func (p *FilePersister) Clear(_ context.Context) error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
