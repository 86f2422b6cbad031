// Package cache keeps generated output on disk keyed by a digest of the
// inputs, so an unchanged tree skips the pipeline.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"cmdforge/internal/diag"
	"cmdforge/internal/source"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 1

// Digest is a sha256 over inputs and configuration.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Cache stores payloads under dir. Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Entry is one generated file.
type Entry struct {
	Path    string
	Package string
	Content []byte
}

// Payload is what a successful run leaves behind.
type Payload struct {
	Schema uint16
	// Inputs are the source paths in file set order; diagnostic spans
	// index into this list.
	Inputs      []string
	Files       []Entry
	Diagnostics []diag.Diagnostic
}

// Open returns the cache under $XDG_CACHE_HOME/app (or ~/.cache/app).
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDir(filepath.Join(base, app))
}

// OpenDir uses dir as the cache root.
func OpenDir(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir is the cache root.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) pathFor(key Digest) string {
	// подкаталог "units" упрощает ручную очистку
	return filepath.Join(c.dir, "units", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *Cache) Put(key Digest, payload *Payload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// после Rename файла уже нет
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	payload.Schema = schemaVersion
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry or one written by another schema
// version is a miss, not an error.
func (c *Cache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	var p Payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return false, err
	}
	if p.Schema != schemaVersion {
		return false, nil
	}
	*out = p
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// Key hashes every file of fs (path and content hash, in id order) and the
// configuration fingerprint parts.
func Key(fs *source.FileSet, fingerprint ...string) Digest {
	h := sha256.New()
	var n [4]byte
	write := func(s string) {
		binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
		_, _ = h.Write(n[:])
		_, _ = h.Write([]byte(s))
	}
	write("schema")
	binary.LittleEndian.PutUint32(n[:], uint32(schemaVersion))
	_, _ = h.Write(n[:])
	for i := 0; i < fs.Len(); i++ {
		f := fs.Get(source.FileID(i))
		write(f.Path)
		_, _ = h.Write(f.Hash[:])
	}
	for _, part := range fingerprint {
		write(part)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
