package cache

import (
	"context"
	"os"

	"github.com/basekick-labs/ts-fetch/internal/series"
	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// FileCache stores encoded series.Series artifacts under Dir, sharded two
// hex/base64 characters deep so no single directory accumulates millions
// of entries. Set writes to a temp file in the shard directory and
// renames it into place, so a crash mid-write never leaves a truncated
// artifact where a reader expects a complete one.
type FileCache struct {
	Dir string
}

// New returns a FileCache rooted at dir, creating it if necessary.
func New(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, tserrors.NewIO("creating cache root", err)
	}
	return &FileCache{Dir: dir}, nil
}

// Have reports whether key has a cached artifact, without reading it.
func (c *FileCache) Have(key string) bool {
	_, file := dirAndFile(c.Dir, key)
	_, err := os.Stat(file)
	return err == nil
}

// Get reads and decodes the artifact for key, returning (nil, false, nil)
// on a cache miss and a KindIO/KindFormat error only on an actual
// filesystem or decode failure.
func (c *FileCache) Get(key string) (*series.Series, bool, error) {
	_, file := dirAndFile(c.Dir, key)
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, tserrors.NewIO("opening cache entry", err)
	}
	defer f.Close()

	s, err := series.Decode(f)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// GetAsync runs Get in a goroutine, delivering the result on the returned
// channel. The goroutine checks ctx once before the read begins; the read
// itself is not cancelable.
func (c *FileCache) GetAsync(ctx context.Context, key string) <-chan cacheResult {
	out := make(chan cacheResult, 1)
	go func() {
		if err := ctx.Err(); err != nil {
			out <- cacheResult{err: err}
			return
		}
		s, ok, err := c.Get(key)
		out <- cacheResult{series: s, ok: ok, err: err}
	}()
	return out
}

// GetAsyncThrow is GetAsync's impatient sibling: a cache miss is reported
// as an error instead of ok=false, mirroring get_async_throw.
func (c *FileCache) GetAsyncThrow(ctx context.Context, key string) <-chan cacheResult {
	out := make(chan cacheResult, 1)
	go func() {
		s, ok, err := c.Get(key)
		if err == nil && !ok {
			err = tserrors.NewIO("not found in file cache", nil)
		}
		out <- cacheResult{series: s, ok: ok, err: err}
	}()
	return out
}

type cacheResult struct {
	series *series.Series
	ok     bool
	err    error
}

// Set encodes s and writes it for key, replacing any existing entry.
func (c *FileCache) Set(key string, s *series.Series) error {
	dir, file := dirAndFile(c.Dir, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return tserrors.NewIO("creating cache shard dir", err)
	}

	buf, err := series.Encode(s)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return tserrors.NewIO("creating temp cache file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return tserrors.NewIO("writing temp cache file", err)
	}
	if err := tmp.Close(); err != nil {
		return tserrors.NewIO("closing temp cache file", err)
	}
	if err := os.Rename(tmpName, file); err != nil {
		return tserrors.NewIO("renaming cache file into place", err)
	}
	return nil
}
