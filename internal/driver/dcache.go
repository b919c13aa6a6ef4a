package driver

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"fern/internal/project"
	"fern/internal/types"
)

// Bump when the payload format changes; a mismatched schema reads as a
// miss, never as an error.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores converged per-routine analysis results keyed by a
// digest of the interchange content and the routine name. Safe for
// concurrent use.
type DiskCache struct {
	dir string
}

// diskPayload is the cached form of one routine's converged result.
// Masks are raw uint64 values; they are self-contained because primitive
// and array bits are fixed and named class bits are not cached (a mask
// holding class bits degrades to the universal mask).
type diskPayload struct {
	Schema uint16         `msgpack:"v"`
	Name   string         `msgpack:"n"`
	Masks  []uint64       `msgpack:"m"`
	Return uint64         `msgpack:"r"`
	Stored time.Time      `msgpack:"t"`
	Key    project.Digest `msgpack:"k"`
}

// OpenDiskCache initializes a cache at the standard user location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt uses an explicit directory. Tests and sandboxed runs
// point it at a temp dir.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// A "routines" subdirectory keeps the cache root listable.
	return filepath.Join(c.dir, "routines", hexKey+".mp")
}

// put writes one payload with a temp file and an atomic rename, so a
// concurrent reader never observes a torn entry.
func (c *DiskCache) put(key project.Digest, payload *diskPayload) error {
	if c == nil {
		return nil
	}
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// get reads one payload. A missing entry, a decode failure or a schema
// mismatch all report a miss.
func (c *DiskCache) get(key project.Digest, out *diskPayload) bool {
	if c == nil {
		return false
	}
	f, err := os.Open(c.pathFor(key))
	if err != nil {
		return false
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false
	}
	return out.Schema == diskCacheSchemaVersion && out.Key == key
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// cacheGet serves a routine result if one is stored and cacheable.
func (s *Session) cacheGet(key project.Digest) (*RoutineResult, bool) {
	if s.opts.Cache == nil {
		return nil, false
	}
	var p diskPayload
	if !s.opts.Cache.get(key, &p) {
		return nil, false
	}
	out := &RoutineResult{
		Name:   p.Name,
		Masks:  make([]types.TypeRefMask, len(p.Masks)),
		Return: types.TypeRefMask(p.Return),
	}
	for i, m := range p.Masks {
		out.Masks[i] = types.TypeRefMask(m)
	}
	return out, true
}

// cachePut stores a routine result. Masks holding named class bits are
// widened to the universal mask because class bit assignments are not
// stable across runs. Cache write failures are ignored; the cache is
// supplemental.
func (s *Session) cachePut(key project.Digest, r *RoutineResult) {
	if s.opts.Cache == nil {
		return
	}
	p := &diskPayload{
		Schema: diskCacheSchemaVersion,
		Name:   r.Name,
		Masks:  make([]uint64, len(r.Masks)),
		Return: uint64(widenClassBits(r.Flow.TypeContext(), r.Return)),
		Stored: time.Now(),
		Key:    key,
	}
	for i, m := range r.Masks {
		p.Masks[i] = uint64(widenClassBits(r.Flow.TypeContext(), m))
	}
	_ = s.opts.Cache.put(key, p)
}

// widenClassBits replaces any mask carrying a non-primitive bit with the
// universal mask, preserving the ref flag. Only the primitive bits have
// stable positions across contexts, so only those are safe to persist.
func widenClassBits(tc *types.Context, m types.TypeRefMask) types.TypeRefMask {
	stable := true
	for _, ref := range tc.Types(m) {
		if !ref.IsPrimitive() {
			stable = false
			break
		}
	}
	if stable && !m.IsAnyType() {
		return m
	}
	out := types.AnyType
	if m.IsRef() {
		out = out.WithRef()
	}
	return out
}
