package media

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache materializes remote media references into local files, keyed by a
// hash of the source reference so repeated references across scenes are not
// re-fetched. Cached content is immutable per key, so the existence check
// before write is enough.
type Cache struct {
	dir    string
	client *http.Client
}

// NewCache creates a download cache rooted at dir
func NewCache(dir string) *Cache {
	return &Cache{
		dir:    dir,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Materialize returns a local path for ref. Local refs pass through
// unchanged. Download failures fall back to the original reference so the
// caller's own fallback ladder decides what to do with it.
func (c *Cache) Materialize(ctx context.Context, ref string) string {
	if !IsURL(ref) {
		return ref
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		log.Printf("[media] ⚠️ cache dir: %v", err)
		return ref
	}
	dest := filepath.Join(c.dir, fmt.Sprintf("%x.mp4", md5.Sum([]byte(ref))))
	if _, err := os.Stat(dest); err == nil {
		return dest
	}
	if err := c.download(ctx, ref, dest); err != nil {
		log.Printf("[media] ⚠️ download %s failed: %v — using original reference", ref, err)
		return ref
	}
	return dest
}

func (c *Cache) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// IsURL reports whether ref points at remote content.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
