// Package refpath maps between servable blob refs ("/uploads/<day>/<name>")
// and storage keys ("<day>/<name>"). All blob store implementations share the
// same ref layout so records stay portable between backends.
package refpath

import (
	"fmt"
	"path"
	"strings"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

// Sanitize reduces an upload filename to a safe single path segment.
func Sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "image"
	}
	return out
}

// WithSuffix inserts a disambiguating suffix before the extension:
// "om.jpg" + "a1b2c3d4" -> "om-a1b2c3d4.jpg".
func WithSuffix(name, suffix string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + suffix + ext
}

// Ref builds the servable ref for a stored object.
func Ref(prefix string, day domain.DayKey, name string) domain.BlobRef {
	return domain.BlobRef(strings.TrimSuffix(prefix, "/") + "/" + day.String() + "/" + name)
}

// Key extracts the storage key ("<day>/<name>") from a ref, rejecting refs
// outside the public prefix or attempting path traversal.
func Key(prefix string, ref domain.BlobRef) (string, error) {
	p := strings.TrimSuffix(prefix, "/") + "/"
	s := string(ref)
	if !strings.HasPrefix(s, p) {
		return "", fmt.Errorf("blob ref %q outside public prefix %q", s, prefix)
	}
	key := strings.TrimPrefix(s, p)
	clean := path.Clean(key)
	if clean != key || key == "" || key == "." || strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("invalid blob ref %q", s)
	}
	return key, nil
}
