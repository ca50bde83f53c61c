package archive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/vqz/internal/hash"
)

// ErrInvalidRef is returned when a string is not a well-formed reference.
var ErrInvalidRef = errors.New("archive: invalid reference")

const (
	containerDir = "containers/"
	containerExt = ".vqz"
	codebookDir  = "codebooks/"
	codebookExt  = ".vqcb"
)

// Ref identifies a stored container by the fingerprint of its bytes.
type Ref uint64

// RefOf returns the reference for container bytes.
func RefOf(data []byte) Ref {
	return Ref(hash.Fingerprint(data))
}

// ParseRef parses the 16-digit hexadecimal form produced by String.
func ParseRef(s string) (Ref, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	return Ref(v), nil
}

func (r Ref) String() string {
	return fmt.Sprintf("%016x", uint64(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref) UnmarshalText(text []byte) error {
	v, err := ParseRef(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Name returns the blob name the container is stored under.
func (r Ref) Name() string {
	return containerDir + r.String() + containerExt
}

func codebookName(id uint64) string {
	return fmt.Sprintf("%s%016x%s", codebookDir, id, codebookExt)
}

// parseName extracts the hex id from dir/<hex>ext.
func parseName(name, dir, ext string) (uint64, bool) {
	if !strings.HasPrefix(name, dir) || !strings.HasSuffix(name, ext) {
		return 0, false
	}
	r, err := ParseRef(strings.TrimSuffix(strings.TrimPrefix(name, dir), ext))
	if err != nil {
		return 0, false
	}
	return uint64(r), true
}
