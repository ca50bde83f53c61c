package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"

	"github.com/hupe1980/vqz/blobstore"
	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/resource"
)

var (
	// ErrNotFound is returned when a container reference does not exist.
	ErrNotFound = errors.New("archive: container not found")

	// ErrCodebookNotFound is returned when a codebook is not in the archive.
	ErrCodebookNotFound = errors.New("archive: codebook not found")

	// ErrCorrupt is returned when a stored object does not match its name.
	ErrCorrupt = errors.New("archive: stored object does not match its name")
)

// Archive stores containers and codebooks in a BlobStore.
// It is safe for concurrent use.
type Archive struct {
	store blobstore.BlobStore
	cache *cache.Cache // nil when disabled
	rc    *resource.Controller
	opts  options
}

// New creates an Archive over store.
func New(store blobstore.BlobStore, optFns ...Option) *Archive {
	opts := options{
		cacheTTL:   DefaultCacheTTL,
		initial:    100 * time.Millisecond,
		maxElapsed: DefaultMaxElapsed,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Archive{
		store: store,
		rc:    opts.controller,
		opts:  opts,
	}
	if opts.cacheTTL >= 0 {
		a.cache = cache.New(opts.cacheTTL, 2*opts.cacheTTL)
	}
	return a
}

// Store returns the underlying blob store.
func (a *Archive) Store() blobstore.BlobStore {
	return a.store
}

func (a *Archive) policy(ctx context.Context) backoff.BackOff {
	if a.opts.maxElapsed <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.opts.initial
	bo.MaxElapsedTime = a.opts.maxElapsed
	return backoff.WithContext(bo, ctx)
}

// retry runs op until it succeeds, fails permanently, or the backoff policy
// gives up. Not-found and context errors are permanent.
func (a *Archive) retry(ctx context.Context, op func() error) error {
	err := backoff.RetryNotify(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, ErrCorrupt) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}, a.policy(ctx), a.opts.notify)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

func (a *Archive) put(ctx context.Context, name string, data []byte) error {
	if err := a.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	return a.retry(ctx, func() error {
		return a.store.Put(ctx, name, data)
	})
}

func (a *Archive) get(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := a.retry(ctx, func() error {
		blob, err := a.store.Open(ctx, name)
		if err != nil {
			return err
		}
		defer func() { _ = blob.Close() }()

		rc, err := blob.ReadRange(ctx, 0, blob.Size())
		if err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()

		data, err = io.ReadAll(resource.NewRateLimitedReader(ctx, rc, a.rc))
		if err != nil {
			return err
		}
		if int64(len(data)) != blob.Size() {
			return fmt.Errorf("archive: read %s: %w", name, io.ErrUnexpectedEOF)
		}
		return nil
	})
	return data, err
}

// PutContainer stores container bytes and returns their reference.
func (a *Archive) PutContainer(ctx context.Context, data []byte) (Ref, error) {
	ref := RefOf(data)
	if err := a.put(ctx, ref.Name(), data); err != nil {
		return 0, fmt.Errorf("archive: put container %s: %w", ref, err)
	}
	return ref, nil
}

// GetContainer loads the container bytes for ref. The content is verified
// against the reference.
func (a *Archive) GetContainer(ctx context.Context, ref Ref) ([]byte, error) {
	data, err := a.get(ctx, ref.Name())
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("archive: get container %s: %w", ref, err)
	}
	if got := RefOf(data); got != ref {
		return nil, fmt.Errorf("%w: %s holds content %s", ErrCorrupt, ref, got)
	}
	return data, nil
}

// DeleteContainer removes a container. Codebooks are left in place since
// other containers may share them.
func (a *Archive) DeleteContainer(ctx context.Context, ref Ref) error {
	return a.retry(ctx, func() error {
		return a.store.Delete(ctx, ref.Name())
	})
}

// ListContainers returns all stored container references in ascending order.
func (a *Archive) ListContainers(ctx context.Context) ([]Ref, error) {
	var names []string
	err := a.retry(ctx, func() error {
		var err error
		names, err = a.store.List(ctx, containerDir)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("archive: list containers: %w", err)
	}

	refs := make([]Ref, 0, len(names))
	for _, name := range names {
		if id, ok := parseName(name, containerDir, containerExt); ok {
			refs = append(refs, Ref(id))
		}
	}
	return refs, nil
}

// PutCodebook stores cb under its ID.
func (a *Archive) PutCodebook(ctx context.Context, cb *codebook.Codebook) error {
	data, err := cb.MarshalBinary()
	if err != nil {
		return err
	}
	if err := a.put(ctx, codebookName(cb.ID()), data); err != nil {
		return fmt.Errorf("archive: put codebook %016x: %w", cb.ID(), err)
	}
	a.cacheCodebook(cb)
	return nil
}

// GetCodebook loads the codebook with the given ID. A missing codebook
// yields ErrCodebookNotFound.
func (a *Archive) GetCodebook(ctx context.Context, id uint64) (*codebook.Codebook, error) {
	if a.cache != nil {
		if v, ok := a.cache.Get(cacheKey(id)); ok {
			return v.(*codebook.Codebook), nil
		}
	}

	data, err := a.get(ctx, codebookName(id))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %016x", ErrCodebookNotFound, id)
		}
		return nil, fmt.Errorf("archive: get codebook %016x: %w", id, err)
	}

	cb, err := codebook.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: codebook %016x: %w", ErrCorrupt, id, err)
	}
	if cb.ID() != id {
		return nil, fmt.Errorf("%w: codebook %016x has fingerprint %016x", ErrCorrupt, id, cb.ID())
	}
	a.cacheCodebook(cb)
	return cb, nil
}

// DeleteCodebook removes a codebook.
func (a *Archive) DeleteCodebook(ctx context.Context, id uint64) error {
	if a.cache != nil {
		a.cache.Delete(cacheKey(id))
	}
	return a.retry(ctx, func() error {
		return a.store.Delete(ctx, codebookName(id))
	})
}

// ListCodebooks returns all stored codebook IDs in ascending order.
func (a *Archive) ListCodebooks(ctx context.Context) ([]uint64, error) {
	var names []string
	err := a.retry(ctx, func() error {
		var err error
		names, err = a.store.List(ctx, codebookDir)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("archive: list codebooks: %w", err)
	}

	ids := make([]uint64, 0, len(names))
	for _, name := range names {
		if id, ok := parseName(name, codebookDir, codebookExt); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (a *Archive) cacheCodebook(cb *codebook.Codebook) {
	if a.cache != nil {
		a.cache.SetDefault(cacheKey(cb.ID()), cb)
	}
}

func cacheKey(id uint64) string {
	return strconv.FormatUint(id, 16)
}
