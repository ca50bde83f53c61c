package archive

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vqz/blobstore"
	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/resource"
)

var errTransient = errors.New("transient")

// flakyStore fails the first n calls of each operation with errTransient.
type flakyStore struct {
	blobstore.BlobStore
	failures atomic.Int32
	opens    atomic.Int32
}

func (s *flakyStore) fail() error {
	if s.failures.Add(-1) >= 0 {
		return errTransient
	}
	return nil
}

func (s *flakyStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	s.opens.Add(1)
	if err := s.fail(); err != nil {
		return nil, err
	}
	return s.BlobStore.Open(ctx, name)
}

func (s *flakyStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.fail(); err != nil {
		return err
	}
	return s.BlobStore.Put(ctx, name, data)
}

func testCodebook(t *testing.T) *codebook.Codebook {
	t.Helper()
	cb, err := codebook.New(2, 3, []float32{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	return cb
}

func fastRetry() Option {
	return WithRetry(time.Millisecond, time.Second)
}

func TestRef(t *testing.T) {
	ref := RefOf([]byte("container"))
	assert.Len(t, ref.String(), 16)
	assert.Equal(t, "containers/"+ref.String()+".vqz", ref.Name())

	parsed, err := ParseRef(ref.String())
	require.NoError(t, err)
	assert.Equal(t, ref, parsed)

	text, err := ref.MarshalText()
	require.NoError(t, err)
	var back Ref
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, ref, back)

	for _, bad := range []string{"", "abc", "zzzzzzzzzzzzzzzz", "0123456789abcdef0"} {
		_, err := ParseRef(bad)
		assert.ErrorIs(t, err, ErrInvalidRef, bad)
	}
}

func TestArchive_Containers(t *testing.T) {
	ctx := context.Background()
	a := New(blobstore.NewMemoryStore(), fastRetry())

	first, err := a.PutContainer(ctx, []byte("first"))
	require.NoError(t, err)
	second, err := a.PutContainer(ctx, []byte("second"))
	require.NoError(t, err)

	data, err := a.GetContainer(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)

	refs, err := a.ListContainers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Ref{first, second}, refs)

	require.NoError(t, a.DeleteContainer(ctx, first))
	_, err = a.GetContainer(ctx, first)
	assert.ErrorIs(t, err, ErrNotFound)

	refs, err = a.ListContainers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Ref{second}, refs)
}

func TestArchive_ContainerTampered(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	a := New(store, fastRetry())

	ref, err := a.PutContainer(ctx, []byte("original"))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, ref.Name(), []byte("tampered")))

	_, err = a.GetContainer(ctx, ref)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestArchive_Codebooks(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	a := New(store, WithCacheTTL(-1), fastRetry())
	cb := testCodebook(t)

	_, err := a.GetCodebook(ctx, cb.ID())
	assert.ErrorIs(t, err, ErrCodebookNotFound)

	require.NoError(t, a.PutCodebook(ctx, cb))

	got, err := a.GetCodebook(ctx, cb.ID())
	require.NoError(t, err)
	assert.Equal(t, cb.ID(), got.ID())
	assert.Equal(t, cb.K(), got.K())
	assert.Equal(t, cb.Dim(), got.Dim())

	ids, err := a.ListCodebooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{cb.ID()}, ids)

	require.NoError(t, a.DeleteCodebook(ctx, cb.ID()))
	_, err = a.GetCodebook(ctx, cb.ID())
	assert.ErrorIs(t, err, ErrCodebookNotFound)
}

func TestArchive_CodebookWrongName(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	a := New(store, WithCacheTTL(-1), fastRetry())
	cb := testCodebook(t)

	data, err := cb.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, codebookName(42), data))

	_, err = a.GetCodebook(ctx, 42)
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, store.Put(ctx, codebookName(43), []byte{1, 2}))
	_, err = a.GetCodebook(ctx, 43)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestArchive_CodebookCache(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{BlobStore: blobstore.NewMemoryStore()}
	a := New(store, fastRetry())
	cb := testCodebook(t)

	require.NoError(t, a.PutCodebook(ctx, cb))

	for range 3 {
		got, err := a.GetCodebook(ctx, cb.ID())
		require.NoError(t, err)
		assert.Same(t, cb, got)
	}
	assert.Zero(t, store.opens.Load())
}

func TestArchive_RetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{BlobStore: blobstore.NewMemoryStore()}
	var notified atomic.Int32
	a := New(store, fastRetry(), WithRetryNotify(func(error, time.Duration) {
		notified.Add(1)
	}))

	store.failures.Store(2)
	ref, err := a.PutContainer(ctx, []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), notified.Load())

	store.failures.Store(1)
	data, err := a.GetContainer(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.Equal(t, int32(3), notified.Load())
}

func TestArchive_NotFoundIsNotRetried(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{BlobStore: blobstore.NewMemoryStore()}
	a := New(store, fastRetry())

	_, err := a.GetContainer(ctx, RefOf([]byte("missing")))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), store.opens.Load())
}

func TestArchive_RetryDisabled(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{BlobStore: blobstore.NewMemoryStore()}
	a := New(store, WithRetry(0, 0))

	store.failures.Store(1)
	_, err := a.PutContainer(ctx, []byte("payload"))
	assert.ErrorIs(t, err, errTransient)
}

func TestArchive_Canceled(t *testing.T) {
	store := &flakyStore{BlobStore: blobstore.NewMemoryStore()}
	a := New(store, WithRetry(time.Hour, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store.failures.Store(100)
	_, err := a.PutContainer(ctx, []byte("payload"))
	assert.Error(t, err)
}

func TestArchive_ResourceController(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	a := New(blobstore.NewMemoryStore(), WithResourceController(rc), fastRetry())

	ref, err := a.PutContainer(ctx, []byte("limited"))
	require.NoError(t, err)
	data, err := a.GetContainer(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("limited"), data)
}
