package vqz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vqz/archive"
	"github.com/hupe1980/vqz/blobstore"
	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/testutil"
)

func TestCompressTo_DecompressFrom(t *testing.T) {
	ctx := context.Background()
	for _, placement := range []Placement{Embedded, External} {
		t.Run(placement.String(), func(t *testing.T) {
			arc := archive.New(blobstore.NewLocalStore(t.TempDir()))
			e := newEngine(t, WithCodebookPlacement(placement))
			data := testutil.NewRNG(31).Text(8192)

			ref, res, err := e.CompressTo(ctx, arc, data)
			require.NoError(t, err)
			assert.Equal(t, archive.RefOf(res.Container), ref)

			out, err := e.DecompressFrom(ctx, arc, ref)
			require.NoError(t, err)
			assert.Len(t, out, len(data))

			direct, err := e.Decompress(ctx, res.Container, WithCodebook(res.Codebook))
			require.NoError(t, err)
			assert.Equal(t, direct, out)

			cb, err := CodebookOf(ctx, arc, ref)
			require.NoError(t, err)
			assert.Equal(t, res.Codebook.ID(), cb.ID())
		})
	}
}

func TestDecompressFrom_MissingCodebook(t *testing.T) {
	ctx := context.Background()
	arc := archive.New(blobstore.NewMemoryStore(), archive.WithCacheTTL(-1))
	e := newEngine(t, WithCodebookPlacement(External))

	ref, res, err := e.CompressTo(ctx, arc, testutil.NewRNG(37).Signal(2048))
	require.NoError(t, err)
	require.NoError(t, arc.DeleteCodebook(ctx, res.Codebook.ID()))

	_, err = e.DecompressFrom(ctx, arc, ref)
	assert.ErrorIs(t, err, ErrCodebookMissing)

	_, err = CodebookOf(ctx, arc, ref)
	assert.ErrorIs(t, err, ErrCodebookMissing)

	// A codebook supplied by the caller still works.
	out, err := e.DecompressFrom(ctx, arc, ref, WithCodebook(res.Codebook))
	require.NoError(t, err)
	assert.Len(t, out, 2048)

	// So does a resolver consulted before the archive.
	out, err = e.DecompressFrom(ctx, arc, ref, WithCodebookResolver(
		CodebookResolverFunc(func(context.Context, uint64) (*codebook.Codebook, error) {
			return res.Codebook, nil
		})))
	require.NoError(t, err)
	assert.Len(t, out, 2048)
}

func TestDecompressFrom_UnknownRef(t *testing.T) {
	arc := archive.New(blobstore.NewMemoryStore())
	e := newEngine(t)

	_, err := e.DecompressFrom(context.Background(), arc, archive.RefOf([]byte("nope")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecompressFrom_TamperedContainer(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	arc := archive.New(store)
	e := newEngine(t)

	ref, res, err := e.CompressTo(ctx, arc, testutil.NewRNG(41).Text(1024))
	require.NoError(t, err)

	tampered := append([]byte(nil), res.Container...)
	tampered[len(tampered)-1] ^= 0xff
	require.NoError(t, store.Put(ctx, ref.Name(), tampered))

	_, err = e.DecompressFrom(ctx, arc, ref)
	assert.ErrorIs(t, err, ErrCorruptContainer)
}
