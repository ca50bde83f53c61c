package huffman

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFrom(t *testing.T, symbols []uint32, alphabet int) *Table {
	t.Helper()
	freqs, err := Count(symbols, alphabet)
	require.NoError(t, err)
	table, err := Build(freqs)
	require.NoError(t, err)
	return table
}

func TestCodeLengths_TieBreakIsReproducible(t *testing.T) {
	// All equal frequencies: merges are decided purely by the smallest symbol.
	lengths, err := CodeLengths([]uint64{1, 1, 1})
	require.NoError(t, err)
	// (0,1) merge first; then {2} (freq 1) merges with {0,1} (freq 2).
	assert.Equal(t, []uint8{2, 2, 1}, lengths)

	again, err := CodeLengths([]uint64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, lengths, again)
}

func TestCodeLengths_Skewed(t *testing.T) {
	lengths, err := CodeLengths([]uint64{8, 4, 2, 1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3, 4, 4, 0}, lengths)
}

func TestCanonicalCodes(t *testing.T) {
	table, err := NewTable([]uint8{2, 1, 3, 3})
	require.NoError(t, err)

	want := map[uint32]string{1: "0", 0: "10", 2: "110", 3: "111"}
	for sym, code := range want {
		c, ok := table.Code(sym)
		require.True(t, ok)
		assert.Equal(t, code, c.String(), "symbol %d", sym)
	}
	assert.Equal(t, 3, table.MaxLen())
}

func TestSingleSymbolGetsOneBit(t *testing.T) {
	symbols := []uint32{3, 3, 3, 3, 3, 3, 3, 3, 3, 3}
	table := buildFrom(t, symbols, 8)

	c, ok := table.Code(3)
	require.True(t, ok)
	assert.Equal(t, uint8(1), c.Len)
	assert.Equal(t, 1, table.MaxLen())

	stream, bits, err := table.Encode(symbols)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), bits)
	assert.Len(t, stream, 2)

	decoded, err := table.Decode(stream, bits, uint64(len(symbols)))
	require.NoError(t, err)
	assert.Equal(t, symbols, decoded)
}

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, alphabet := range []int{1, 2, 3, 17, 256, 4096} {
		symbols := make([]uint32, 5000)
		for i := range symbols {
			// Skewed distribution to get a range of code lengths.
			v := rng.ExpFloat64() * float64(alphabet) / 8
			symbols[i] = uint32(min(int(v), alphabet-1))
		}
		table := buildFrom(t, symbols, alphabet)

		stream, bits, err := table.Encode(symbols)
		require.NoError(t, err)

		decoded, err := table.Decode(stream, bits, uint64(len(symbols)))
		require.NoError(t, err)
		assert.Equal(t, symbols, decoded, "alphabet %d", alphabet)
	}
}

func TestPrefixFree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	freqs := make([]uint64, 300)
	for i := range freqs {
		freqs[i] = uint64(rng.Intn(1000))
	}
	table, err := Build(freqs)
	require.NoError(t, err)

	var codes []string
	for sym := range freqs {
		if c, ok := table.Code(uint32(sym)); ok {
			codes = append(codes, c.String())
		}
	}
	require.NotEmpty(t, codes)
	for i, a := range codes {
		for j, b := range codes {
			if i != j {
				assert.False(t, strings.HasPrefix(b, a), "%q is a prefix of %q", a, b)
			}
		}
	}
}

func TestEncodedBitsMatchesEncode(t *testing.T) {
	symbols := []uint32{0, 1, 1, 2, 2, 2, 2, 5}
	freqs, err := Count(symbols, 6)
	require.NoError(t, err)
	table, err := Build(freqs)
	require.NoError(t, err)

	_, bits, err := table.Encode(symbols)
	require.NoError(t, err)
	assert.Equal(t, table.EncodedBits(freqs), bits)
}

func TestCount_OutOfRange(t *testing.T) {
	_, err := Count([]uint32{0, 4}, 4)
	assert.ErrorIs(t, err, ErrSymbolOutOfRange)
}

func TestEncode_UnknownSymbol(t *testing.T) {
	table := buildFrom(t, []uint32{0, 1}, 4)
	_, _, err := table.Encode([]uint32{2})
	assert.ErrorIs(t, err, ErrSymbolOutOfRange)
}

func TestDecode_Truncated(t *testing.T) {
	symbols := []uint32{0, 1, 2, 3, 0, 1, 2, 3, 3, 3}
	table := buildFrom(t, symbols, 4)
	stream, bits, err := table.Encode(symbols)
	require.NoError(t, err)

	_, err = table.Decode(stream, bits-3, uint64(len(symbols)))
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = table.Decode(stream[:len(stream)-1], bits, uint64(len(symbols)))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode_TrailingBits(t *testing.T) {
	symbols := []uint32{0, 1, 0, 1}
	table := buildFrom(t, symbols, 2)
	stream, bits, err := table.Encode(symbols)
	require.NoError(t, err)

	// Asking for fewer symbols than were encoded leaves bits unconsumed.
	_, err = table.Decode(stream, bits, 2)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode_IncompleteCode(t *testing.T) {
	// Only "0" is assigned; a stream of ones can never reach a leaf.
	table, err := NewTable([]uint8{1, 0})
	require.NoError(t, err)
	_, err = table.Decode([]byte{0xFF}, 8, 8)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestNewTable_Oversubscribed(t *testing.T) {
	_, err := NewTable([]uint8{1, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestTableSerialization(t *testing.T) {
	symbols := []uint32{9, 9, 9, 1, 1, 4, 200}
	table := buildFrom(t, symbols, 256)

	data, err := table.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 4+4*entrySize)

	loaded, err := UnmarshalTable(data, 256)
	require.NoError(t, err)
	assert.Equal(t, table.Lengths(), loaded.Lengths())

	stream, bits, err := table.Encode(symbols)
	require.NoError(t, err)
	decoded, err := loaded.Decode(stream, bits, uint64(len(symbols)))
	require.NoError(t, err)
	assert.Equal(t, symbols, decoded)
}

func TestUnmarshalTable_Invalid(t *testing.T) {
	table := buildFrom(t, []uint32{0, 1, 2}, 3)
	data, err := table.MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     []byte
		alphabet int
	}{
		{"short", data[:2], 3},
		{"truncated", data[:len(data)-1], 3},
		{"symbol outside alphabet", data, 2},
		{"zero alphabet", data, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalTable(tt.data, tt.alphabet)
			assert.ErrorIs(t, err, ErrInvalidTable)
		})
	}
}
