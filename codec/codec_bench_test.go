package codec

import (
	"testing"
)

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal(b *testing.B, c Codec, data []byte) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v weights
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func benchWeights() weights {
	w := weights{BlockLen: 64, Dim: 16, Values: make([]float64, 64*16)}
	for i := range w.Values {
		w.Values[i] = float64(i%97) / 97
	}
	return w
}

func BenchmarkCodec_Marshal_Weights(b *testing.B) {
	w := benchWeights()

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, w) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, w) })
	b.Run("yaml", func(b *testing.B) { benchmarkCodecMarshal(b, YAML{}, w) })
}

func BenchmarkCodec_Unmarshal_Weights(b *testing.B) {
	w := benchWeights()

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecUnmarshal(b, JSON{}, mustMarshal(b, JSON{}, w)) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecUnmarshal(b, GoJSON{}, mustMarshal(b, GoJSON{}, w)) })
	b.Run("yaml", func(b *testing.B) { benchmarkCodecUnmarshal(b, YAML{}, mustMarshal(b, YAML{}, w)) })
}

func mustMarshal(b *testing.B, c Codec, v any) []byte {
	b.Helper()
	data, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	return data
}
