// Package huffman implements a canonical Huffman coder over a dense integer
// alphabet.
//
// Code lengths are derived from symbol frequencies with a reproducible
// tie-break: the two nodes with the lowest frequency are merged first and, on
// equal frequency, the node whose smallest contained symbol is lower wins.
// Bit patterns are then assigned canonically, ordering leaves by (length,
// symbol), so an encoder and a decoder holding the same lengths agree
// bit-for-bit.
//
// # Usage
//
//	freqs, _ := huffman.Count(symbols, k)
//	table, _ := huffman.Build(freqs)
//	stream, bits, _ := table.Encode(symbols)
//	decoded, _ := table.Decode(stream, bits, uint64(len(symbols)))
//
// A single-symbol alphabet is assigned a 1-bit code so that a non-empty
// symbol sequence always produces a non-empty stream.
package huffman
