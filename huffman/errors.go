package huffman

import "errors"

var (
	// ErrCorrupt is returned when a bit stream cannot be decoded against a table:
	// the stream ends before a leaf is reached, a bit pattern matches no code, or
	// the consumed bit count disagrees with the recorded one.
	ErrCorrupt = errors.New("huffman: corrupt bit stream")

	// ErrInvalidTable is returned when a code-length table is malformed.
	ErrInvalidTable = errors.New("huffman: invalid code table")

	// ErrSymbolOutOfRange is returned when a symbol is outside the alphabet or has no code.
	ErrSymbolOutOfRange = errors.New("huffman: symbol out of range")
)
