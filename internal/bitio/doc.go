// Package bitio provides MSB-first bit packing used by the entropy coder.
//
// Bits are written from the most significant bit of each byte downwards.
// The final partial byte is padded with zero bits; callers record the number
// of valid bits separately so padding is never interpreted as data.
package bitio
