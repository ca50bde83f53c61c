// Package container implements the self-describing binary artifact produced
// by compression.
//
// # Layout (format version 1, little-endian)
//
// A container is a fixed 76-byte header followed by three sections:
//
//	offset  size  field
//	 0      4     magic "VQZ\x01"
//	 4      2     version
//	 6      1     flags (bit 0: codebook embedded)
//	 7      1     codebook section compression (compress.Type)
//	 8      8     original byte length
//	16      4     block length L
//	20      4     latent dimensionality D
//	24      4     codebook size K
//	28      8     number of code symbols
//	36      8     valid bits in the symbol stream
//	44      8     codebook fingerprint
//	52      8     transform fingerprint
//	60      4     codebook section length (0 when external)
//	64      4     code table section length
//	68      4     symbol stream length
//	72      4     CRC32C over header[0:72] and all sections
//
// followed by the codebook (K x D float32, optionally compressed), the code
// table (huffman.Table.MarshalBinary) and the packed symbol stream.
//
// Unmarshal validates every declared length against the actual input and
// never reads out of bounds. Any inconsistency fails with ErrCorrupt.
package container
