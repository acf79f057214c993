// Package compress provides the codecs applied to extra-data payloads before
// they are stored in the extra-data sidecar.
//
// WRTS values carry an opaque byte payload after their text. The STR text
// format has no place for it, so the payloads travel in a JSON sidecar, each
// one optionally compressed with a single algorithm recorded in the sidecar:
//
//   - none: payload stored as is
//   - zstd: Zstandard frame (klauspost/compress)
//   - s2:   S2 block (klauspost/compress)
//   - lz4:  raw LZ4 block (pierrec/lz4)
//   - xz:   xz stream (ulikunitz/xz)
//
// Use GetCodec to obtain the shared codec for a format.CompressionType:
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//		return err
//	}
//	packed, err := codec.Compress(payload)
//
// All built-in codecs are safe for concurrent use. Empty payloads compress to
// nil and decompress to nil for every algorithm except none, which returns
// its input unchanged.
package compress
