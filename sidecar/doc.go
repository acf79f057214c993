// Package sidecar defines the JSON side files that travel with an STR file.
//
// STR text can only hold labels and strings. Two sidecars carry the rest of
// a CSF file so the conversion stays lossless:
//
//   - Metadata: header version, language, the reserved header field, the
//     number of entries with extra payloads and the source file digest.
//     By default it is embedded in the STR text as a synthetic first entry;
//     it can also be written to its own file.
//   - ExtraData: the opaque payload of every WRTS value, keyed by label,
//     optionally compressed with one of the codecs in package compress.
package sidecar
