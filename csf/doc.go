// Package csf reads and writes CSF binary string tables.
//
// A CSF file is a 24-byte header followed by one record per label:
//
//	" LBL" | value count | name length | name bytes
//	" RTS" | unit count  | complemented UTF-16LE units
//	"WRTS" | unit count  | complemented UTF-16LE units | extra length | extra bytes
//
// Every label carries exactly one value. Text units are stored with each bit
// inverted; Decode and Encode undo and apply the inversion so a table.Value
// always holds plain text.
//
// Decode followed by Encode reproduces the input byte for byte, including
// the header's reserved field, duplicate labels and unpaired surrogates.
package csf
