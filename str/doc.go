// Package str reads and writes STR text string tables.
//
// Each entry occupies four lines:
//
//	TXT_POWER_DRAIN
//	"Power = %d\nDrain = %d"
//	END
//	<empty line>
//
// The value is quoted and escaped so it never contains a raw quote or line
// break: \\ \" \n \r \t, and \uXXXX for other control characters, DEL and
// unpaired UTF-16 surrogates. The quoted value is therefore also a valid JSON
// string literal.
//
// Header fields travel as metadata, by default inline as a first entry
// labelled CSFSTUFF:META whose value is compact JSON. Extra payloads of WRTS
// values travel in the extra-data sidecar. See package sidecar.
package str
