// Package encoding provides the text transforms shared by the CSF and STR codecs.
//
// These are stateless, pure functions; neither codec keeps any encoding state
// of its own.
//
// # Complement Transform
//
// CSF obfuscates text by storing the bitwise complement of every UTF-16 code
// unit. Complement applies (and, being an involution, also reverses) it:
//
//	stored := encoding.Complement(encoding.EncodeUnits("Please Stand By..."))
//	text := encoding.DecodeUnits(encoding.Complement(stored))
//
// # UTF-16 and Unpaired Surrogates
//
// Game string tables occasionally contain unpaired surrogates. DecodeUnits
// keeps them in a generalized UTF-8 form so EncodeUnits can restore the exact
// code units; strings built from well-formed text are ordinary UTF-8.
//
// # STR Escaping
//
// Escape and Unescape implement the quoting rules for the value line of an
// STR entry. The output of Escape never contains a raw double quote, CR or LF,
// so every value fits on one line between its delimiting quotes:
//
//	encoding.Escape("Power = %d\nDrain = %d")  // Power = %d\nDrain = %d (literal backslash-n)
//	encoding.Escape(`say "hi"`)                // say \"hi\"
package encoding
