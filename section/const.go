package section

// offset and section sizes in the CSF file
const (
	HeaderSize       = 24 // fixed file header size in bytes
	LabelHeaderSize  = 12 // tag + value count + name length
	StringHeaderSize = 8  // tag + UTF-16 unit count
	ExtraLengthSize  = 4  // length prefix of a WRTS extra payload

	// DefaultVersion is the format version written by Red Alert 2 and later tools.
	DefaultVersion = 3
)
