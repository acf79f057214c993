package format

import (
	"fmt"
	"strings"

	"github.com/arloliu/csfkit/errs"
)

type (
	RecordKind      uint8
	Language        uint32
	CompressionType uint8
)

const (
	KindFile      RecordKind = 0x1 // KindFile is the " FSC" file header tag.
	KindLabel     RecordKind = 0x2 // KindLabel is the " LBL" label record tag.
	KindText      RecordKind = 0x3 // KindText is the " RTS" text-only value tag.
	KindTextExtra RecordKind = 0x4 // KindTextExtra is the "WRTS" value-with-payload tag.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionXZ   CompressionType = 0x5 // CompressionXZ represents xz (LZMA2) compression.
)

// Language codes stored in the CSF header.
const (
	LangEnUS Language = iota
	LangEnUK
	LangGerman
	LangFrench
	LangSpanish
	LangItalian
	LangJapanese
	LangJabberwockie
	LangKorean
	LangChinese
)

// Tag returns the 4-byte on-disk tag of the record kind. Tags are the ASCII
// names stored reversed, so "CSF " reads as " FSC".
func (k RecordKind) Tag() [4]byte {
	switch k {
	case KindFile:
		return [4]byte{' ', 'F', 'S', 'C'}
	case KindLabel:
		return [4]byte{' ', 'L', 'B', 'L'}
	case KindText:
		return [4]byte{' ', 'R', 'T', 'S'}
	case KindTextExtra:
		return [4]byte{'W', 'R', 'T', 'S'}
	default:
		return [4]byte{}
	}
}

// HasExtra reports whether a value record of this kind is followed by an extra payload.
func (k RecordKind) HasExtra() bool {
	return k == KindTextExtra
}

func (k RecordKind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindLabel:
		return "Label"
	case KindText:
		return "Text"
	case KindTextExtra:
		return "TextExtra"
	default:
		return "Unknown"
	}
}

// ValueKindFromTag maps a value record tag to its kind. It returns false for
// any tag that is not " RTS" or "WRTS".
func ValueKindFromTag(tag [4]byte) (RecordKind, bool) {
	switch tag {
	case KindText.Tag():
		return KindText, true
	case KindTextExtra.Tag():
		return KindTextExtra, true
	default:
		return 0, false
	}
}

func (l Language) String() string {
	switch l {
	case LangEnUS:
		return "en_US"
	case LangEnUK:
		return "en_UK"
	case LangGerman:
		return "German"
	case LangFrench:
		return "French"
	case LangSpanish:
		return "Spanish"
	case LangItalian:
		return "Italian"
	case LangJapanese:
		return "Japanese"
	case LangJabberwockie:
		return "Jabberwockie"
	case LangKorean:
		return "Korean"
	case LangChinese:
		return "Chinese"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(l))
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionXZ:
		return "XZ"
	default:
		return "Unknown"
	}
}

// ParseCompression parses a case-insensitive compression name. The empty
// string means CompressionNone.
func ParseCompression(name string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	case "xz":
		return CompressionXZ, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrUnsupportedCompression, name)
	}
}

// MarshalText implements encoding.TextMarshaler so sidecars store names, not numbers.
func (c CompressionType) MarshalText() ([]byte, error) {
	if c == 0 {
		return []byte("none"), nil
	}
	if c.String() == "Unknown" {
		return nil, fmt.Errorf("unknown compression type %d", uint8(c))
	}

	return []byte(strings.ToLower(c.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CompressionType) UnmarshalText(text []byte) error {
	parsed, err := ParseCompression(string(text))
	if err != nil {
		return err
	}
	*c = parsed

	return nil
}
