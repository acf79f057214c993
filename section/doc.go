// Package section defines the fixed-size binary structures of the CSF format.
//
// A CSF file is a 24-byte header followed by one label record per entry:
//
//	┌──────────────────────────────────────────────┐
//	│ Header (24 bytes)                            │
//	│  " FSC" | version | labels | strings |       │
//	│  reserved | language                         │
//	├──────────────────────────────────────────────┤
//	│ Label record (repeated LabelCount times)     │
//	│  " LBL" | value count | name length | name   │
//	│  Value record                                │
//	│   " RTS" | unit count | ^units               │
//	│   "WRTS" | unit count | ^units | len | bytes │
//	└──────────────────────────────────────────────┘
//
// All integers are little-endian uint32. Text is stored as UTF-16 code units,
// each bitwise complemented (^units above); see the encoding package.
//
// This package only serializes the fixed parts of each record. Walking the
// variable-size parts is the job of the csf package.
package section
