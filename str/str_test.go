package str

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/csfkit/encoding"
	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/format"
	"github.com/arloliu/csfkit/section"
	"github.com/arloliu/csfkit/sidecar"
	"github.com/arloliu/csfkit/table"
)

func text(s string) table.Value {
	return table.Value{Text: s}
}

func sampleTable() *table.Table {
	return table.New(
		table.Entry{Label: "TXT_POWER_DRAIN", Value: text("Power = %d\nDrain = %d")},
		table.Entry{Label: "TXT_STAND_BY", Value: text("Please Stand By...")},
		table.Entry{Label: "Name:E1", Value: table.Value{Text: "GI", Extra: []byte("gi.wav")}},
		table.Entry{Label: "GUI:Quote", Value: text(`say "hi" \ bye`)},
		table.Entry{Label: "GUI:Lone", Value: text(encoding.DecodeUnits([]uint16{'a', 0xDC00}))},
		table.Entry{Label: "GUI:Empty", Value: text("")},
		table.Entry{Label: "TXT_STAND_BY", Value: text("dup")},
	)
}

func sampleHeader() section.Header {
	h := section.NewHeader(3, format.LangKorean)
	h.Reserved = 0xCAFE

	return h
}

// requireShape checks the four-line cycle of every entry in an STR file.
func requireShape(t *testing.T, data []byte) {
	t.Helper()

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Zero(t, len(lines)%4, "line count %d", len(lines))
	for i, line := range lines {
		switch i % 4 {
		case 0:
			require.NotEmpty(t, line, "line %d", i+1)
		case 1:
			require.True(t, strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`), "line %d: %q", i+1, line)
		case 2:
			require.Equal(t, "END", line, "line %d", i+1)
		case 3:
			require.Empty(t, line, "line %d", i+1)
		}
	}
}

func requireSTRError(t *testing.T, err error, line int) *errs.FormatError {
	t.Helper()

	require.ErrorIs(t, err, errs.ErrFormat)
	var fe *errs.FormatError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "str", fe.Source)
	require.Equal(t, line, fe.Line)

	return fe
}

// =============================================================================
// Encode
// =============================================================================

func TestEncode_Inline(t *testing.T) {
	tb := table.New(table.Entry{Label: "A", Value: text("x")})

	out, err := Encode(section.NewHeader(3, format.LangEnUS), tb)
	require.NoError(t, err)
	require.Nil(t, out.Metadata)
	require.Nil(t, out.Extra)

	want := "CSFSTUFF:META\n" +
		`"{\"version\":3,\"lang_code\":0,\"unused\":0,\"extra_count\":0}"` + "\n" +
		"END\n\n" +
		"A\n\"x\"\nEND\n\n"
	require.Equal(t, want, string(out.Text))
}

func TestEncode_MetadataLineIsJSONString(t *testing.T) {
	out, err := Encode(sampleHeader(), sampleTable(), WithSourceDigest("00ff"))
	require.NoError(t, err)
	requireShape(t, out.Text)

	lines := strings.Split(string(out.Text), "\n")
	var raw string
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &raw))

	meta, err := sidecar.ParseMetadata([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, sidecar.Metadata{
		Version: 3, Language: format.LangKorean, Reserved: 0xCAFE, ExtraCount: 1, SourceBLAKE3: "00ff",
	}, meta)
}

func TestEncode_SidecarMode(t *testing.T) {
	out, err := Encode(sampleHeader(), sampleTable(), WithMetadataMode(MetadataSidecar))
	require.NoError(t, err)
	requireShape(t, out.Text)

	require.NotContains(t, string(out.Text), MetaLabel)
	require.NotNil(t, out.Metadata)
	require.Equal(t, uint32(0xCAFE), out.Metadata.Reserved)
	require.Equal(t, 1, out.Metadata.ExtraCount)
	require.True(t, strings.HasPrefix(string(out.Text), "TXT_POWER_DRAIN\n\"Power = %d\\nDrain = %d\"\nEND\n\n"))
}

func TestEncode_Extra(t *testing.T) {
	out, err := Encode(sampleHeader(), sampleTable(), WithExtraCompression(format.CompressionZstd))
	require.NoError(t, err)

	require.NotNil(t, out.Extra)
	require.Equal(t, format.CompressionZstd, out.Extra.Compression)
	require.Equal(t, []string{"Name:E1"}, out.Extra.Labels())
	p, _ := out.Extra.Get("Name:E1")
	require.Equal(t, []byte("gi.wav"), p)
}

func TestEncode_LabelErrors(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"newline":      "A\nB",
		"carriage":     "A\r",
		"nul":          "A\x00",
		"invalid utf8": "A\xff",
		"meta label":   MetaLabel,
	}

	for name, label := range tests {
		t.Run(name, func(t *testing.T) {
			tb := table.New(
				table.Entry{Label: "ok", Value: text("x")},
				table.Entry{Label: label, Value: text("y")},
			)
			_, err := Encode(sampleHeader(), tb)
			require.ErrorIs(t, err, errs.ErrInvalidLabel)

			fe := requireSTRError(t, err, -1)
			require.Equal(t, 1, fe.Record)
		})
	}
}

func TestEncode_MetaLabelAllowedInSidecarMode(t *testing.T) {
	tb := table.New(
		table.Entry{Label: MetaLabel, Value: text("real entry")},
		table.Entry{Label: "B", Value: text("b")},
	)

	out, err := Encode(sampleHeader(), tb, WithMetadataMode(MetadataSidecar))
	require.NoError(t, err)

	res, err := Decode(out.Text, WithMetadata(*out.Metadata))
	require.NoError(t, err)
	require.True(t, tb.Equal(res.Table))
}

func TestEncode_Duplicates(t *testing.T) {
	t.Run("same payload", func(t *testing.T) {
		tb := table.New(
			table.Entry{Label: "A", Value: table.Value{Text: "1", Extra: []byte("p")}},
			table.Entry{Label: "A", Value: table.Value{Text: "2", Extra: []byte("p")}},
		)
		out, err := Encode(sampleHeader(), tb)
		require.NoError(t, err)
		require.Equal(t, 1, out.Extra.Len())
	})

	t.Run("different payloads", func(t *testing.T) {
		tb := table.New(
			table.Entry{Label: "A", Value: table.Value{Text: "1", Extra: []byte("p")}},
			table.Entry{Label: "A", Value: table.Value{Text: "2", Extra: []byte("q")}},
		)
		_, err := Encode(sampleHeader(), tb)
		var sm *errs.SidecarMismatchError
		require.True(t, errors.As(err, &sm))
		require.Equal(t, "A", sm.Label)
	})

	t.Run("payload and none", func(t *testing.T) {
		tb := table.New(
			table.Entry{Label: "A", Value: text("1")},
			table.Entry{Label: "A", Value: table.Value{Text: "2", Extra: []byte{}}},
		)
		_, err := Encode(sampleHeader(), tb)
		require.ErrorIs(t, err, errs.ErrSidecarMismatch)
	})
}

func TestEncode_BadOptions(t *testing.T) {
	_, err := Encode(sampleHeader(), sampleTable(), WithMetadataMode(MetadataMode(7)))
	require.Error(t, err)

	_, err = Encode(sampleHeader(), sampleTable(), WithExtraCompression(format.CompressionType(0x7F)))
	require.Error(t, err)
}

// =============================================================================
// Round trip
// =============================================================================

func TestRoundTrip(t *testing.T) {
	for _, mode := range []MetadataMode{MetadataInline, MetadataSidecar} {
		t.Run(mode.String(), func(t *testing.T) {
			h, tb := sampleHeader(), sampleTable()

			out, err := Encode(h, tb, WithMetadataMode(mode), WithExtraCompression(format.CompressionS2))
			require.NoError(t, err)

			extraJSON, err := out.Extra.Marshal()
			require.NoError(t, err)
			extra, err := sidecar.ParseExtraData(extraJSON)
			require.NoError(t, err)

			opts := []DecodeOption{WithExtraData(extra)}
			if out.Metadata != nil {
				opts = append(opts, WithMetadata(*out.Metadata))
			}

			res, err := Decode(out.Text, opts...)
			require.NoError(t, err)
			require.False(t, res.MetadataDefaulted)
			require.True(t, tb.Equal(res.Table), "tables differ")
			require.Equal(t, h.Version, res.Header.Version)
			require.Equal(t, h.Language, res.Header.Language)
			require.Equal(t, h.Reserved, res.Header.Reserved)
			require.Equal(t, uint32(tb.Len()), res.Header.LabelCount)
		})
	}
}

func TestRoundTrip_Controls(t *testing.T) {
	var sb strings.Builder
	for r := rune(0); r < 0x80; r++ {
		sb.WriteRune(r)
	}
	tb := table.New(table.Entry{Label: "ASCII", Value: text(sb.String())})

	out, err := Encode(sampleHeader(), tb)
	require.NoError(t, err)
	requireShape(t, out.Text)

	res, err := Decode(out.Text)
	require.NoError(t, err)
	require.True(t, tb.Equal(res.Table))
}

// =============================================================================
// Decode
// =============================================================================

func TestDecode_DefaultMetadata(t *testing.T) {
	res, err := Decode([]byte("A\n\"x\"\nEND\n\n"))
	require.NoError(t, err)

	require.True(t, res.MetadataDefaulted)
	require.Equal(t, uint32(3), res.Header.Version)
	require.Equal(t, format.LangEnUS, res.Header.Language)
	require.Equal(t, uint32(0), res.Header.Reserved)
	require.Equal(t, 1, res.Table.Len())
}

func TestDecode_Empty(t *testing.T) {
	res, err := Decode(nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.Table.Len())
	require.True(t, res.MetadataDefaulted)
}

func TestDecode_ExplicitMetadataWins(t *testing.T) {
	data := "CSFSTUFF:META\n\"{\\\"lang_code\\\":5}\"\nEND\n\nA\n\"x\"\nEND\n\n"

	res, err := Decode([]byte(data), WithMetadata(sidecar.Metadata{Version: 2, Language: format.LangChinese}))
	require.NoError(t, err)
	require.Equal(t, format.LangChinese, res.Header.Language)
	require.Equal(t, uint32(2), res.Header.Version)
	require.Equal(t, 2, res.Table.Len(), "inline entry is ordinary when a sidecar is given")

	res, err = Decode([]byte(data))
	require.NoError(t, err)
	require.Equal(t, format.LangItalian, res.Header.Language)
	require.Equal(t, []string{"A"}, res.Table.Labels())
}

func TestDecode_CRLF(t *testing.T) {
	res, err := Decode([]byte("A\r\n\"x\"\r\nEND\r\n\r\nB\r\n\"y\"\r\nEND\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, res.Table.Labels())
	v, _ := res.Table.Lookup("B")
	require.Equal(t, "y", v.Text)
}

func TestDecode_StrictErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		line int
	}{
		{"not multiple of four", "A\n\"x\"\nEND\n", 1},
		{"second entry short", "A\n\"x\"\nEND\n\nB\n\"y\"\n", 5},
		{"missing END", "A\n\"x\"\nEDN\n\n", 3},
		{"separator not empty", "A\n\"x\"\nEND\nB\n", 4},
		{"empty label", "\n\"x\"\nEND\n\n", 1},
		{"unquoted", "A\nx\nEND\n\n", 2},
		{"open quote", "A\n\"x\nEND\n\n", 2},
		{"bare quote inside", "A\n\"a\"b\"\nEND\n\n", 2},
		{"bad escape", "A\n\"50\\% off\"\nEND\n\n", 2},
		{"escaped closing quote", "A\n\"x\\\"\nEND\n\n", 2},
		{"invalid utf8", "A\n\"x\"\nEND\n\nB\n\"\xff\"\nEND\n\n", 6},
		{"blank line between entries", "A\n\"x\"\nEND\n\n\nB\n\"y\"\nEND\n\n", 5},
		{"bad inline metadata", "CSFSTUFF:META\n\"{nope\"\nEND\n\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			requireSTRError(t, err, tt.line)
		})
	}
}

func TestDecode_InlineMetadataError(t *testing.T) {
	_, err := Decode([]byte("CSFSTUFF:META\n\"{\\\"unused\\\":-1}\"\nEND\n\n"))
	require.ErrorIs(t, err, errs.ErrInvalidMetadata)
	require.ErrorIs(t, err, errs.ErrFormat)
}

func TestDecode_Lenient(t *testing.T) {
	// Files from csf2str and hand edits: metadata JSON unescaped inside the
	// quotes, blank lines before entries and no final separator.
	data := "\uFEFFCSFSTUFF:META\n" +
		`"{"lang_code":1,"unused":7}"` + "\n" +
		"END\n" +
		"\n\n" +
		"TXT_A\n" +
		`"C:\path "quoted" 50\% off\n"` + "\n" +
		"END\n" +
		"\n" +
		"TXT_B\n" +
		"no quotes\n" +
		"END"

	_, err := Decode([]byte(data))
	require.Error(t, err, "strict mode rejects this file")

	res, err := Decode([]byte(data), WithLenient())
	require.NoError(t, err)
	require.False(t, res.MetadataDefaulted)
	require.Equal(t, format.LangEnUK, res.Header.Language)
	require.Equal(t, uint32(7), res.Header.Reserved)
	require.Equal(t, []string{"TXT_A", "TXT_B"}, res.Table.Labels())

	v, _ := res.Table.Lookup("TXT_A")
	require.Equal(t, "C:\\path \"quoted\" 50\\% off\n", v.Text)
	v, _ = res.Table.Lookup("TXT_B")
	require.Equal(t, "no quotes", v.Text)
}

func TestDecode_LenientErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		line int
	}{
		{"label only", "\n\nA\n", 4},
		{"missing END", "A\n\"x\"\n\nB\n", 3},
		{"wrong END", "A\n\"x\"\nFIN\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), WithLenient())
			requireSTRError(t, err, tt.line)
		})
	}
}

func TestDecode_ExtraSidecar(t *testing.T) {
	body := "A\n\"a\"\nEND\n\nB\n\"b\"\nEND\n\nA\n\"again\"\nEND\n\n"

	t.Run("attached to every matching label", func(t *testing.T) {
		x := sidecar.NewExtraData(format.CompressionNone)
		x.Set("A", []byte("pa"))

		res, err := Decode([]byte(body), WithExtraData(x))
		require.NoError(t, err)
		require.Equal(t, []byte("pa"), res.Table.At(0).Value.Extra)
		require.False(t, res.Table.At(1).Value.HasExtra())
		require.Equal(t, []byte("pa"), res.Table.At(2).Value.Extra)
	})

	t.Run("label absent from text", func(t *testing.T) {
		x := sidecar.NewExtraData(format.CompressionNone)
		x.Set("A", []byte("pa"))
		x.Set("Z", []byte("pz"))

		_, err := Decode([]byte(body), WithExtraData(x))
		var sm *errs.SidecarMismatchError
		require.True(t, errors.As(err, &sm))
		require.Equal(t, "Z", sm.Label)
	})

	t.Run("declared payloads without sidecar", func(t *testing.T) {
		_, err := Decode([]byte(body), WithMetadata(sidecar.Metadata{Version: 3, ExtraCount: 1}))
		require.ErrorIs(t, err, errs.ErrSidecarMismatch)
	})

	t.Run("declared count differs", func(t *testing.T) {
		x := sidecar.NewExtraData(format.CompressionNone)
		x.Set("A", []byte("pa"))

		_, err := Decode([]byte(body), WithExtraData(x), WithMetadata(sidecar.Metadata{Version: 3, ExtraCount: 2}))
		require.ErrorIs(t, err, errs.ErrSidecarMismatch)
	})

	t.Run("legacy metadata without count", func(t *testing.T) {
		x := sidecar.NewExtraData(format.CompressionNone)
		x.Set("B", []byte("pb"))

		res, err := Decode([]byte(body), WithExtraData(x), WithMetadata(sidecar.DefaultMetadata()))
		require.NoError(t, err)
		require.Equal(t, 1, res.Table.ExtraCount())
	})
}

func TestParseMetadataMode(t *testing.T) {
	m, err := ParseMetadataMode("")
	require.NoError(t, err)
	require.Equal(t, MetadataInline, m)

	m, err = ParseMetadataMode("Sidecar")
	require.NoError(t, err)
	require.Equal(t, MetadataSidecar, m)

	_, err = ParseMetadataMode("file")
	require.Error(t, err)

	var mm MetadataMode
	require.NoError(t, mm.UnmarshalText([]byte("sidecar")))
	require.Equal(t, MetadataSidecar, mm)
}
