package csfkit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/csfkit/csf"
	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/format"
	"github.com/arloliu/csfkit/section"
	"github.com/arloliu/csfkit/str"
	"github.com/arloliu/csfkit/table"
)

func buildCSF(t *testing.T, reserved uint32, entries ...table.Entry) []byte {
	t.Helper()

	h := section.NewHeader(section.DefaultVersion, format.LangGerman)
	h.Reserved = reserved
	data, err := csf.Encode(h, table.New(entries...))
	require.NoError(t, err)

	return data
}

func sampleCSF(t *testing.T) []byte {
	t.Helper()

	return buildCSF(t, 0x1234,
		table.Entry{Label: "GUI:Ok", Value: table.Value{Text: "OK"}},
		table.Entry{Label: "Name:E1", Value: table.Value{Text: "GI", Extra: []byte("gi.wav")}},
		table.Entry{Label: "TXT_Quote", Value: table.Value{Text: "\"Kirov\"\nreporting"}},
		table.Entry{Label: "GUI:Ok", Value: table.Value{Text: "dup"}},
	)
}

func valueLines(b Bundle) []string {
	lines := strings.Split(string(b.Text), "\n")
	var out []string
	for i := 1; i < len(lines); i += 4 {
		out = append(out, lines[i])
	}

	return out
}

func TestToSTR_ToCSF_RoundTrip(t *testing.T) {
	data := sampleCSF(t)

	variants := map[string][]Option{
		"defaults":     nil,
		"sidecar meta": {WithMetadataMode(str.MetadataSidecar)},
		"zstd extra":   {WithExtraCompression(format.CompressionZstd)},
		"xz sidecar":   {WithMetadataMode(str.MetadataSidecar), WithExtraCompression(format.CompressionXZ)},
	}

	for name, opts := range variants {
		t.Run(name, func(t *testing.T) {
			b, err := ToSTR(data, opts...)
			require.NoError(t, err)
			require.NotNil(t, b.Extra)

			res, err := ToCSF(b)
			require.NoError(t, err)
			require.Equal(t, data, res.Data)
			require.True(t, res.MatchesSource())
			require.False(t, res.MetadataDefaulted)
			require.Equal(t, 4, res.Entries)
		})
	}
}

func TestToSTR_ToCSF_OddStringCount(t *testing.T) {
	data := buildCSF(t, 0,
		table.Entry{Label: "A", Value: table.Value{Text: "a"}},
		table.Entry{Label: "B", Value: table.Value{Text: "b"}},
	)
	// Some tools write a string count that does not match the label count.
	data[12] = 5

	for _, mode := range []str.MetadataMode{str.MetadataInline, str.MetadataSidecar} {
		t.Run(mode.String(), func(t *testing.T) {
			b, err := ToSTR(data, WithMetadataMode(mode))
			require.NoError(t, err)

			res, err := ToCSF(b)
			require.NoError(t, err)
			require.Equal(t, data, res.Data)
			require.True(t, res.MatchesSource())
		})
	}

	s, err := Inspect(data)
	require.NoError(t, err)
	require.Equal(t, uint32(2), s.Header.LabelCount)
	require.Equal(t, uint32(5), s.Header.StringCount)
}

func TestToSTRWithSummary(t *testing.T) {
	data := sampleCSF(t)

	b, s, err := ToSTRWithSummary(data)
	require.NoError(t, err)
	require.Equal(t, 4, s.Entries)
	require.Equal(t, []string{"GUI:Ok"}, s.Duplicates)
	require.False(t, s.HashCollision)

	plain, err := ToSTR(data)
	require.NoError(t, err)
	require.Equal(t, plain, b)

	inspected, err := Inspect(data)
	require.NoError(t, err)
	require.Equal(t, inspected, s)
}

func TestToSTR_NoExtra(t *testing.T) {
	data := buildCSF(t, 0, table.Entry{Label: "A", Value: table.Value{Text: "a"}})

	b, err := ToSTR(data)
	require.NoError(t, err)
	require.Nil(t, b.Extra, "extra-data sidecar is omitted without payloads")
	require.Nil(t, b.Metadata)
}

func TestToCSF_MissingExtraSidecar(t *testing.T) {
	b, err := ToSTR(sampleCSF(t))
	require.NoError(t, err)

	b.Extra = nil
	_, err = ToCSF(b)
	require.ErrorIs(t, err, errs.ErrSidecarMismatch)
}

func TestToCSF_LegacyText(t *testing.T) {
	legacy := Bundle{Text: []byte("A\n\"x\"\nEND\n\nB\n\"y\"\nEND")}

	_, err := ToCSF(legacy)
	require.ErrorIs(t, err, errs.ErrFormat)

	res, err := ToCSF(legacy, WithLenient())
	require.NoError(t, err)
	require.True(t, res.MetadataDefaulted)
	require.False(t, res.MatchesSource())
	require.Equal(t, 2, res.Entries)
}

func TestToSTR_BadInput(t *testing.T) {
	_, err := ToSTR([]byte(" FSC"))
	require.ErrorIs(t, err, errs.ErrFormat)
}

func strBundle(t *testing.T, kv ...string) Bundle {
	t.Helper()

	b := table.NewBuilder(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		b.Add(kv[i], table.Value{Text: kv[i+1]})
	}
	out, err := str.Encode(section.NewHeader(3, format.LangEnUS), b.Build())
	require.NoError(t, err)

	return Bundle{Text: out.Text}
}

func TestMerge(t *testing.T) {
	a := strBundle(t,
		"TXT_OVERWRITE", "This will be overwritten",
		"TXT_STAY", "This will stay as is.",
		"TXT_OTHER", "Other",
	)
	b := strBundle(t,
		"TXT_OVERWRITE", "Overwritten",
		"NAME:TANYA", "Cyborg Ninja Pirate Mecha Death Tanya, this is a new entry created by the merge",
	)
	c := strBundle(t,
		"NAME:CYBORG", "Nod Cyborg Commando, newly created by another merge",
		"TXT_STAY", "This will stay as is.",
	)

	t.Run("a then b", func(t *testing.T) {
		got, err := Merge([]Bundle{a, b})
		require.NoError(t, err)
		require.Equal(t, 4, got.Entries)

		v := valueLines(got.Bundle)
		require.Equal(t, `"Overwritten"`, v[1])
		require.Equal(t, `"This will stay as is."`, v[2])
		require.Equal(t, `"Cyborg Ninja Pirate Mecha Death Tanya, this is a new entry created by the merge"`, v[4])
	})

	t.Run("b then a", func(t *testing.T) {
		got, err := Merge([]Bundle{b, a})
		require.NoError(t, err)

		v := valueLines(got.Bundle)
		require.Equal(t, `"This will be overwritten"`, v[1])
		require.Equal(t, `"Cyborg Ninja Pirate Mecha Death Tanya, this is a new entry created by the merge"`, v[2])
	})

	t.Run("three inputs", func(t *testing.T) {
		got, err := Merge([]Bundle{a, b, c})
		require.NoError(t, err)

		v := valueLines(got.Bundle)
		require.Equal(t, `"Overwritten"`, v[1])
		require.Equal(t, `"This will stay as is."`, v[2])
		require.Equal(t, `"Cyborg Ninja Pirate Mecha Death Tanya, this is a new entry created by the merge"`, v[4])
		require.Equal(t, `"Nod Cyborg Commando, newly created by another merge"`, v[5])
	})

	t.Run("fold associativity", func(t *testing.T) {
		ab, err := Merge([]Bundle{a, b})
		require.NoError(t, err)
		stepwise, err := Merge([]Bundle{ab.Bundle, c})
		require.NoError(t, err)
		direct, err := Merge([]Bundle{a, b, c})
		require.NoError(t, err)

		require.Equal(t, string(direct.Text), string(stepwise.Text))
	})

	t.Run("single input", func(t *testing.T) {
		_, err := Merge([]Bundle{a})
		require.ErrorIs(t, err, errs.ErrMergeInput)
	})

	t.Run("bad input names its position", func(t *testing.T) {
		_, err := Merge([]Bundle{a, {Text: []byte("broken\n")}})
		require.ErrorIs(t, err, errs.ErrFormat)
		require.Contains(t, err.Error(), "merge input 1")
	})

	t.Run("defaulted metadata is reported", func(t *testing.T) {
		bare := Bundle{Text: []byte("X\n\"x\"\nEND\n\n")}
		got, err := Merge([]Bundle{a, bare})
		require.NoError(t, err)
		require.Equal(t, []int{1}, got.DefaultedInputs)
	})
}

func TestMerge_ExtraPayloads(t *testing.T) {
	base, err := ToSTR(buildCSF(t, 0,
		table.Entry{Label: "GUI:Ok", Value: table.Value{Text: "OK"}},
		table.Entry{Label: "Name:E1", Value: table.Value{Text: "GI", Extra: []byte("gi.wav")}},
	))
	require.NoError(t, err)
	overlay := strBundle(t, "Name:E1", "Rifleman", "Name:E2", "Rocketeer")

	got, err := Merge([]Bundle{base, overlay})
	require.NoError(t, err)
	require.NotNil(t, got.Extra)

	res, err := ToCSF(got.Bundle)
	require.NoError(t, err)

	_, tb, err := csf.Decode(res.Data)
	require.NoError(t, err)
	v, ok := tb.Lookup("Name:E1")
	require.True(t, ok)
	require.Equal(t, "Rifleman", v.Text)
	require.Equal(t, []byte("gi.wav"), v.Extra)
}

func TestMerge_DuplicateLabelInput(t *testing.T) {
	withDup, err := ToSTR(sampleCSF(t))
	require.NoError(t, err)

	_, err = Merge([]Bundle{strBundle(t, "A", "a"), withDup})
	require.ErrorIs(t, err, errs.ErrMergeInput)
}

func TestVerify(t *testing.T) {
	res, err := Verify(sampleCSF(t))
	require.NoError(t, err)
	require.True(t, res.Match())
	require.Equal(t, 4, res.Entries)
	require.Equal(t, 1, res.ExtraPayloads)

	_, err = Verify([]byte("garbage"))
	require.ErrorIs(t, err, errs.ErrFormat)
}

func TestInspect(t *testing.T) {
	data := sampleCSF(t)

	s, err := Inspect(data)
	require.NoError(t, err)
	require.Equal(t, format.LangGerman, s.Header.Language)
	require.Equal(t, uint32(0x1234), s.Header.Reserved)
	require.Equal(t, 4, s.Entries)
	require.Equal(t, 3, s.Distinct)
	require.Equal(t, 1, s.ExtraPayloads)
	require.Equal(t, []string{"GUI:Ok"}, s.Duplicates)
	require.Len(t, s.Digest, 64)

	again, err := Inspect(data)
	require.NoError(t, err)
	require.Equal(t, s.Fingerprint, again.Fingerprint)
}

func TestFingerprint(t *testing.T) {
	plain := table.New(table.Entry{Label: "A", Value: table.Value{Text: "x"}})
	empty := table.New(table.Entry{Label: "A", Value: table.Value{Text: "x", Extra: []byte{}}})
	swapped := table.New(table.Entry{Label: "Ax", Value: table.Value{Text: ""}})

	require.NotEqual(t, Fingerprint(plain), Fingerprint(empty))
	require.NotEqual(t, Fingerprint(plain), Fingerprint(swapped))
	require.Equal(t, Fingerprint(plain), Fingerprint(table.New(plain.At(0))))
}
