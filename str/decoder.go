package str

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arloliu/csfkit/encoding"
	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/internal/options"
	"github.com/arloliu/csfkit/section"
	"github.com/arloliu/csfkit/sidecar"
	"github.com/arloliu/csfkit/table"
)

const utf8BOM = "\uFEFF"

// Result is the outcome of Decode.
type Result struct {
	// Header carries the recovered version, language and reserved field.
	// LabelCount matches Table; StringCount comes from the metadata when it
	// recorded one.
	Header section.Header
	Table  *table.Table
	// Metadata is the metadata the header was built from.
	Metadata sidecar.Metadata
	// MetadataDefaulted reports that neither a metadata sidecar nor an inline
	// metadata entry was found and default values were used.
	MetadataDefaulted bool
}

// rawEntry is one parsed entry before sidecars are applied.
type rawEntry struct {
	label string
	text  string
	line  int // one-based line of the label
}

// Decode parses STR text and applies the sidecars given as options.
//
// Metadata comes from WithMetadata when given, else from an inline
// MetaLabel first entry (which is removed from the table), else from
// sidecar.DefaultMetadata. Payloads from WithExtraData are attached to every
// entry with a matching label.
func Decode(text []byte, opts ...DecodeOption) (*Result, error) {
	cfg := &decodeConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	var entries []rawEntry
	var err error
	if cfg.lenient {
		entries, err = parseLenient(text)
	} else {
		entries, err = parseStrict(text)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{Metadata: sidecar.DefaultMetadata(), MetadataDefaulted: true}
	switch {
	case cfg.metadata != nil:
		res.Metadata = *cfg.metadata
		res.MetadataDefaulted = false
	case len(entries) > 0 && entries[0].label == MetaLabel:
		m, err := sidecar.ParseMetadata([]byte(entries[0].text))
		if err != nil {
			return nil, errs.NewSTRError(0, entries[0].line+1, "inline metadata", err)
		}
		res.Metadata = m
		res.MetadataDefaulted = false
		entries = entries[1:]
	}

	t, err := buildTable(entries, res.Metadata, cfg.extra)
	if err != nil {
		return nil, err
	}

	res.Table = t
	res.Header = res.Metadata.Header(t.Len())

	return res, nil
}

func buildTable(entries []rawEntry, meta sidecar.Metadata, extra *sidecar.ExtraData) (*table.Table, error) {
	if extra == nil && meta.ExtraCount > 0 {
		return nil, &errs.SidecarMismatchError{
			Msg: fmt.Sprintf("metadata declares %d extra payloads but no extra-data sidecar was supplied", meta.ExtraCount),
		}
	}

	b := table.NewBuilder(len(entries))
	present := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		v := table.Value{Text: e.text}
		if extra != nil {
			if p, ok := extra.Get(e.label); ok {
				v.Extra = p
			}
		}
		b.Add(e.label, v)
		present[e.label] = struct{}{}
	}

	if extra == nil {
		return b.Build(), nil
	}

	for _, label := range extra.Labels() {
		if _, ok := present[label]; !ok {
			return nil, &errs.SidecarMismatchError{Label: label, Msg: "extra-data sidecar label is absent from the text"}
		}
	}
	if meta.ExtraCount > 0 && meta.ExtraCount != extra.Len() {
		return nil, &errs.SidecarMismatchError{
			Msg: fmt.Sprintf("metadata declares %d extra payloads, sidecar holds %d", meta.ExtraCount, extra.Len()),
		}
	}

	return b.Build(), nil
}

// splitLines splits text on LF, dropping one trailing line terminator and
// the CR of CRLF endings.
func splitLines(text []byte) []string {
	if len(text) == 0 {
		return nil
	}

	s := strings.TrimSuffix(string(text), "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	return lines
}

func parseStrict(text []byte) ([]rawEntry, error) {
	if off := invalidUTF8At(text); off >= 0 {
		line := strings.Count(string(text[:off]), "\n") + 1
		return nil, errs.NewSTRError(-1, line, "invalid UTF-8", nil)
	}

	lines := splitLines(text)
	entries := make([]rawEntry, 0, len(lines)/4)

	i := 0
	for ; i+3 < len(lines); i += 4 {
		rec := i / 4
		if lines[i] == "" {
			return nil, errs.NewSTRError(rec, i+1, "empty label", nil)
		}

		value, err := parseValue(lines[i+1], false)
		if err != nil {
			return nil, errs.NewSTRError(rec, i+2, "value", err)
		}
		if lines[i+2] != endMarker {
			return nil, errs.NewSTRError(rec, i+3, fmt.Sprintf("expecting %q, got %q", endMarker, lines[i+2]), nil)
		}
		if lines[i+3] != "" {
			return nil, errs.NewSTRError(rec, i+4, fmt.Sprintf("expecting empty separator line, got %q", lines[i+3]), nil)
		}

		entries = append(entries, rawEntry{label: lines[i], text: value, line: i + 1})
	}

	if i < len(lines) {
		return nil, errs.NewSTRError(i/4, i+1,
			fmt.Sprintf("incomplete entry: %d lines is not a multiple of 4", len(lines)), nil)
	}

	return entries, nil
}

func parseLenient(text []byte) ([]rawEntry, error) {
	lines := splitLines(text)
	if len(lines) > 0 {
		lines[0] = strings.TrimPrefix(lines[0], utf8BOM)
	}

	var entries []rawEntry
	for i := 0; i < len(lines); {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}

		rec := len(entries)
		if i+1 >= len(lines) {
			return nil, errs.NewSTRError(rec, i+2, "missing value line", nil)
		}
		if i+2 >= len(lines) || strings.TrimSpace(lines[i+2]) != endMarker {
			return nil, errs.NewSTRError(rec, i+3, fmt.Sprintf("expecting %q", endMarker), nil)
		}

		value, err := parseValue(lines[i+1], true)
		if err != nil {
			return nil, errs.NewSTRError(rec, i+2, "value", err)
		}

		entries = append(entries, rawEntry{label: lines[i], text: value, line: i + 1})
		i += 3
	}

	return entries, nil
}

func parseValue(line string, lenient bool) (string, error) {
	quoted := len(line) >= 2 && line[0] == '"' && line[len(line)-1] == '"'
	if !quoted {
		if lenient {
			return encoding.UnescapeLenient(line)
		}

		return "", errors.New("value must be enclosed in double quotes")
	}

	inner := line[1 : len(line)-1]
	if lenient {
		return encoding.UnescapeLenient(inner)
	}

	return encoding.Unescape(inner)
}

// invalidUTF8At returns the offset of the first invalid UTF-8 byte, or -1.
func invalidUTF8At(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}

	return -1
}
