package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// PayloadKind tags the shape an import source was resolved to
type PayloadKind int

const (
	PayloadEmpty PayloadKind = iota
	PayloadDelimited
	PayloadJSONArray
	PayloadJSONWrapped
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadDelimited:
		return "delimited"
	case PayloadJSONArray:
		return "json-array"
	case PayloadJSONWrapped:
		return "json-wrapped"
	default:
		return "empty"
	}
}

// SourcePayload is an import source resolved to one concrete shape.
// Field names the wrapping property for PayloadJSONWrapped ("cars" or "data").
type SourcePayload struct {
	Kind    PayloadKind
	Field   string
	Records []RawRecord
}

// RawRecord is one source row or item before normalization. Keys are
// canonicalized with canonicalKey.
type RawRecord struct {
	Line   int
	Fields map[string]string
}

// lookup returns the first non-blank value among names
func (r RawRecord) lookup(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := r.Fields[canonicalKey(name)]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// canonicalKey lowercases a field name and drops separators so that
// "fuel_type", "fuelType" and "Fuel Type" compare equal
func canonicalKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			continue
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// DecodeDelimited reads a CSV stream whose first row is a header
func DecodeDelimited(r io.Reader) (SourcePayload, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return SourcePayload{Kind: PayloadEmpty}, nil
	}
	if err != nil {
		return SourcePayload{}, fmt.Errorf("failed to read header: %w", err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		keys[i] = canonicalKey(h)
	}

	payload := SourcePayload{Kind: PayloadDelimited}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return SourcePayload{}, fmt.Errorf("failed to read row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		fields := make(map[string]string, len(keys))
		for i, key := range keys {
			if i < len(row) && key != "" {
				fields[key] = row[i]
			}
		}
		payload.Records = append(payload.Records, RawRecord{Line: line, Fields: fields})
	}

	return payload, nil
}

// DecodeJSON reads a JSON document that is either an array of car objects
// or an object carrying such an array under "cars" or "data". Any other
// shape resolves to an empty payload.
func DecodeJSON(r io.Reader) (SourcePayload, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var doc any
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return SourcePayload{Kind: PayloadEmpty}, nil
		}
		return SourcePayload{}, fmt.Errorf("failed to decode JSON: %w", err)
	}

	return resolveJSON(doc), nil
}

func resolveJSON(doc any) SourcePayload {
	switch v := doc.(type) {
	case []any:
		return SourcePayload{Kind: PayloadJSONArray, Records: jsonItems(v)}
	case map[string]any:
		for _, field := range []string{"cars", "data"} {
			if items, ok := v[field].([]any); ok {
				return SourcePayload{Kind: PayloadJSONWrapped, Field: field, Records: jsonItems(items)}
			}
		}
	}
	return SourcePayload{Kind: PayloadEmpty}
}

func jsonItems(items []any) []RawRecord {
	records := make([]RawRecord, 0, len(items))
	for i, item := range items {
		rec := RawRecord{Line: i + 1, Fields: map[string]string{}}

		// Non-object items keep an empty field set and are rejected downstream.
		// Keys are visited in sorted order and the first spelling of a
		// canonical name wins, so "fuelType" beats "fuel_type".
		if obj, ok := item.(map[string]any); ok {
			for _, k := range slices.Sorted(maps.Keys(obj)) {
				key := canonicalKey(k)
				if _, seen := rec.Fields[key]; seen {
					continue
				}
				if s, ok := scalarString(obj[k]); ok {
					rec.Fields[key] = s
				}
			}
		}
		records = append(records, rec)
	}
	return records
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}
