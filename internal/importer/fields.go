package importer

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"carcat/internal/catalog"
)

// Defaults applied when a source omits or garbles an optional field
const (
	DefaultCylinders      = 4
	DefaultDisplacement   = 2.0
	DefaultCityMPG        = 25
	DefaultHighwayMPG     = 30
	DefaultCombinationMPG = 27
)

type parseFunc func(raw string) (any, error)

// fieldSpec declares how one record field is read from a source.
// Required fields that are missing or fail to parse reject the record;
// optional ones fall back to fallback(record).
type fieldSpec struct {
	name     string
	aliases  []string
	required bool
	parse    parseFunc
	fallback func(r *catalog.Record, env normalizeEnv) any
	assign   func(r *catalog.Record, v any)
}

// normalizeEnv carries what fallbacks need beyond the record itself
type normalizeEnv struct {
	now    time.Time
	suffix func() string
}

// fieldSpecs is ordered: fallbacks may read fields assigned earlier
var fieldSpecs = []fieldSpec{
	{
		name:     "make",
		aliases:  []string{"manufacturer", "brand"},
		required: true,
		parse:    parseText,
		assign:   func(r *catalog.Record, v any) { r.Make = v.(string) },
	},
	{
		name:     "model",
		required: true,
		parse:    parseText,
		assign:   func(r *catalog.Record, v any) { r.Model = v.(string) },
	},
	{
		name:     "year",
		aliases:  []string{"modelYear"},
		required: true,
		parse:    parseWholeNumber,
		assign:   func(r *catalog.Record, v any) { r.Year = v.(int) },
	},
	{
		name:     "price",
		aliases:  []string{"msrp"},
		required: true,
		parse:    parsePrice,
		assign:   func(r *catalog.Record, v any) { r.Price = v.(float64) },
	},
	{
		name:     "fuelType",
		aliases:  []string{"fuel"},
		parse:    func(raw string) (any, error) { return NormalizeFuelType(raw), nil },
		fallback: constant(catalog.FuelGas),
		assign:   func(r *catalog.Record, v any) { r.FuelType = v.(catalog.FuelType) },
	},
	{
		name:     "transmission",
		aliases:  []string{"gearbox"},
		parse:    func(raw string) (any, error) { return NormalizeTransmission(raw), nil },
		fallback: constant(catalog.TransmissionAutomatic),
		assign:   func(r *catalog.Record, v any) { r.Transmission = v.(catalog.Transmission) },
	},
	{
		name:     "cylinders",
		parse:    parseWholeNumber,
		fallback: constant(DefaultCylinders),
		assign:   func(r *catalog.Record, v any) { r.Cylinders = v.(int) },
	},
	{
		name:     "displacement",
		parse:    parseDecimal,
		fallback: constant(DefaultDisplacement),
		assign:   func(r *catalog.Record, v any) { r.Displacement = v.(float64) },
	},
	{
		name:     "cityMpg",
		parse:    parseRoundedNumber,
		fallback: constant(DefaultCityMPG),
		assign:   func(r *catalog.Record, v any) { r.CityMPG = v.(int) },
	},
	{
		name:     "highwayMpg",
		parse:    parseRoundedNumber,
		fallback: constant(DefaultHighwayMPG),
		assign:   func(r *catalog.Record, v any) { r.HighwayMPG = v.(int) },
	},
	{
		name:     "combinationMpg",
		aliases:  []string{"combinedMpg"},
		parse:    parseRoundedNumber,
		fallback: constant(DefaultCombinationMPG),
		assign:   func(r *catalog.Record, v any) { r.CombinationMPG = v.(int) },
	},
	{
		name:  "description",
		parse: parseText,
		fallback: func(r *catalog.Record, _ normalizeEnv) any {
			return fmt.Sprintf("%d %s %s", r.Year, r.Make, r.Model)
		},
		assign: func(r *catalog.Record, v any) { r.Description = v.(string) },
	},
	{
		name:    "imageUrl",
		aliases: []string{"image"},
		parse:   parseText,
		fallback: func(r *catalog.Record, _ normalizeEnv) any {
			return "https://placehold.co/600x400?text=" + url.QueryEscape(r.Make+" "+r.Model)
		},
		assign: func(r *catalog.Record, v any) { r.ImageURL = v.(string) },
	},
	{
		name:     "isAvailable",
		aliases:  []string{"available"},
		parse:    parseFlag,
		fallback: constant(true),
		assign:   func(r *catalog.Record, v any) { r.IsAvailable = v.(bool) },
	},
	{
		name:     "externalId",
		aliases:  []string{"naturalKey"},
		parse:    parseText,
		fallback: synthesizeKey,
		assign:   func(r *catalog.Record, v any) { r.NaturalKey = v.(string) },
	},
}

func (f fieldSpec) names() []string {
	return append([]string{f.name}, f.aliases...)
}

// normalize applies fieldSpecs to a raw record. It fails only when a
// required field is missing or unparseable.
func normalize(raw RawRecord, env normalizeEnv) (*catalog.Record, error) {
	record := &catalog.Record{}

	for _, field := range fieldSpecs {
		value, found := raw.lookup(field.names()...)

		var (
			parsed any
			err    error
		)
		if found {
			parsed, err = field.parse(value)
		}

		switch {
		case found && err == nil:
			field.assign(record, parsed)
		case field.required && !found:
			return nil, fmt.Errorf("missing required field %q", field.name)
		case field.required:
			return nil, fmt.Errorf("field %q: %w", field.name, err)
		default:
			field.assign(record, field.fallback(record, env))
		}
	}

	return record, nil
}

func constant(v any) func(*catalog.Record, normalizeEnv) any {
	return func(*catalog.Record, normalizeEnv) any { return v }
}

// synthesizeKey builds a natural key for sources that carry none. The
// timestamp and random suffix make every call unique, so re-importing the
// same keyless row creates a new catalog entry.
func synthesizeKey(r *catalog.Record, env normalizeEnv) any {
	return fmt.Sprintf("%s-%s-%d-%s", slug(r.Make), slug(r.Model), env.now.UnixMilli(), env.suffix())
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range cases.Fold().String(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// fold normalizes enum input for comparison
func fold(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

var fuelAliases = map[string]catalog.FuelType{
	"gas":              catalog.FuelGas,
	"gasoline":         catalog.FuelGas,
	"petrol":           catalog.FuelGas,
	"regular":          catalog.FuelGas,
	"premium":          catalog.FuelGas,
	"unleaded":         catalog.FuelGas,
	"diesel":           catalog.FuelDiesel,
	"electricity":      catalog.FuelElectricity,
	"electric":         catalog.FuelElectricity,
	"electric vehicle": catalog.FuelElectricity,
	"ev":               catalog.FuelElectricity,
	"bev":              catalog.FuelElectricity,
	"hybrid":           catalog.FuelHybrid,
	"hev":              catalog.FuelHybrid,
	"phev":             catalog.FuelHybrid,
	"plug-in hybrid":   catalog.FuelHybrid,
}

// NormalizeFuelType maps free-form fuel descriptions onto FuelType.
// Unrecognized values become FuelGas.
func NormalizeFuelType(raw string) catalog.FuelType {
	key := fold(raw)
	if fuel, ok := fuelAliases[key]; ok {
		return fuel
	}

	switch {
	case strings.Contains(key, "hybrid"):
		return catalog.FuelHybrid
	case strings.Contains(key, "electric"):
		return catalog.FuelElectricity
	case strings.Contains(key, "diesel"):
		return catalog.FuelDiesel
	default:
		return catalog.FuelGas
	}
}

var transmissionAliases = map[string]catalog.Transmission{
	"automatic": catalog.TransmissionAutomatic,
	"auto":      catalog.TransmissionAutomatic,
	"a":         catalog.TransmissionAutomatic,
	"cvt":       catalog.TransmissionAutomatic,
	"manual":    catalog.TransmissionManual,
	"m":         catalog.TransmissionManual,
	"stick":     catalog.TransmissionManual,
	"standard":  catalog.TransmissionManual,
}

// NormalizeTransmission maps free-form transmission descriptions onto
// Transmission. Unrecognized values become TransmissionAutomatic.
func NormalizeTransmission(raw string) catalog.Transmission {
	key := fold(raw)
	if t, ok := transmissionAliases[key]; ok {
		return t
	}

	if strings.Contains(key, "manual") && !strings.Contains(key, "automat") {
		return catalog.TransmissionManual
	}
	return catalog.TransmissionAutomatic
}

func parseText(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("empty value")
	}
	return s, nil
}

func parseNumber(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", raw)
	}
	return f, nil
}

// maxWholeNumber bounds integer fields; anything larger is treated as garbage
const maxWholeNumber = math.MaxInt32

// parseIntRange parses a number destined for an int field
func parseIntRange(raw string) (float64, error) {
	f, err := parseNumber(raw)
	if err != nil {
		return 0, err
	}
	if math.Abs(f) > maxWholeNumber {
		return 0, fmt.Errorf("number out of range: %q", raw)
	}
	return f, nil
}

func parseDecimal(raw string) (any, error) {
	return parseNumber(raw)
}

// parseWholeNumber accepts "2020" and "2020.0" but not "2020.5"
func parseWholeNumber(raw string) (any, error) {
	f, err := parseIntRange(raw)
	if err != nil {
		return nil, err
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("not a whole number: %q", raw)
	}
	return int(f), nil
}

func parseRoundedNumber(raw string) (any, error) {
	f, err := parseIntRange(raw)
	if err != nil {
		return nil, err
	}
	return int(math.Round(f)), nil
}

// parsePrice tolerates currency symbols and thousands separators
func parsePrice(raw string) (any, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	return parseNumber(cleaned)
}

func parseFlag(raw string) (any, error) {
	switch fold(raw) {
	case "true", "yes", "y", "1", "available":
		return true, nil
	case "false", "no", "n", "0", "sold", "unavailable":
		return false, nil
	}
	return nil, fmt.Errorf("not a boolean: %q", raw)
}
