package dataset

import (
	"regexp"
	"strings"

	"duck-adapter/internal/domain"
)

type typeRule struct {
	re  *regexp.Regexp
	typ domain.GenericType
}

// typeRules is evaluated in order; the first match wins.
var typeRules = []typeRule{
	{regexp.MustCompile(`(?i)^(u?(tiny|small|big|huge)?int(eger)?|int[1248]|long|short|signed)$`), domain.TypeInteger},
	{regexp.MustCompile(`(?i)^(n?(var)?char|bpchar|character( varying)?|text|string|clob)(\(\d+\))?$`), domain.TypeString},
	{regexp.MustCompile(`(?i)^date$`), domain.TypeDate},
	{regexp.MustCompile(`(?i)^(datetime|timestamp(_s|_ms|_ns)?(\(\d\))?( with(out)? time zone)?|timestamptz)$`), domain.TypeDatetime},
	{regexp.MustCompile(`(?i)^(time( with(out)? time zone)?|timetz)$`), domain.TypeTime},
	{regexp.MustCompile(`(?i)^(bool(ean)?|logical)$`), domain.TypeBoolean},
	{regexp.MustCompile(`(?i)^(real|float[48]?|double( precision)?)$`), domain.TypeFloat},
	{regexp.MustCompile(`(?i)^interval$`), domain.TypeInterval},
	{regexp.MustCompile(`(?i)^(blob|bytea|(var)?binary)$`), domain.TypeBlob},
	{regexp.MustCompile(`(?i)^uuid$`), domain.TypeUUID},
}

// decimalRe captures the scale of a DECIMAL/NUMERIC type.
var decimalRe = regexp.MustCompile(`(?i)^(decimal|numeric)(\(\s*\d+\s*(,\s*(\d+)\s*)?\))?$`)

// GenericTypeOf maps an engine type name to its generic type. A decimal with
// an explicit zero scale is an integer. Unrecognized names map to TypeUnknown.
func GenericTypeOf(dbType string) domain.GenericType {
	t := strings.TrimSpace(dbType)
	for _, r := range typeRules {
		if r.re.MatchString(t) {
			return r.typ
		}
	}
	if m := decimalRe.FindStringSubmatch(t); m != nil {
		if m[4] == "0" {
			return domain.TypeInteger
		}
		return domain.TypeDecimal
	}
	return domain.TypeUnknown
}
