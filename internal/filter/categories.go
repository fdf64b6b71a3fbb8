package filter

import "slices"

type Dimension string

const (
	DimensionAge      Dimension = "age"
	DimensionLanguage Dimension = "language"
)

// Requested value -> stored values that satisfy it. Broader age brackets
// absorb narrower ones, never the reverse; bilingual listings satisfy
// either language.
var categoryTables = map[Dimension]map[string][]string{
	DimensionAge: {
		"Baby (0-24m)": {"Baby (0-24m)", "Baby (0-18m)", "Baby (0-12m)", "Baby (non-walking)"},
		"Baby (0-18m)": {"Baby (0-18m)", "Baby (0-12m)", "Baby (non-walking)"},
		"Child (0-6y)": {
			"Child (0-6y)", "Child (3-6y)",
			"Baby (0-24m)", "Baby (0-18m)", "Baby (0-12m)", "Baby (non-walking)",
		},
	},
	DimensionLanguage: {
		"English": {"English", "EN/FR"},
		"French":  {"French", "EN/FR"},
	},
}

// Expand returns the stored values accepted for a requested category.
// Values without a table entry only match themselves.
func Expand(dim Dimension, requested string) []string {
	if vs, ok := categoryTables[dim][requested]; ok {
		return slices.Clone(vs)
	}
	return []string{requested}
}

func Accepts(dim Dimension, requested, stored string) bool {
	if vs, ok := categoryTables[dim][requested]; ok {
		return slices.Contains(vs, stored)
	}
	return stored == requested
}

// Criteria translations keyed by client language tag. "fr" has no entries
// yet, so French clients currently send English values.
var translations = map[string]map[string]string{
	"fr": {},
}

func translate(tag, v string) string {
	if t, ok := translations[tag][v]; ok {
		return t
	}
	return v
}
