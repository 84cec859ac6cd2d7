package resolve

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"prefabls/internal/catalog"
)

// Projection is the display-neutral form of a config value.
type Projection struct {
	Kind catalog.ValueKind
	// Text is the single-line rendering.
	Text string
	// List holds list elements and weighted variants in display order.
	List []string
	// Lookup is the environment variable of a provided value.
	Lookup string
}

// Resolved is the value of a config in one environment. A nil Environment is
// the Default row. Inherited entries have no value: the environment has no
// row of its own and falls back to Default when evaluated.
type Resolved struct {
	Environment *catalog.Environment
	Value       *Projection
	Raw         *catalog.ConfigValue
	HasRules    bool
	Inherited   bool
}

// IsDefault reports whether r is the Default row.
func (r Resolved) IsDefault() bool {
	return r.Environment == nil
}

// Resolve projects the rows of entry onto the tracked environments. The
// result holds the Default row, one entry per explicit environment row, and
// an inherited placeholder for every tracked environment without a row.
// Order follows the rows, then the tracked environments.
func Resolve(entry *catalog.ConfigEntry, envs []catalog.Environment) []Resolved {
	if entry == nil {
		return nil
	}
	byID := make(map[string]catalog.Environment, len(envs))
	for _, env := range envs {
		byID[env.ID] = env
	}

	var out []Resolved
	seen := make(map[string]bool)
	defaultSeen := false
	for i := range entry.Rows {
		row := &entry.Rows[i]
		hasRules := row.HasRules()
		if !hasRules && (len(row.Values) == 0 || row.Values[0].Value == nil) {
			continue
		}

		r := Resolved{HasRules: hasRules}
		if !hasRules {
			r.Raw = row.Values[0].Value
			r.Value = Project(r.Raw)
		}
		if row.IsDefault() {
			if defaultSeen {
				continue
			}
			defaultSeen = true
		} else {
			if seen[row.EnvironmentID] {
				continue
			}
			seen[row.EnvironmentID] = true
			env, ok := byID[row.EnvironmentID]
			if !ok {
				env = catalog.Environment{ID: row.EnvironmentID, Name: row.EnvironmentID}
			}
			r.Environment = &env
		}
		out = append(out, r)
	}

	for _, env := range envs {
		if seen[env.ID] {
			continue
		}
		out = append(out, Resolved{Environment: &env, Inherited: true})
	}
	return out
}

// Project renders a single value. Provided values never go through scalar
// dispatch.
func Project(v *catalog.ConfigValue) *Projection {
	kind := v.Kind()
	switch kind {
	case catalog.KindNone:
		return nil
	case catalog.KindProvided:
		return &Projection{
			Kind:   kind,
			Text:   fmt.Sprintf("`%s` via ENV", v.Provided.Lookup),
			Lookup: v.Provided.Lookup,
		}
	case catalog.KindWeighted:
		list := weighted(v.WeightedValues)
		return &Projection{Kind: kind, Text: strings.Join(list, ", "), List: list}
	case catalog.KindStringList:
		list := slices.Clone(v.StringList.Values)
		return &Projection{Kind: kind, Text: strings.Join(list, ", "), List: list}
	default:
		return &Projection{Kind: kind, Text: scalar(v)}
	}
}

func scalar(v *catalog.ConfigValue) string {
	switch v.Kind() {
	case catalog.KindString:
		return *v.String
	case catalog.KindInt:
		return strconv.FormatInt(*v.Int, 10)
	case catalog.KindBool:
		return strconv.FormatBool(*v.Bool)
	case catalog.KindDouble:
		return strconv.FormatFloat(*v.Double, 'g', -1, 64)
	case catalog.KindLogLevel:
		return *v.LogLevel
	default:
		if p := Project(v); p != nil {
			return p.Text
		}
		return ""
	}
}

// weighted renders "<value>: <weight>%" by descending weight, keeping input
// order on ties. Weights are not checked to sum to 100.
func weighted(w *catalog.WeightedValues) []string {
	vals := slices.Clone(w.Values)
	slices.SortStableFunc(vals, func(a, b catalog.WeightedValue) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	out := make([]string, len(vals))
	for i, wv := range vals {
		out[i] = fmt.Sprintf("%s: %d%%", scalar(&wv.Value), wv.Weight)
	}
	return out
}

// Display orders resolved values for rendering: Default first, then by
// environment name.
func Display(values []Resolved) []Resolved {
	out := slices.Clone(values)
	slices.SortStableFunc(out, func(a, b Resolved) int {
		switch {
		case a.IsDefault() && b.IsDefault():
			return 0
		case a.IsDefault():
			return -1
		case b.IsDefault():
			return 1
		}
		return cmp.Compare(a.Environment.Name, b.Environment.Name)
	})
	return out
}
