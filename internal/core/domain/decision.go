package domain

import "strings"

// FilterMode describes which entity filters the optimizer extracted.
type FilterMode int

// Filter modes.
const (
	// FilterNone means no entity was named.
	FilterNone FilterMode = iota

	// FilterAll means the user asked about every project.
	FilterAll

	// FilterNames means one or more entities were named.
	FilterNames
)

// EntityFilters is the optimizer's set of named entities: none, ALL, or names.
type EntityFilters struct {
	Mode  FilterMode
	Names []string
}

// NoFilters returns the empty filter set.
func NoFilters() EntityFilters {
	return EntityFilters{Mode: FilterNone}
}

// AllFilters returns the ALL filter set.
func AllFilters() EntityFilters {
	return EntityFilters{Mode: FilterAll}
}

// NamedFilters returns a filter set of the given names. Blank names are
// dropped; an empty result is FilterNone.
func NamedFilters(names ...string) EntityFilters {
	var kept []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return NoFilters()
	}
	return EntityFilters{Mode: FilterNames, Names: kept}
}

// String renders the filter set the way the optimizer grammar writes it.
func (f EntityFilters) String() string {
	switch f.Mode {
	case FilterAll:
		return "ALL"
	case FilterNames:
		return strings.Join(f.Names, ", ")
	default:
		return "NONE"
	}
}

// OptimizerDecision is the request-scoped retrieval plan.
type OptimizerDecision struct {
	// OptimizedQuery is the retrieval query; defaults to the raw query.
	OptimizedQuery string

	// NeedsContext gates retrieval entirely.
	NeedsContext bool

	// NeedsImage requests screenshot augmentation.
	NeedsImage bool

	// EntityFilters are the entities named by the user.
	EntityFilters EntityFilters

	// RawQuery is the user's original text.
	RawQuery string
}

// DefaultDecision is the fail-open plan used when the optimizer call fails
// or its output carries none of the recognised fields.
func DefaultDecision(rawQuery string) OptimizerDecision {
	return OptimizerDecision{
		OptimizedQuery: rawQuery,
		NeedsContext:   true,
		NeedsImage:     false,
		EntityFilters:  NoFilters(),
		RawQuery:       rawQuery,
	}
}
