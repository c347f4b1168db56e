package logstream

import (
	"slices"

	"kernlog/internal/kmsg"
)

// Filters selects which entries a Reader delivers. The zero value matches
// everything. Entries without a priority prefix fail any active filter.
type Filters struct {
	// MinLevel keeps entries at least as severe as Level when set.
	MinLevel    kmsg.Level
	HasMinLevel bool
	Facilities  []kmsg.Facility
}

// ParseFilters builds filters from configuration names. An empty level
// disables the severity filter.
func ParseFilters(level string, facilities []string) (Filters, error) {
	var f Filters
	if level != "" {
		l, err := kmsg.ParseLevel(level)
		if err != nil {
			return Filters{}, err
		}
		f.MinLevel, f.HasMinLevel = l, true
	}
	for _, name := range facilities {
		fac, err := kmsg.ParseFacility(name)
		if err != nil {
			return Filters{}, err
		}
		if !slices.Contains(f.Facilities, fac) {
			f.Facilities = append(f.Facilities, fac)
		}
	}
	return f, nil
}

// Active reports whether any filter is set.
func (f Filters) Active() bool {
	return f.HasMinLevel || len(f.Facilities) > 0
}

// Match reports whether e passes every active filter.
func (f Filters) Match(e kmsg.Entry) bool {
	if !f.Active() {
		return true
	}
	if !e.HasPriority {
		return false
	}
	if f.HasMinLevel && e.Level > f.MinLevel {
		return false
	}
	if len(f.Facilities) > 0 && !slices.Contains(f.Facilities, e.Facility) {
		return false
	}
	return true
}
