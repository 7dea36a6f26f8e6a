package core

import (
	"fmt"
	"strings"
)

// TimeOption controls how Parallel treats optional requestors once the
// necessities have resolved or the time limit is reached.
type TimeOption int

const (
	// TimeOptionUnset selects the default for the given requestor lists.
	TimeOptionUnset TimeOption = iota

	// SkipOptionalsIfTimeRemains finishes as soon as every necessity has
	// finished, cancelling optionals still pending.
	SkipOptionalsIfTimeRemains

	// TryOptionalsIfTimeRemains waits for the optionals as well, bounded by
	// the time limit.
	TryOptionalsIfTimeRemains

	// RequireNecessities puts no deadline on the necessities. The time limit
	// only ends the optionals.
	RequireNecessities
)

var timeOptionNames = map[TimeOption]string{
	TimeOptionUnset:            "UNSET",
	SkipOptionalsIfTimeRemains: "SKIP_OPTIONALS_IF_TIME_REMAINS",
	TryOptionalsIfTimeRemains:  "TRY_OPTIONALS_IF_TIME_REMAINS",
	RequireNecessities:         "REQUIRE_NECESSITIES",
}

func (o TimeOption) String() string {
	if name, ok := timeOptionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("TimeOption(%d)", int(o))
}

// IsValid reports whether o is one of the declared options.
func (o TimeOption) IsValid() bool {
	_, ok := timeOptionNames[o]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (o TimeOption) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("invalid time option %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText accepts the option names in any case, with '-' or '_'
// separators. An empty string means TimeOptionUnset.
func (o *TimeOption) UnmarshalText(text []byte) error {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(string(text)), "-", "_"))
	if s == "" {
		*o = TimeOptionUnset
		return nil
	}
	for opt, name := range timeOptionNames {
		if name == s {
			*o = opt
			return nil
		}
	}
	return fmt.Errorf("unknown time option %q", string(text))
}

// resolveTimeOption applies the defaults for the shape of the requestor
// lists: no optionals always skips, no necessities always tries.
func resolveTimeOption(necessities, optionals int, requested TimeOption) TimeOption {
	switch {
	case optionals == 0:
		return SkipOptionalsIfTimeRemains
	case necessities == 0:
		return TryOptionalsIfTimeRemains
	case requested == TimeOptionUnset:
		return SkipOptionalsIfTimeRemains
	default:
		return requested
	}
}
