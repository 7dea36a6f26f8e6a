package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeOption_String(t *testing.T) {
	assert.Equal(t, "SKIP_OPTIONALS_IF_TIME_REMAINS", SkipOptionalsIfTimeRemains.String())
	assert.Equal(t, "TRY_OPTIONALS_IF_TIME_REMAINS", TryOptionalsIfTimeRemains.String())
	assert.Equal(t, "REQUIRE_NECESSITIES", RequireNecessities.String())
	assert.Equal(t, "TimeOption(9)", TimeOption(9).String())
	assert.False(t, TimeOption(9).IsValid())
}

// TestTimeOption_UnmarshalText verifies lenient parsing of option names
// Given: Option names in various spellings
// When: They are unmarshalled
// Then: Case and separators are ignored and unknown names fail
func TestTimeOption_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOption
		wantErr bool
	}{
		{"require_necessities", RequireNecessities, false},
		{"Try-Optionals-If-Time-Remains", TryOptionalsIfTimeRemains, false},
		{"  SKIP_OPTIONALS_IF_TIME_REMAINS ", SkipOptionalsIfTimeRemains, false},
		{"", TimeOptionUnset, false},
		{"whenever", TimeOptionUnset, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got TimeOption
			err := got.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOption_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]TimeOption{"option": RequireNecessities})
	require.NoError(t, err)
	assert.JSONEq(t, `{"option":"REQUIRE_NECESSITIES"}`, string(data))

	_, err = json.Marshal(TimeOption(9))
	assert.Error(t, err)
}

// TestResolveTimeOption verifies the defaults for each list shape
func TestResolveTimeOption(t *testing.T) {
	tests := []struct {
		name                   string
		necessities, optionals int
		requested, want        TimeOption
	}{
		{"no optionals always skips", 2, 0, TryOptionalsIfTimeRemains, SkipOptionalsIfTimeRemains},
		{"no necessities always tries", 0, 2, SkipOptionalsIfTimeRemains, TryOptionalsIfTimeRemains},
		{"unset defaults to skip", 1, 1, TimeOptionUnset, SkipOptionalsIfTimeRemains},
		{"explicit option kept", 1, 1, RequireNecessities, RequireNecessities},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveTimeOption(tt.necessities, tt.optionals, tt.requested))
		})
	}
}
