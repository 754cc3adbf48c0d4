package similarity

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Boston", "Boston", 1},
		{"both empty", "", "", 1},
		{"one empty", "", "abc", 0},
		{"classic", "kitten", "sitting", 0.57},
		{"one substitution in five", "abcde", "abcdx", 0.8},
		{"just under threshold", "abcdefghijklmnopqrs", "abcdefghijklmnowxyz", 0.79},
		{"completely different", "abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ratio(tt.a, tt.b))
			assert.Equal(t, tt.want, Ratio(tt.b, tt.a), "ratio must be symmetric")
		})
	}
}

func TestRatio_CountsRunesNotBytes(t *testing.T) {
	// One substitution over five runes, even though "é" is two bytes.
	assert.Equal(t, 0.8, Ratio("josé!", "jose!"))
}

func TestRatio_InvalidUTF8BytesStayDistinct(t *testing.T) {
	assert.Equal(t, 0.0, Ratio("\xff", "\xfe"))
	assert.Equal(t, 0.75, Ratio("caf\xe9", "caf\xe8"))
	assert.Equal(t, 0.75, Ratio("caf\xe9", "café"))
	assert.Equal(t, 1.0, Ratio("caf\xe9", "caf\xe9"))

	assert.Equal(t, 0.75, FuzzyRatio("CAF\xe9", "caf\xe8"))
	assert.NotEqual(t, Normalize("Caf\xe9"), Normalize("Caf\xe8"))
	assert.Equal(t, "caf"+string(rune(invalidByteBase+0xe9)), Normalize("CAF\xe9"))
}

func TestFuzzyRatio_NormalizesCaseAndWhitespace(t *testing.T) {
	assert.Equal(t, 1.0, FuzzyRatio("  New   York ", "new york"))
	assert.Equal(t, 0.78, FuzzyRatio("Jonathan", "Johnathon"))
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold(" Female", "female "))
	assert.False(t, EqualFold("Female", "Male"))
}

func TestParseCoordinate(t *testing.T) {
	c, err := ParseCoordinate(" 40.7128", "-74.0060 ")
	require.NoError(t, err)
	assert.InDelta(t, 40.7128, c.Lat, 1e-9)
	assert.InDelta(t, -74.006, c.Lng, 1e-9)

	bad := []struct{ lat, lng string }{
		{"", "10"},
		{"10", ""},
		{"north", "10"},
		{"10", "NaN"},
		{"91", "10"},
		{"10", "-180.5"},
	}
	for _, tc := range bad {
		_, err := ParseCoordinate(tc.lat, tc.lng)
		var mfe *MalformedFieldError
		assert.True(t, errors.As(err, &mfe), "lat=%q lng=%q should be malformed, got %v", tc.lat, tc.lng, err)
	}

	_, err = ParseCoordinate("", "1")
	assert.ErrorIs(t, err, ErrMissingCoordinate)

	_, err = ParseCoordinate("x", "1")
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestDistanceKm(t *testing.T) {
	paris := Coordinate{Lat: 48.8566, Lng: 2.3522}
	london := Coordinate{Lat: 51.5074, Lng: -0.1278}

	assert.InDelta(t, 343.5, DistanceKm(paris, london), 1.0)
	assert.InDelta(t, DistanceKm(paris, london), DistanceKm(london, paris), 1e-9)
	assert.Equal(t, 0.0, DistanceKm(paris, paris))

	// 0.05 degrees of latitude is about 5.6 km.
	assert.Less(t, DistanceKm(Coordinate{Lat: 10, Lng: 10}, Coordinate{Lat: 10.05, Lng: 10}), 10.0)
}
