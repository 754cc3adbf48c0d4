// Package similarity implements field-level fuzzy comparison, the four facet
// scorers and the pair classifier. Everything here is a pure function of two
// user records and a Config, so a Scorer is safe for concurrent use.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0088

// ErrMissingCoordinate indicates an empty latitude or longitude.
var ErrMissingCoordinate = errors.New("missing coordinate")

// MalformedFieldError reports a field value that could not be interpreted.
// It is recovered inside the facet that owns the field and never escapes a
// pair comparison.
type MalformedFieldError struct {
	Field string
	Value string
	Err   error
}

// Error implements the error interface
func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying parse error
func (e *MalformedFieldError) Unwrap() error {
	return e.Err
}

// Normalize lowercases s and collapses runs of whitespace to a single space.
// Bytes that are not valid UTF-8 are kept distinct (see escapeInvalid).
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(escapeInvalid(s))), " ")
}

// invalidByteBase maps an invalid UTF-8 byte b to the private-use rune
// invalidByteBase+b.
const invalidByteBase = 0xF700

// escapeInvalid replaces each byte of s that is not part of a valid UTF-8
// sequence with its own private-use rune. Decoding would otherwise turn every
// such byte into U+FFFD and make different malformed values compare equal.
func escapeInvalid(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			r = invalidByteBase + rune(s[i])
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

// Ratio returns the edit-distance similarity of a and b in [0,1], rounded
// to whole percent: 1 - levenshtein(a,b)/max(len(a),len(b)) over runes.
// Two empty strings are identical. Each invalid UTF-8 byte counts as one
// rune of its own.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	a, b = escapeInvalid(a), escapeInvalid(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return math.Round(100*(1-float64(distance)/float64(longest))) / 100
}

// FuzzyRatio normalizes both values before computing Ratio.
func FuzzyRatio(a, b string) float64 {
	return Ratio(Normalize(a), Normalize(b))
}

// EqualFold reports whether a and b are equal after trimming whitespace,
// ignoring case.
func EqualFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Coordinate is a point in decimal degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// ParseCoordinate parses a latitude/longitude pair. Empty, non-numeric,
// non-finite or out-of-range values yield a *MalformedFieldError.
func ParseCoordinate(lat, lng string) (Coordinate, error) {
	la, err := parseDegrees("latitude", lat, 90)
	if err != nil {
		return Coordinate{}, err
	}
	lo, err := parseDegrees("longitude", lng, 180)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Lat: la, Lng: lo}, nil
}

func parseDegrees(field, raw string, limit float64) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, &MalformedFieldError{Field: field, Value: raw, Err: ErrMissingCoordinate}
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &MalformedFieldError{Field: field, Value: raw, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, &MalformedFieldError{Field: field, Value: raw, Err: fmt.Errorf("out of range [-%g, %g]", limit, limit)}
	}
	return v, nil
}

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
