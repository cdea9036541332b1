package config

import (
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

// Fallback coordinates of the built-in punch location.
const (
	FallbackLongitude = 118.810202
	FallbackLatitude  = 31.912279
)

// DefaultRegion is the punch region used when the user has no override.
type DefaultRegion struct {
	Identifier string
	Longitude  float64
	Latitude   float64
	Radius     float64
}

// Region converts d to a registrable region.
func (d DefaultRegion) Region() model.GeofenceRegion {
	return model.NewPunchRegion(d.Longitude, d.Latitude, d.Radius)
}

var (
	defaultRegion     DefaultRegion
	defaultRegionOnce sync.Once
)

// LoadDefaultRegion returns the default region. The environment is read on
// the first call only.
func LoadDefaultRegion() DefaultRegion {
	defaultRegionOnce.Do(func() {
		defaultRegion = ParseDefaultRegion(os.LookupEnv)
	})
	return defaultRegion
}

// ParseDefaultRegion builds the default region from VIOLET_GEOFENCE_*
// variables. It never fails: unparsable values fall back, and the radius is
// never below model.MinRadius.
func ParseDefaultRegion(lookup func(string) (string, bool)) DefaultRegion {
	num := func(name string, fallback float64) float64 {
		v, _ := lookup(name)
		if f, ok := parseLeadingFloat(v); ok {
			return f
		}
		return fallback
	}

	return DefaultRegion{
		Identifier: model.PunchRegionID,
		Longitude:  num("VIOLET_GEOFENCE_LONGITUDE", FallbackLongitude),
		Latitude:   num("VIOLET_GEOFENCE_LATITUDE", FallbackLatitude),
		Radius:     math.Max(model.MinRadius, num("VIOLET_GEOFENCE_RADIUS", model.MinRadius)),
	}
}

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseLeadingFloat reads the longest numeric prefix of s, so "120.5m"
// yields 120.5. Leading whitespace is ignored.
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
