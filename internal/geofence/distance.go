package geofence

import (
	"math"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

const earthRadiusMeters = 6371000

// Distance returns the great-circle distance in meters between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Contains reports whether the fix lies within the region's radius.
// The boundary counts as inside.
func Contains(r model.GeofenceRegion, fix model.LocationFix) bool {
	return Distance(r.Latitude, r.Longitude, fix.Latitude, fix.Longitude) <= r.Radius
}
