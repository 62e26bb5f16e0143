package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// earthRadiusM is the WGS-84 mean sphere radius used for haversine.
const earthRadiusM = 6371000

// NewPoint builds an orb.Point from lat/lng. orb stores (lon, lat).
func NewPoint(lat, lng float64) orb.Point {
	return orb.Point{lng, lat}
}

// Distance calculates the haversine distance between two points in meters.
func Distance(p1, p2 orb.Point) float64 {
	lat1 := p1.Lat() * (math.Pi / 180.0)
	lat2 := p2.Lat() * (math.Pi / 180.0)
	dLat := (p2.Lat() - p1.Lat()) * (math.Pi / 180.0)
	dLon := (p2.Lon() - p1.Lon()) * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// Round4 rounds a coordinate to 4 decimal places (~11m buckets).
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// BucketKey returns the cache key for a proximity query. The 4-decimal
// rounding makes nearby queries land in the same ~11m bucket so they reuse
// cached POI sets.
func BucketKey(lat, lng float64, radiusM int) string {
	return fmt.Sprintf("%.4f,%.4f,%d", Round4(lat), Round4(lng), radiusM)
}

// RoundToStep rounds a distance in meters to the nearest multiple of step.
// Used for display distances so the narrator says "about 250 meters" rather
// than "243 meters".
func RoundToStep(meters float64, step int) int {
	if step <= 0 {
		step = 50
	}
	return int(math.Round(meters/float64(step))) * step
}

// ValidCoords reports whether lat/lng are finite and in range.
func ValidCoords(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
