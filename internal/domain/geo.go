package domain

import (
	"math"
	"sort"
)

// EarthRadius is the WGS84 semi-major axis in meters.
const EarthRadius = 6378137.0

// Distance returns the great-circle distance between a and b in meters
// using the haversine formula.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// SpotDistance pairs a spot with its distance from a reference point.
type SpotDistance struct {
	Spot   Spot    `json:"spot"`
	Meters float64 `json:"meters"`
}

// Nearby returns the spots within radius meters of from, closest first.
// A non-positive radius keeps every spot.
func Nearby(spots []Spot, from Coordinate, radius float64) []SpotDistance {
	out := make([]SpotDistance, 0, len(spots))
	for _, s := range spots {
		d := Distance(from, s.Coordinate)
		if radius > 0 && d > radius {
			continue
		}
		out = append(out, SpotDistance{Spot: s.Clone(), Meters: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Meters < out[j].Meters })
	return out
}
