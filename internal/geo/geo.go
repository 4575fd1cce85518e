// Package geo provides great-circle distance and radius filtering for
// matching donors, hospitals, and banks to a request location.
package geo

import (
	"math"
	"sort"

	"bloodlink/internal/domain"
)

const earthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance between two
// coordinates in kilometers.
func Distance(a, b domain.Coordinate) float64 {
	radLat1 := a.Lat * math.Pi / 180
	radLat2 := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(radLat1)*math.Cos(radLat2)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Candidate is anything with an id and an optional location.
type Candidate struct {
	ID       string
	Location *domain.Coordinate
}

// Match is a candidate found within the search radius.
type Match struct {
	ID         string  `json:"id"`
	DistanceKm float64 `json:"distance_km"`
}

// Nearby filters candidates to those within radiusKm of origin and returns
// them sorted ascending by distance, ties broken by id so results are
// reproducible. Candidates without a location are excluded, not defaulted.
func Nearby(origin domain.Coordinate, candidates []Candidate, radiusKm float64) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.Location == nil {
			continue
		}
		d := Distance(origin, *c.Location)
		if d <= radiusKm {
			matches = append(matches, Match{ID: c.ID, DistanceKm: d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceKm != matches[j].DistanceKm {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}
