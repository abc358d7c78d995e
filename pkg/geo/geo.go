// Package geo has the geodesy helpers used for traffic selection,
// extrapolation and the mock simulator.
package geo

import (
	"sort"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Unit conversions
const (
	MetersPerNM     = 1852.0
	MetersPerFoot   = 0.3048
	KnotsToMetersPS = MetersPerNM / 3600.0
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

func (p Point) orb() orb.Point { return orb.Point{p.Lon, p.Lat} }

func fromOrb(p orb.Point) Point { return Point{Lat: p.Lat(), Lon: p.Lon()} }

// Distance calculates the haversine distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	return orbgeo.DistanceHaversine(p1.orb(), p2.orb())
}

// DistanceNM is Distance in nautical miles.
func DistanceNM(p1, p2 Point) float64 {
	return Distance(p1, p2) / MetersPerNM
}

// DestinationPoint calculates the point reached from start after distMeters on bearing (degrees).
func DestinationPoint(start Point, distMeters, bearing float64) Point {
	return fromOrb(orbgeo.PointAtBearingAndDistance(start.orb(), bearing, distMeters))
}

// Bearing calculates the initial bearing from p1 to p2 in degrees [0, 360).
func Bearing(p1, p2 Point) float64 {
	b := orbgeo.Bearing(p1.orb(), p2.orb())
	if b < 0 {
		b += 360
	}
	return b
}

// NormalizeAngle normalizes an angle difference to the range [-180, 180].
func NormalizeAngle(angleDeg float64) float64 {
	for angleDeg > 180 {
		angleDeg -= 360
	}
	for angleDeg < -180 {
		angleDeg += 360
	}
	return angleDeg
}

// BoundAround returns the bounding box of a circle, for cheap prefiltering.
func BoundAround(center Point, radiusMeters float64) orb.Bound {
	return orbgeo.NewBoundAroundPoint(center.orb(), radiusMeters)
}

// InBound reports whether p lies inside b.
func InBound(b orb.Bound, p Point) bool {
	return b.Contains(p.orb())
}

// Ranked is an index into a point list with its distance to a reference.
type Ranked struct {
	Index    int
	Distance float64 // meters
}

// Nearest returns up to n points closest to origin and within maxMeters
// (0 means unlimited), nearest first.
func Nearest(origin Point, points []Point, n int, maxMeters float64) []Ranked {
	ranked := make([]Ranked, 0, len(points))
	var bound orb.Bound
	if maxMeters > 0 {
		bound = BoundAround(origin, maxMeters)
	}
	for i, p := range points {
		if maxMeters > 0 && !InBound(bound, p) {
			continue
		}
		d := Distance(origin, p)
		if maxMeters > 0 && d > maxMeters {
			continue
		}
		ranked = append(ranked, Ranked{Index: i, Distance: d})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Distance < ranked[j].Distance })
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
