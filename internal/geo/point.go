// Package geo provides the geodetic primitives shared by the static data
// store, the spatial indices and the reconciliation loop: points, rects,
// and the antimeridian-splitting rule spatial queries must apply before
// touching an R-tree.
package geo

import "math"

// Point is a (lat, lng) pair. Spatial indices key on axis order (lng, lat):
// axis 0 is longitude, axis 1 is latitude.
type Point struct {
	Lat float64
	Lng float64
}

// Clamp normalizes lat into [-90, 90] and wraps lng into (-180, 180].
func (p Point) Clamp() Point {
	lat := p.Lat
	if lat > 90 {
		lat = 90
	} else if lat < -90 {
		lat = -90
	}
	lng := math.Mod(p.Lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	lng -= 180
	if lng <= -180 {
		lng = 180
	}
	return Point{Lat: lat, Lng: lng}
}

// Axis returns the point's coordinate on the R-tree's axis order: 0 is
// longitude, 1 is latitude.
func (p Point) Axis(n int) float64 {
	if n == 0 {
		return p.Lng
	}
	return p.Lat
}

// Envelope returns the degenerate (min==max) bounding box used to insert
// and search a point in an R-tree.
func (p Point) Envelope() (min, max [2]float64) {
	v := [2]float64{p.Lng, p.Lat}
	return v, v
}
