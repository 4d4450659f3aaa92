package mapsvg

import "math"

const zeroEpsilon = 1e-6

func isZero(v float64) bool {
	return math.Abs(v) < zeroEpsilon
}

// SphereProjector maps geodetic coordinates onto a flat canvas of the
// given width/height, preserving relative spacing and leaving padding on
// every edge. Degenerate inputs (zero, one, or colinear points) fall back
// to a single zoom axis or, if both axes are degenerate, to the origin.
type SphereProjector struct {
	minLng, maxLat float64
	zoomCoeff      float64
	padding        float64
}

// NewSphereProjector computes the projection parameters for the given set
// of coordinates and canvas dimensions.
func NewSphereProjector(coords []Coordinates, width, height, padding float64) SphereProjector {
	if len(coords) == 0 {
		return SphereProjector{padding: padding}
	}

	minLng, maxLng := coords[0].Lng, coords[0].Lng
	minLat, maxLat := coords[0].Lat, coords[0].Lat
	for _, c := range coords[1:] {
		if c.Lng < minLng {
			minLng = c.Lng
		}
		if c.Lng > maxLng {
			maxLng = c.Lng
		}
		if c.Lat < minLat {
			minLat = c.Lat
		}
		if c.Lat > maxLat {
			maxLat = c.Lat
		}
	}

	var widthZoom, haveWidthZoom = 0.0, false
	if !isZero(maxLng - minLng) {
		widthZoom = (width - 2*padding) / (maxLng - minLng)
		haveWidthZoom = true
	}

	var heightZoom, haveHeightZoom = 0.0, false
	if !isZero(maxLat - minLat) {
		heightZoom = (height - 2*padding) / (maxLat - minLat)
		haveHeightZoom = true
	}

	var zoom float64
	switch {
	case haveWidthZoom && haveHeightZoom:
		zoom = math.Min(widthZoom, heightZoom)
	case haveWidthZoom:
		zoom = widthZoom
	case haveHeightZoom:
		zoom = heightZoom
	default:
		zoom = 0
	}

	return SphereProjector{
		minLng:    minLng,
		maxLat:    maxLat,
		zoomCoeff: zoom,
		padding:   padding,
	}
}

// Coordinates is the geodetic input to a SphereProjector; it mirrors
// geo.Coordinates but keeps this package free of a dependency on the
// catalogue/geo packages beyond what it needs (lat/lng pairs).
type Coordinates struct {
	Lat, Lng float64
}

// Project converts a geodetic coordinate into canvas space.
func (p SphereProjector) Project(c Coordinates) Point {
	return Point{
		X: (c.Lng-p.minLng)*p.zoomCoeff + p.padding,
		Y: (p.maxLat-c.Lat)*p.zoomCoeff + p.padding,
	}
}
