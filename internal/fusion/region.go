package fusion

import (
	"github.com/golang/geo/s2"
	"github.com/twpayne/go-geom"
)

// EarthRadiusKM is the IUGG mean earth radius.
const EarthRadiusKM = 6371.0088

// Region is an axis-aligned latitude/longitude rectangle. Edges are inclusive.
type Region struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat" mapstructure:"min_lat"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat" mapstructure:"max_lat"`
	MinLon float64 `json:"min_lon" yaml:"min_lon" mapstructure:"min_lon"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon" mapstructure:"max_lon"`
}

// DefaultRegion covers Israel, the West Bank and Gaza with some margin.
var DefaultRegion = Region{MinLat: 29.3, MaxLat: 33.5, MinLon: 34.0, MaxLon: 36.0}

// Bounds returns the region as XY (lon, lat) bounds.
func (r Region) Bounds() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(r.MinLon, r.MinLat, r.MaxLon, r.MaxLat)
}

// Contains reports whether (lat, lon) lies inside or on the edge of r.
func (r Region) Contains(lat, lon float64) bool {
	return r.Bounds().OverlapsPoint(geom.XY, geom.Coord{lon, lat})
}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// DistanceKM returns the great-circle distance between a and b.
func DistanceKM(a, b Point) float64 {
	la := s2.LatLngFromDegrees(a.Lat, a.Lon)
	lb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return la.Distance(lb).Radians() * EarthRadiusKM
}

// AverageDistanceKM returns the mean distance over all unordered pairs of
// points. Fewer than two points give 0.
func AverageDistanceKM(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	var pairs int
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			total += DistanceKM(points[i], points[j])
			pairs++
		}
	}
	return total / float64(pairs)
}
