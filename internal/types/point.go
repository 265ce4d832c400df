// README: Shared identifiers and coordinates.
package types

import "strconv"

type ID string

// Point is a spot location in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Key renders the exact coordinates for use in cache keys; two points share
// a key only when they are equal.
func (p Point) Key() string {
	return strconv.FormatFloat(p.Lat, 'g', -1, 64) + ":" + strconv.FormatFloat(p.Lng, 'g', -1, 64)
}
