package mapview

import (
	"math"

	"fridgemap/internal/models"
)

const (
	// FlyToZoom is the zoom used when the map recenters on a chosen place.
	FlyToZoom = 14.0

	tileSize  = 512.0
	maxLat    = 85.0511287798066
	fullWorld = 360.0
)

// DefaultViewport is the initial view when none is configured.
var DefaultViewport = Viewport{
	Center: models.Coordinates{Lon: -90.071533, Lat: 29.951065},
	Zoom:   14,
}

// Viewport is the visible part of the map: a center and a zoom level.
type Viewport struct {
	Center models.Coordinates `json:"center"`
	Zoom   float64            `json:"zoom"`
}

// Bounds is a longitude/latitude box. West may be greater than East when the
// box crosses the antimeridian.
type Bounds struct {
	West, South, East, North float64
}

// Bounds returns the area covered by a width x height pixel map showing v,
// using the web mercator projection with 512 pixel tiles.
func (v Viewport) Bounds(width, height int) Bounds {
	world := tileSize * math.Exp2(v.Zoom)
	cx, cy := project(v.Center, world)
	halfW, halfH := float64(width)/2, float64(height)/2

	west, north := unproject(cx-halfW, cy-halfH, world)
	east, south := unproject(cx+halfW, cy+halfH, world)

	if float64(width) >= world {
		west, east = -180, 180
	}
	return Bounds{West: wrapLon(west), South: south, East: wrapLon(east), North: north}
}

// Contains reports whether c lies inside b.
func (b Bounds) Contains(c models.Coordinates) bool {
	if c.Lat < b.South || c.Lat > b.North {
		return false
	}
	if b.West <= b.East {
		return c.Lon >= b.West && c.Lon <= b.East
	}
	return c.Lon >= b.West || c.Lon <= b.East
}

func project(c models.Coordinates, world float64) (x, y float64) {
	lat := math.Max(-maxLat, math.Min(maxLat, c.Lat)) * math.Pi / 180
	x = (c.Lon + 180) / fullWorld * world
	y = (1 - math.Log(math.Tan(lat)+1/math.Cos(lat))/math.Pi) / 2 * world
	return x, y
}

func unproject(x, y, world float64) (lon, lat float64) {
	lon = x/world*fullWorld - 180
	n := math.Pi * (1 - 2*y/world)
	lat = math.Atan(math.Sinh(n)) * 180 / math.Pi
	return lon, math.Max(-maxLat, math.Min(maxLat, lat))
}

func wrapLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, fullWorld)
	if lon < 0 {
		lon += fullWorld
	}
	return lon - 180
}
