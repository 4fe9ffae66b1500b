package mapview

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

const (
	markerTolerance = 1e-9
	minChildren     = 25
	maxChildren     = 50
	dimensions      = 2
)

// indexedMarker wraps a marker for R-tree indexing. Points are stored as (lon, lat).
type indexedMarker struct {
	pos  int
	rect rtreego.Rect
}

func (m *indexedMarker) Bounds() rtreego.Rect {
	return m.rect
}

// markerIndex answers viewport queries over a fixed set of markers.
type markerIndex struct {
	tree *rtreego.Rtree
}

func newMarkerIndex(markers []Marker) *markerIndex {
	items := make([]rtreego.Spatial, 0, len(markers))
	for i, m := range markers {
		p := rtreego.Point{m.Position.Lon, m.Position.Lat}
		items = append(items, &indexedMarker{pos: i, rect: p.ToRect(markerTolerance)})
	}
	return &markerIndex{tree: rtreego.NewTree(dimensions, minChildren, maxChildren, items...)}
}

// search returns the positions of markers inside b, in ascending order.
func (idx *markerIndex) search(b Bounds) []int {
	var boxes [][2]rtreego.Point
	if b.West <= b.East {
		boxes = append(boxes, [2]rtreego.Point{{b.West, b.South}, {b.East, b.North}})
	} else {
		boxes = append(boxes,
			[2]rtreego.Point{{b.West, b.South}, {180, b.North}},
			[2]rtreego.Point{{-180, b.South}, {b.East, b.North}},
		)
	}

	seen := make(map[int]bool)
	var out []int
	for _, box := range boxes {
		rect, err := rtreego.NewRectFromPoints(box[0], box[1])
		if err != nil {
			continue
		}
		for _, s := range idx.tree.SearchIntersect(rect) {
			m := s.(*indexedMarker)
			if !seen[m.pos] {
				seen[m.pos] = true
				out = append(out, m.pos)
			}
		}
	}
	sort.Ints(out)
	return out
}
