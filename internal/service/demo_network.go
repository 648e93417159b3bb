package service

import (
	"github.com/citytwin/backend/internal/domain"
	"github.com/citytwin/backend/pkg/utils"
)

// Demo network extents, roughly central Kochi.
const (
	demoRows   = 8
	demoCols   = 8
	demoMinLat = 9.94
	demoMaxLat = 10.02
	demoMinLon = 76.25
	demoMaxLon = 76.33
)

// Named east-west corridors of the demo grid, south to north.
var demoRowRoads = []struct {
	name  string
	class string
	lanes int
}{
	{"Thoppumpady Road", "residential", 1},
	{"Sahodaran Ayyappan Road", "secondary", 2},
	{"MG Road", "primary", 2},
	{"Banerji Road", "primary", 2},
	{"Chittoor Road", "tertiary", 1},
	{"Palarivattom Road", "secondary", 2},
	{"Container Terminal Road", "trunk", 2},
	{"Seaport Airport Road", "tertiary", 1},
}

// Named north-south corridors, west to east.
var demoColRoads = []struct {
	name  string
	class string
	lanes int
}{
	{"Willingdon Island Road", "tertiary", 1},
	{"Shanmugham Road", "secondary", 2},
	{"Park Avenue", "residential", 1},
	{"NH 66 Bypass", "trunk", 3},
	{"Kaloor-Kadavanthra Road", "secondary", 2},
	{"Civil Line Road", "tertiary", 1},
	{"NH 85", "primary", 2},
	{"Tripunithura Road", "residential", 1},
}

// DemoNetwork builds a deterministic grid network used whenever no real road
// network file is configured. Segment lengths are left to the enrichment step
// (derived from junction coordinates) and both directions of every corridor
// are present, so the result exercises the same code paths as provider data.
func DemoNetwork(city string) *domain.RawNetwork {
	raw := &domain.RawNetwork{City: city}

	id := func(row, col int) int64 { return int64(row*demoCols + col + 1) }
	for row := 0; row < demoRows; row++ {
		for col := 0; col < demoCols; col++ {
			raw.Junctions = append(raw.Junctions, domain.RawJunction{
				ID:  id(row, col),
				Lat: utils.Lerp(demoMinLat, demoMaxLat, float64(row)/float64(demoRows-1)),
				Lon: utils.Lerp(demoMinLon, demoMaxLon, float64(col)/float64(demoCols-1)),
			})
		}
	}

	addBoth := func(a, b int64, name, class string, lanes int) {
		raw.Segments = append(raw.Segments,
			domain.RawSegment{From: a, To: b, Name: name, RoadClass: class, Lanes: lanes},
			domain.RawSegment{From: b, To: a, Name: name, RoadClass: class, Lanes: lanes},
		)
	}

	for row := 0; row < demoRows; row++ {
		road := demoRowRoads[row]
		for col := 0; col < demoCols-1; col++ {
			addBoth(id(row, col), id(row, col+1), road.name, road.class, road.lanes)
		}
	}
	for col := 0; col < demoCols; col++ {
		road := demoColRoads[col]
		for row := 0; row < demoRows-1; row++ {
			addBoth(id(row, col), id(row+1, col), road.name, road.class, road.lanes)
		}
	}
	return raw
}
