package domain

import "time"

// Point is a single polygon vertex in latitude/longitude order.
type Point struct {
	Lat float64
	Lon float64
}

// Alert is a core entity describing one weather warning from the feed.
type Alert struct {
	ID          string
	Event       string
	Headline    string
	Description string
	Instruction string
	Severity    string
	Certainty   string
	Urgency     string
	AreaDesc    string
	NWSHeadline string
	Polygon     []Point
	Sent        time.Time
	Expires     time.Time
}

// HasPolygon reports whether the alert carries geometry a map can be drawn from.
// A degenerate polygon with fewer than three vertices is treated as absent.
func (a Alert) HasPolygon() bool {
	return len(a.Polygon) >= 3
}

// CycleResult summarizes one poll cycle for logs and metrics. Transient,
// never persisted.
type CycleResult struct {
	Fetched        int
	New            int
	AlreadySeen    int
	NoPolygon      int
	Rendered       int
	RenderFailed   int
	Delivered      int
	DeliveryFailed int
}
