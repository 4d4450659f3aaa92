// Package transitgraph builds the two-vertex-per-stop routing graph that
// internal/router runs Dijkstra over: each stop gets an "arrive" vertex and
// a "board" vertex, connected by a boarding (wait) edge, with bus rides
// connecting one stop's board vertex to another stop's arrive vertex.
package transitgraph

import (
	"log/slog"

	"github.com/transitcat/transitcat/internal/catalogue"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// minutesConversionFactor converts meters / (km/h) into minutes.
const minutesConversionFactor = 3.6 / 60.0

// LegKind discriminates the two edge payload shapes a route step can take.
type LegKind int

const (
	LegWait LegKind = iota
	LegBus
)

// Leg is the payload carried by one edge of the transit graph: either a
// boarding wait (LegWait, Bus left zero) or a bus ride spanning one or more
// stops (LegBus).
type Leg struct {
	Kind      LegKind
	Stop      catalogue.StopID
	Bus       catalogue.BusID
	SpanCount int
	Minutes   float64
}

// Graph is the built transit routing graph: a gonum weighted directed
// graph plus the side-table of edge payloads gonum's graph type doesn't
// carry natively.
type Graph struct {
	g        *simple.WeightedDirectedGraph
	payloads map[edgeKey]Leg
}

type edgeKey struct {
	from, to int64
}

// ArriveVertex returns the gonum node id a stop's "arrived, waiting to
// board" vertex is assigned.
func ArriveVertex(id catalogue.StopID) int64 {
	return int64(id) * 2
}

// BoardVertex returns the gonum node id a stop's "boarded, riding" vertex
// is assigned.
func BoardVertex(id catalogue.StopID) int64 {
	return int64(id)*2 + 1
}

// Underlying returns the gonum graph for consumption by path algorithms.
func (t *Graph) Underlying() *simple.WeightedDirectedGraph {
	return t.g
}

// Leg resolves the payload of an edge previously returned by a path
// algorithm walking Underlying().
func (t *Graph) Leg(from, to int64) (Leg, bool) {
	leg, ok := t.payloads[edgeKey{from: from, to: to}]
	return leg, ok
}

// Build constructs the transit graph for every stop and bus in the given
// catalogue, using the supplied wait time (minutes) and velocity (km/h) for
// edge weights.
func Build(c *catalogue.Catalogue, busWaitMinutes, busVelocityKMH float64, logger *slog.Logger) *Graph {
	g := &Graph{
		g:        simple.NewWeightedDirectedGraph(0, 0),
		payloads: make(map[edgeKey]Leg),
	}

	for _, s := range c.Stops() {
		g.g.AddNode(simple.Node(ArriveVertex(s)))
		g.g.AddNode(simple.Node(BoardVertex(s)))
		g.addEdge(ArriveVertex(s), BoardVertex(s), busWaitMinutes, Leg{Kind: LegWait, Stop: s})
	}

	proposals := make(map[edgeKey]Leg)
	for _, b := range c.Buses() {
		stops := c.BusStops(b)
		accumulateRideLegs(c, b, stops, busVelocityKMH, proposals)
		if c.BusKind(b) == catalogue.RouteDirect && len(stops) > 1 {
			reversed := make([]catalogue.StopID, len(stops))
			for i, s := range stops {
				reversed[len(stops)-1-i] = s
			}
			accumulateRideLegs(c, b, reversed, busVelocityKMH, proposals)
		}
	}

	for key, leg := range proposals {
		g.addEdge(key.from, key.to, leg.Minutes, leg)
	}

	if logger != nil {
		logger.Info("built transit graph", "vertices", g.g.Nodes().Len(), "edges", len(g.payloads))
	}

	return g
}

// accumulateRideLegs walks every (i, j) pair in a bus's stop sequence,
// accumulating road distance stepwise, and proposes one ride edge per pair
// from stop i's board vertex to stop j's arrive vertex. On a collision
// between two proposals for the same (from, to) pair, the cheaper one
// wins.
func accumulateRideLegs(c *catalogue.Catalogue, bus catalogue.BusID, stops []catalogue.StopID, velocityKMH float64, proposals map[edgeKey]Leg) {
	for i := 0; i < len(stops); i++ {
		distance := 0
		for j := i + 1; j < len(stops); j++ {
			distance += c.GetDistance(stops[j-1], stops[j])
			minutes := float64(distance) / velocityKMH * minutesConversionFactor

			key := edgeKey{from: BoardVertex(stops[i]), to: ArriveVertex(stops[j])}
			leg := Leg{
				Kind:      LegBus,
				Stop:      stops[j],
				Bus:       bus,
				SpanCount: j - i,
				Minutes:   minutes,
			}

			if existing, ok := proposals[key]; !ok || leg.Minutes < existing.Minutes {
				proposals[key] = leg
			}
		}
	}
}

func (t *Graph) addEdge(from, to int64, weight float64, leg Leg) {
	t.g.SetWeightedEdge(simple.WeightedEdge{
		F: simple.Node(from),
		T: simple.Node(to),
		W: weight,
	})
	t.payloads[edgeKey{from: from, to: to}] = leg
}

var _ graph.WeightedDirected = (*simple.WeightedDirectedGraph)(nil)
