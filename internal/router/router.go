// Package router runs single-source shortest path queries over a built
// transit graph and decodes the result into alternating wait/ride legs.
package router

import (
	"errors"

	"github.com/transitcat/transitcat/internal/catalogue"
	"github.com/transitcat/transitcat/internal/transitgraph"
	"gonum.org/v1/gonum/graph/path"
)

// ErrNotReachable is returned when no path connects the two stops.
var ErrNotReachable = errors.New("not reachable")

// Step is one leg of a computed route: either a wait at a stop for a bus
// to arrive, or a ride on a bus across one or more stops.
type Step struct {
	Kind      transitgraph.LegKind
	Stop      catalogue.StopID
	Bus       catalogue.BusID
	SpanCount int
	Minutes   float64
}

// Route is the result of a successful FindRoute call.
type Route struct {
	TotalMinutes float64
	Steps        []Step
}

// Router wraps a built transit graph and answers from/to shortest-route
// queries against it.
type Router struct {
	graph *transitgraph.Graph
}

// New wraps a transit graph for querying.
func New(g *transitgraph.Graph) *Router {
	return &Router{graph: g}
}

// FindRoute computes the minimum-time route from one stop to another. If
// from == to, it returns an empty, zero-duration Route (no waiting, no
// riding required). If no path exists, it returns ErrNotReachable.
func (r *Router) FindRoute(from, to catalogue.StopID) (Route, error) {
	if from == to {
		return Route{}, nil
	}

	g := r.graph.Underlying()
	fromNode := g.Node(transitgraph.ArriveVertex(from))
	if fromNode == nil {
		return Route{}, ErrNotReachable
	}

	shortest := path.DijkstraFrom(fromNode, g)
	toID := transitgraph.ArriveVertex(to)
	nodes, weight := shortest.To(toID)
	if nodes == nil {
		return Route{}, ErrNotReachable
	}

	steps := make([]Step, 0, len(nodes)-1)
	for i := 0; i+1 < len(nodes); i++ {
		fromID := nodes[i].ID()
		toNodeID := nodes[i+1].ID()

		leg, ok := r.graph.Leg(fromID, toNodeID)
		if !ok {
			continue
		}

		steps = append(steps, Step{
			Kind:      leg.Kind,
			Stop:      leg.Stop,
			Bus:       leg.Bus,
			SpanCount: leg.SpanCount,
			Minutes:   leg.Minutes,
		})
	}

	return Route{TotalMinutes: weight, Steps: steps}, nil
}
