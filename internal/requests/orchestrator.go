package requests

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/transitcat/transitcat/internal/catalogue"
	"github.com/transitcat/transitcat/internal/geo"
	"github.com/transitcat/transitcat/internal/mapsvg"
	"github.com/transitcat/transitcat/internal/router"
	"github.com/transitcat/transitcat/internal/transitgraph"
)

// Orchestrator builds a Catalogue from an envelope's base requests and
// answers its stat requests, lazily binding the transit graph/router on
// the first Route query and the rendered map on the first Map query.
type Orchestrator struct {
	logger  *slog.Logger
	cat     *catalogue.Catalogue
	routing RoutingSettings
	render  mapsvg.Settings

	graph       *transitgraph.Graph
	rt          *router.Router
	renderedMap *string
}

// New constructs an Orchestrator from a fully-populated envelope. It
// returns an error only for construction-time failures: a malformed
// base_requests batch (e.g. a bus referencing an unknown stop) or
// unparsable render settings. Query-level failures are never returned
// here; they surface per-request via Run.
func New(env Envelope, strictDistances bool, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cat := catalogue.New(catalogue.WithLogger(logger), catalogue.WithStrictDistances(strictDistances))

	// Ordering guarantee: all stops, then all distances, then all buses.
	for _, req := range env.BaseRequests {
		if req.Type == "Stop" {
			cat.AddStop(req.Name, geo.Coordinates{Lat: req.Latitude, Lng: req.Longitude})
		}
	}
	for _, req := range env.BaseRequests {
		if req.Type != "Stop" {
			continue
		}
		for neighbor, meters := range req.RoadDistances {
			if err := cat.SetDistance(req.Name, neighbor, meters); err != nil {
				return nil, fmt.Errorf("construct catalogue: %w", err)
			}
		}
	}
	for _, req := range env.BaseRequests {
		if req.Type == "Bus" {
			kind := catalogue.RouteKindFromRoundtrip(req.IsRoundtrip)
			if _, err := cat.AddBus(req.Name, req.Stops, kind); err != nil {
				return nil, fmt.Errorf("construct catalogue: %w", err)
			}
		}
	}

	render, err := env.RenderSettings.ToRenderSettings()
	if err != nil {
		return nil, fmt.Errorf("parse render settings: %w", err)
	}

	logger.Info("catalogue built", "stops", cat.StopCount(), "buses", len(cat.Buses()))

	return &Orchestrator{
		logger:  logger,
		cat:     cat,
		routing: env.RoutingSettings,
		render:  render,
	}, nil
}

// Run answers every stat request in order, returning one response per
// request. A query-level failure (unknown stop/bus/distance, unreachable
// route) never aborts the batch; it's encoded as an error_message response
// for that request only.
func (o *Orchestrator) Run(statRequests []StatRequest) []Response {
	responses := make([]Response, 0, len(statRequests))
	for _, req := range statRequests {
		responses = append(responses, o.answer(req))
	}
	return responses
}

func (o *Orchestrator) answer(req StatRequest) Response {
	switch req.Type {
	case "Stop":
		return o.answerStop(req)
	case "Bus":
		return o.answerBus(req)
	case "Map":
		return o.answerMap(req)
	case "Route":
		return o.answerRoute(req)
	default:
		return notFound(req.ID)
	}
}

func (o *Orchestrator) answerStop(req StatRequest) Response {
	id, err := o.cat.StopByName(req.Name)
	if err != nil {
		return notFound(req.ID)
	}
	return stopResponse(req.ID, o.cat.BusesForStop(id))
}

func (o *Orchestrator) answerBus(req StatRequest) Response {
	id, err := o.cat.BusByName(req.Name)
	if err != nil {
		return notFound(req.ID)
	}
	stats, err := o.cat.Stats(id)
	if err != nil {
		return notFound(req.ID)
	}
	return busResponse(req.ID, stats.Curvature, stats.RouteLength, stats.StopCount, stats.UniqueStopCount)
}

func (o *Orchestrator) answerMap(req StatRequest) Response {
	if o.renderedMap == nil {
		svg := o.renderMap()
		o.renderedMap = &svg
	}
	return mapResponse(req.ID, *o.renderedMap)
}

func (o *Orchestrator) renderMap() string {
	buses := o.cat.Buses()
	views := make([]mapsvg.BusView, len(buses))
	for i, b := range buses {
		stopIDs := o.cat.BusStops(b)
		stops := make([]mapsvg.StopView, len(stopIDs))
		for j, s := range stopIDs {
			coords := o.cat.StopCoordinates(s)
			stops[j] = mapsvg.StopView{
				Name:        o.cat.StopName(s),
				Coordinates: mapsvg.Coordinates{Lat: coords.Lat, Lng: coords.Lng},
			}
		}
		views[i] = mapsvg.BusView{
			Name:        o.cat.BusName(b),
			Stops:       stops,
			IsRoundtrip: o.cat.BusKind(b) == catalogue.RouteRound,
		}
	}
	return mapsvg.Render(views, o.render)
}

func (o *Orchestrator) answerRoute(req StatRequest) Response {
	from, err := o.cat.StopByName(req.From)
	if err != nil {
		return notFound(req.ID)
	}
	to, err := o.cat.StopByName(req.To)
	if err != nil {
		return notFound(req.ID)
	}

	o.ensureRouter()

	route, err := o.rt.FindRoute(from, to)
	if err != nil {
		if errors.Is(err, router.ErrNotReachable) {
			return notFound(req.ID)
		}
		return notFound(req.ID)
	}

	items := make([]RouteItem, len(route.Steps))
	for i, step := range route.Steps {
		switch step.Kind {
		case transitgraph.LegWait:
			items[i] = RouteItem{Type: "Wait", StopName: o.cat.StopName(step.Stop), Time: step.Minutes}
		case transitgraph.LegBus:
			items[i] = RouteItem{Type: "Bus", Bus: o.cat.BusName(step.Bus), SpanCount: step.SpanCount, Time: step.Minutes}
		}
	}

	return routeResponse(req.ID, route.TotalMinutes, items)
}

func (o *Orchestrator) ensureRouter() {
	if o.rt != nil {
		return
	}
	o.graph = transitgraph.Build(o.cat, o.routing.BusWaitTime, o.routing.BusVelocity, o.logger)
	o.rt = router.New(o.graph)
}
