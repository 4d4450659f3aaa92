// Package catalogue holds the stop/bus arena, the asymmetric road-distance
// matrix, and the stop-to-buses index that every other component in this
// repository is built on top of.
package catalogue

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/transitcat/transitcat/internal/geo"
)

// StopID is a stable handle into the stop arena. It never changes once
// issued and is cheap to copy, unlike a pointer into a slice that can be
// invalidated by reallocation.
type StopID int

// BusID is the bus-arena equivalent of StopID.
type BusID int

const invalidID = -1

type stop struct {
	name        string
	coordinates geo.Coordinates
}

type bus struct {
	name  string
	stops []StopID
	kind  RouteKind
}

type distanceKey struct {
	from, to StopID
}

// Catalogue is the arena-backed store of stops, buses, and road distances.
// It is built once from a batch of base requests and then queried; it
// carries no mutation API beyond the additive Add*/Set* calls used during
// construction.
type Catalogue struct {
	logger *slog.Logger
	strict bool

	stops   []stop
	buses   []bus
	stopIDs map[string]StopID
	busIDs  map[string]BusID

	distances map[distanceKey]int

	// stopBuses maps a stop to the sorted set of bus names that visit it,
	// built lazily on first query and invalidated by any further AddBus
	// call.
	stopBuses   map[StopID][]string
	busesDirty  bool
}

// Option configures a Catalogue at construction time.
type Option func(*Catalogue)

// WithLogger attaches a structured logger used for construction-time
// diagnostics (counts, warnings about lenient distance writes).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalogue) {
		c.logger = logger
	}
}

// WithStrictDistances controls SetDistance's behavior when one of the two
// named stops hasn't been added yet. Strict (the default) returns
// ErrUnknownStop; non-strict logs a warning and skips the write.
func WithStrictDistances(strict bool) Option {
	return func(c *Catalogue) {
		c.strict = strict
	}
}

// New creates an empty Catalogue ready to receive AddStop/AddBus/SetDistance
// calls.
func New(opts ...Option) *Catalogue {
	c := &Catalogue{
		logger:    slog.Default(),
		strict:    true,
		stopIDs:   make(map[string]StopID),
		busIDs:    make(map[string]BusID),
		distances: make(map[distanceKey]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddStop registers a stop by name and coordinates. Calling AddStop twice
// with the same name updates the coordinates of the existing stop rather
// than creating a duplicate, matching the idempotent-by-name semantics the
// base-request batch relies on.
func (c *Catalogue) AddStop(name string, coords geo.Coordinates) StopID {
	if id, ok := c.stopIDs[name]; ok {
		c.stops[id].coordinates = coords
		return id
	}

	id := StopID(len(c.stops))
	c.stops = append(c.stops, stop{name: name, coordinates: coords})
	c.stopIDs[name] = id
	c.busesDirty = true
	return id
}

// StopByName resolves a stop name to its handle.
func (c *Catalogue) StopByName(name string) (StopID, error) {
	id, ok := c.stopIDs[name]
	if !ok {
		return invalidID, fmt.Errorf("%w: %s", ErrUnknownStop, name)
	}
	return id, nil
}

// StopName returns the name of a previously resolved stop handle.
func (c *Catalogue) StopName(id StopID) string {
	return c.stops[id].name
}

// StopCoordinates returns the coordinates of a stop handle.
func (c *Catalogue) StopCoordinates(id StopID) geo.Coordinates {
	return c.stops[id].coordinates
}

// StopCount returns the number of distinct stops registered.
func (c *Catalogue) StopCount() int {
	return len(c.stops)
}

// Stops returns all stop handles in insertion order.
func (c *Catalogue) Stops() []StopID {
	ids := make([]StopID, len(c.stops))
	for i := range c.stops {
		ids[i] = StopID(i)
	}
	return ids
}

// AddBus registers a bus with its ordered stop list and route kind. Every
// name in stopNames must already have been added via AddStop.
func (c *Catalogue) AddBus(name string, stopNames []string, kind RouteKind) (BusID, error) {
	stopIDs := make([]StopID, len(stopNames))
	for i, n := range stopNames {
		id, err := c.StopByName(n)
		if err != nil {
			return invalidID, fmt.Errorf("add bus %q: %w", name, err)
		}
		stopIDs[i] = id
	}

	id := BusID(len(c.buses))
	c.buses = append(c.buses, bus{name: name, stops: stopIDs, kind: kind})
	c.busIDs[name] = id
	c.busesDirty = true

	if c.logger != nil {
		c.logger.Info("added bus", "name", name, "stops", len(stopIDs), "kind", kind.String())
	}

	return id, nil
}

// BusByName resolves a bus name to its handle.
func (c *Catalogue) BusByName(name string) (BusID, error) {
	id, ok := c.busIDs[name]
	if !ok {
		return invalidID, fmt.Errorf("%w: %s", ErrUnknownBus, name)
	}
	return id, nil
}

// BusName returns the name of a bus handle.
func (c *Catalogue) BusName(id BusID) string {
	return c.buses[id].name
}

// BusStops returns the ordered stop handles a bus visits, as written (not
// expanded for round trips).
func (c *Catalogue) BusStops(id BusID) []StopID {
	return c.buses[id].stops
}

// BusKind returns a bus's route kind.
func (c *Catalogue) BusKind(id BusID) RouteKind {
	return c.buses[id].kind
}

// Buses returns all bus handles in insertion order.
func (c *Catalogue) Buses() []BusID {
	ids := make([]BusID, len(c.buses))
	for i := range c.buses {
		ids[i] = BusID(i)
	}
	return ids
}

// SetDistance records the measured road distance (meters) from one stop to
// another. The relation is directional: SetDistance(a, b, d) records only
// the a -> b entry. GetDistance falls back to the reverse entry when no
// forward entry exists, and to the great-circle distance when neither
// direction has an entry.
func (c *Catalogue) SetDistance(fromName, toName string, meters int) error {
	from, err := c.StopByName(fromName)
	if err != nil {
		return c.handleUnknownDistanceStop(fromName, toName, err)
	}
	to, err := c.StopByName(toName)
	if err != nil {
		return c.handleUnknownDistanceStop(fromName, toName, err)
	}

	c.distances[distanceKey{from: from, to: to}] = meters
	return nil
}

func (c *Catalogue) handleUnknownDistanceStop(fromName, toName string, cause error) error {
	if c.strict {
		return fmt.Errorf("set distance %s -> %s: %w", fromName, toName, cause)
	}
	if c.logger != nil {
		c.logger.Warn("skipping distance for unknown stop", "from", fromName, "to", toName, "cause", cause)
	}
	return nil
}

// GetDistance returns the road distance between two stops, falling back to
// the reverse-direction entry and then the great-circle distance, as
// described in SetDistance's docs.
func (c *Catalogue) GetDistance(from, to StopID) int {
	if d, ok := c.distances[distanceKey{from: from, to: to}]; ok {
		return d
	}
	if d, ok := c.distances[distanceKey{from: to, to: from}]; ok {
		return d
	}
	return int(geo.Distance(c.stops[from].coordinates, c.stops[to].coordinates))
}

// HasExplicitDistance reports whether a directional road distance was ever
// recorded between the two stops (either direction), as opposed to the
// geo-distance fallback GetDistance silently applies.
func (c *Catalogue) HasExplicitDistance(from, to StopID) bool {
	if _, ok := c.distances[distanceKey{from: from, to: to}]; ok {
		return true
	}
	_, ok := c.distances[distanceKey{from: to, to: from}]
	return ok
}

// RouteDistance returns the road distance between two consecutive stops on
// a bus route. Unlike GetDistance, it does not fall back to the
// great-circle distance: a required consecutive pair with no recorded
// distance in either direction is an ErrUnknownDistance failure, not an
// estimate.
func (c *Catalogue) RouteDistance(from, to StopID) (int, error) {
	if !c.HasExplicitDistance(from, to) {
		return 0, fmt.Errorf("%w: %s -> %s", ErrUnknownDistance, c.stops[from].name, c.stops[to].name)
	}
	return c.GetDistance(from, to), nil
}

// BusesForStop returns the sorted, de-duplicated names of every bus that
// visits the given stop.
func (c *Catalogue) BusesForStop(id StopID) []string {
	c.rebuildStopBusesIndexIfNeeded()
	return c.stopBuses[id]
}

func (c *Catalogue) rebuildStopBusesIndexIfNeeded() {
	if !c.busesDirty && c.stopBuses != nil {
		return
	}

	index := make(map[StopID]map[string]struct{})
	for _, b := range c.buses {
		for _, s := range b.stops {
			if index[s] == nil {
				index[s] = make(map[string]struct{})
			}
			index[s][b.name] = struct{}{}
		}
	}

	c.stopBuses = make(map[StopID][]string, len(index))
	for s, names := range index {
		list := make([]string, 0, len(names))
		for n := range names {
			list = append(list, n)
		}
		sort.Strings(list)
		c.stopBuses[s] = list
	}
	c.busesDirty = false
}

// RouteStats summarizes the derived length/curvature/stop-count figures for
// a bus, as returned by a Bus stat request.
type RouteStats struct {
	StopCount       int
	UniqueStopCount int
	RouteLength     int
	Curvature       float64
}

// Stats computes the route statistics for a bus, walking its full
// (round-trip-expanded) stop sequence. It fails with ErrUnknownDistance if
// any required consecutive pair has no recorded road distance in either
// direction.
func (c *Catalogue) Stats(id BusID) (RouteStats, error) {
	full := c.fullStopSequence(id)

	var routeLength int
	var geoLength float64
	for i := 0; i+1 < len(full); i++ {
		d, err := c.RouteDistance(full[i], full[i+1])
		if err != nil {
			return RouteStats{}, fmt.Errorf("stats for bus %q: %w", c.buses[id].name, err)
		}
		routeLength += d
		geoLength += geo.Distance(c.stops[full[i]].coordinates, c.stops[full[i+1]].coordinates)
	}

	// A degenerate route (zero great-circle length) has undefined
	// curvature; we define it as +Inf per the route-stats contract rather
	// than dividing by zero silently.
	curvature := math.Inf(1)
	if geoLength > 0 {
		curvature = float64(routeLength) / geoLength
	}

	unique := make(map[StopID]struct{}, len(full))
	for _, s := range full {
		unique[s] = struct{}{}
	}

	return RouteStats{
		StopCount:       len(full),
		UniqueStopCount: len(unique),
		RouteLength:     routeLength,
		Curvature:       curvature,
	}, nil
}

// fullStopSequence expands a bus's stop list into its full traversal: a
// ROUND bus's listed stops are already a closed loop; a DIRECT bus visits
// its stops forward then back, minus the repeated last stop.
func (c *Catalogue) fullStopSequence(id BusID) []StopID {
	b := c.buses[id]
	if b.kind != RouteDirect || len(b.stops) == 0 {
		return b.stops
	}

	full := make([]StopID, 0, len(b.stops)*2-1)
	full = append(full, b.stops...)
	for i := len(b.stops) - 2; i >= 0; i-- {
		full = append(full, b.stops[i])
	}
	return full
}
