package transitgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transitcat/transitcat/internal/catalogue"
	"github.com/transitcat/transitcat/internal/geo"
)

func buildRoundCatalogue(t *testing.T) *catalogue.Catalogue {
	t.Helper()
	c := catalogue.New()
	c.AddStop("A", geo.Coordinates{Lat: 0, Lng: 0})
	c.AddStop("B", geo.Coordinates{Lat: 0, Lng: 1})
	c.AddStop("C", geo.Coordinates{Lat: 0, Lng: 2})
	require.NoError(t, c.SetDistance("A", "B", 1000))
	require.NoError(t, c.SetDistance("B", "C", 1000))
	require.NoError(t, c.SetDistance("C", "A", 2000))
	_, err := c.AddBus("1", []string{"A", "B", "C", "A"}, catalogue.RouteRound)
	require.NoError(t, err)
	return c
}

func TestBuildCreatesTwoVerticesPerStop(t *testing.T) {
	c := buildRoundCatalogue(t)
	g := Build(c, 6, 40, nil)

	assert.Equal(t, c.StopCount()*2, g.Underlying().Nodes().Len())
}

func TestBuildCreatesBoardingEdgePerStop(t *testing.T) {
	c := buildRoundCatalogue(t)
	g := Build(c, 6, 40, nil)

	a, _ := c.StopByName("A")
	leg, ok := g.Leg(ArriveVertex(a), BoardVertex(a))
	require.True(t, ok)
	assert.Equal(t, LegWait, leg.Kind)

	edge := g.Underlying().WeightedEdge(ArriveVertex(a), BoardVertex(a))
	require.NotNil(t, edge)
	assert.Equal(t, 6.0, edge.Weight())
}

func TestBuildCreatesRideEdgeWithPositiveWeight(t *testing.T) {
	c := buildRoundCatalogue(t)
	g := Build(c, 6, 40, nil)

	a, _ := c.StopByName("A")
	b, _ := c.StopByName("B")

	edge := g.Underlying().WeightedEdge(BoardVertex(a), ArriveVertex(b))
	require.NotNil(t, edge)
	assert.Greater(t, edge.Weight(), 0.0)

	leg, ok := g.Leg(BoardVertex(a), ArriveVertex(b))
	require.True(t, ok)
	assert.Equal(t, LegBus, leg.Kind)
	assert.Equal(t, 1, leg.SpanCount)
}

func TestDirectBusMaterializesBothDirections(t *testing.T) {
	c := catalogue.New()
	c.AddStop("A", geo.Coordinates{Lat: 0, Lng: 0})
	c.AddStop("B", geo.Coordinates{Lat: 0, Lng: 1})
	require.NoError(t, c.SetDistance("A", "B", 500))
	require.NoError(t, c.SetDistance("B", "A", 500))
	_, err := c.AddBus("14", []string{"A", "B"}, catalogue.RouteDirect)
	require.NoError(t, err)

	g := Build(c, 5, 40, nil)
	a, _ := c.StopByName("A")
	b, _ := c.StopByName("B")

	_, forward := g.Leg(BoardVertex(a), ArriveVertex(b))
	_, backward := g.Leg(BoardVertex(b), ArriveVertex(a))
	assert.True(t, forward)
	assert.True(t, backward)
}

func TestDedupKeepsSingleEdgeOnCollision(t *testing.T) {
	c := catalogue.New()
	c.AddStop("A", geo.Coordinates{Lat: 0, Lng: 0})
	c.AddStop("B", geo.Coordinates{Lat: 0, Lng: 1})
	require.NoError(t, c.SetDistance("A", "B", 5000))
	_, err := c.AddBus("slow", []string{"A", "B"}, catalogue.RouteRound)
	require.NoError(t, err)
	_, err = c.AddBus("fast", []string{"A", "B"}, catalogue.RouteRound)
	require.NoError(t, err)

	g := Build(c, 5, 10, nil)
	a, _ := c.StopByName("A")
	b, _ := c.StopByName("B")

	// Both buses propose the identical (from, to) edge since they share a
	// stop list and velocity; only one weighted edge should survive.
	edge := g.Underlying().WeightedEdge(BoardVertex(a), ArriveVertex(b))
	require.NotNil(t, edge)
	// 2 boarding (wait) edges + 1 deduped ride edge, even though two buses
	// each proposed one.
	assert.Equal(t, 3, g.Underlying().Edges().Len())
}
