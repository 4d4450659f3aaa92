package mapsvg

import (
	"sort"
	"strings"
)

// Settings configures every stylistic knob of the rendered map, mirroring
// the render_settings object of the query envelope.
type Settings struct {
	Width, Height      float64
	Padding            float64
	LineWidth          float64
	StopRadius         float64
	BusLabelFontSize   int
	BusLabelOffset     Point
	StopLabelFontSize  int
	StopLabelOffset    Point
	UnderlayerColor    Color
	UnderlayerWidth    float64
	ColorPalette       []Color
}

// StopView and BusView are the renderer's read-only view of a catalogue's
// entities; the renderer package doesn't import catalogue directly so it
// stays reusable and independently testable.
type StopView struct {
	Name string
	Coordinates
}

type BusView struct {
	Name       string
	Stops      []StopView
	IsRoundtrip bool
}

// Render produces the full SVG document for the given buses, in the
// standard 4-pass order: bus polylines, bus labels, stop circles, stop
// labels — each pass iterating entities in lexicographic name order.
func Render(buses []BusView, settings Settings) string {
	nonEmpty := make([]BusView, 0, len(buses))
	for _, b := range buses {
		if len(b.Stops) > 0 {
			nonEmpty = append(nonEmpty, b)
		}
	}
	sort.Slice(nonEmpty, func(i, j int) bool { return nonEmpty[i].Name < nonEmpty[j].Name })

	stopSet := make(map[string]StopView)
	for _, b := range nonEmpty {
		for _, s := range b.Stops {
			stopSet[s.Name] = s
		}
	}
	stopNames := make([]string, 0, len(stopSet))
	for name := range stopSet {
		stopNames = append(stopNames, name)
	}
	sort.Strings(stopNames)

	allCoords := make([]Coordinates, 0, len(stopSet))
	for _, name := range stopNames {
		allCoords = append(allCoords, stopSet[name].Coordinates)
	}
	projector := NewSphereProjector(allCoords, settings.Width, settings.Height, settings.Padding)

	var b strings.Builder
	b.WriteString(documentPreamble)

	renderBusLines(&b, nonEmpty, projector, settings)
	renderBusLabels(&b, nonEmpty, projector, settings)
	renderStopCircles(&b, stopNames, stopSet, projector, settings)
	renderStopLabels(&b, stopNames, stopSet, projector, settings)

	b.WriteString(documentFooter)
	return b.String()
}

func (s Settings) paletteColor(i int) Color {
	if len(s.ColorPalette) == 0 {
		return NoneColor
	}
	return s.ColorPalette[i%len(s.ColorPalette)]
}

func busRoute(bus BusView) []StopView {
	if !bus.IsRoundtrip && len(bus.Stops) > 1 {
		full := make([]StopView, 0, len(bus.Stops)*2-1)
		full = append(full, bus.Stops...)
		for i := len(bus.Stops) - 2; i >= 0; i-- {
			full = append(full, bus.Stops[i])
		}
		return full
	}
	return bus.Stops
}

func renderBusLines(b *strings.Builder, buses []BusView, proj SphereProjector, settings Settings) {
	for i, bus := range buses {
		route := busRoute(bus)
		points := make([]Point, len(route))
		for j, s := range route {
			points[j] = proj.Project(s.Coordinates)
		}
		writePolyline(b, points, shapeStyle{
			hasFill:     true,
			fill:        NoneColor,
			hasStroke:   true,
			stroke:      settings.paletteColor(i),
			hasWidth:    true,
			strokeWidth: settings.LineWidth,
			lineCap:     "round",
			lineJoin:    "round",
		})
	}
}

func renderBusLabels(b *strings.Builder, buses []BusView, proj SphereProjector, settings Settings) {
	for i, bus := range buses {
		color := settings.paletteColor(i)
		emitBusLabelPair(b, bus.Name, bus.Stops[0], proj, settings, color)

		last := bus.Stops[len(bus.Stops)-1]
		if !bus.IsRoundtrip && last.Name != bus.Stops[0].Name {
			emitBusLabelPair(b, bus.Name, last, proj, settings, color)
		}
	}
}

func emitBusLabelPair(b *strings.Builder, label string, stop StopView, proj SphereProjector, settings Settings, color Color) {
	pos := proj.Project(stop.Coordinates)
	base := textSpec{
		pos:      pos,
		offset:   settings.BusLabelOffset,
		fontSize: settings.BusLabelFontSize,
		family:   "Verdana",
		weight:   "bold",
		data:     label,
	}

	underlayer := base
	underlayer.style = shapeStyle{
		hasFill:   true,
		fill:      settings.UnderlayerColor,
		hasStroke: true,
		stroke:    settings.UnderlayerColor,
		hasWidth:  true, strokeWidth: settings.UnderlayerWidth,
		lineCap:  "round",
		lineJoin: "round",
	}
	writeText(b, underlayer)

	foreground := base
	foreground.style = shapeStyle{hasFill: true, fill: color}
	writeText(b, foreground)
}

func renderStopCircles(b *strings.Builder, stopNames []string, stopSet map[string]StopView, proj SphereProjector, settings Settings) {
	for _, name := range stopNames {
		pos := proj.Project(stopSet[name].Coordinates)
		writeCircle(b, pos, settings.StopRadius, shapeStyle{hasFill: true, fill: NamedColor("white")})
	}
}

func renderStopLabels(b *strings.Builder, stopNames []string, stopSet map[string]StopView, proj SphereProjector, settings Settings) {
	for _, name := range stopNames {
		pos := proj.Project(stopSet[name].Coordinates)
		base := textSpec{
			pos:      pos,
			offset:   settings.StopLabelOffset,
			fontSize: settings.StopLabelFontSize,
			family:   "Verdana",
			data:     name,
		}

		underlayer := base
		underlayer.style = shapeStyle{
			hasFill:   true,
			fill:      settings.UnderlayerColor,
			hasStroke: true,
			stroke:    settings.UnderlayerColor,
			hasWidth:  true, strokeWidth: settings.UnderlayerWidth,
			lineCap:  "round",
			lineJoin: "round",
		}
		writeText(b, underlayer)

		foreground := base
		foreground.style = shapeStyle{hasFill: true, fill: NamedColor("black")}
		writeText(b, foreground)
	}
}
