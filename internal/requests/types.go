// Package requests defines the JSON request/response envelope and the
// Orchestrator that drives catalogue construction, lazy graph/router/map
// binding, and per-query dispatch. Wire-level parsing is intentionally
// thin — encoding/json struct tags plus a handful of variant-field parsers
// for the render-settings color/offset shapes — since the byte-level
// structured-input/output grammar is an external collaborator's concern,
// not this package's.
package requests

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/transitcat/transitcat/internal/mapsvg"
)

// Envelope is the top-level request document.
type Envelope struct {
	BaseRequests    []BaseRequest    `json:"base_requests"`
	RenderSettings  RawRenderSettings `json:"render_settings"`
	RoutingSettings RoutingSettings  `json:"routing_settings"`
	StatRequests    []StatRequest    `json:"stat_requests"`
}

// BaseRequest is one ingest item: either a Stop or a Bus, distinguished by
// Type.
type BaseRequest struct {
	Type string `json:"type"`

	// Stop fields.
	Name          string         `json:"name"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	RoadDistances map[string]int `json:"road_distances,omitempty"`

	// Bus fields.
	IsRoundtrip bool     `json:"is_roundtrip,omitempty"`
	Stops       []string `json:"stops,omitempty"`
}

// RoutingSettings carries the boarding delay and bus speed used to build
// edge weights.
type RoutingSettings struct {
	BusWaitTime float64 `json:"bus_wait_time"`
	BusVelocity float64 `json:"bus_velocity"`
}

// StatRequest is one query against the already-built catalogue/graph/map.
type StatRequest struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// RawRenderSettings is the wire shape of render_settings: most fields are
// plain numbers, but colors and offsets are variant-shaped (string vs.
// array), so they're parsed lazily by ToRenderSettings.
type RawRenderSettings struct {
	Width             float64         `json:"width"`
	Height            float64         `json:"height"`
	Padding           float64         `json:"padding"`
	LineWidth         float64         `json:"line_width"`
	StopRadius        float64         `json:"stop_radius"`
	BusLabelFontSize  int             `json:"bus_label_font_size"`
	BusLabelOffset    [2]float64      `json:"bus_label_offset"`
	StopLabelFontSize int             `json:"stop_label_font_size"`
	StopLabelOffset   [2]float64      `json:"stop_label_offset"`
	UnderlayerColor   json.RawMessage `json:"underlayer_color"`
	UnderlayerWidth   float64         `json:"underlayer_width"`
	ColorPalette      []json.RawMessage `json:"color_palette"`
}

// ToRenderSettings resolves the raw wire shape into mapsvg.Settings,
// parsing each variant color/offset field.
func (r RawRenderSettings) ToRenderSettings() (mapsvg.Settings, error) {
	underlayer, err := parseColor(r.UnderlayerColor)
	if err != nil {
		return mapsvg.Settings{}, fmt.Errorf("underlayer_color: %w", err)
	}

	palette := make([]mapsvg.Color, len(r.ColorPalette))
	for i, raw := range r.ColorPalette {
		c, err := parseColor(raw)
		if err != nil {
			return mapsvg.Settings{}, fmt.Errorf("color_palette[%d]: %w", i, err)
		}
		palette[i] = c
	}

	return mapsvg.Settings{
		Width:             r.Width,
		Height:            r.Height,
		Padding:           r.Padding,
		LineWidth:         r.LineWidth,
		StopRadius:        r.StopRadius,
		BusLabelFontSize:  r.BusLabelFontSize,
		BusLabelOffset:    mapsvg.Point{X: r.BusLabelOffset[0], Y: r.BusLabelOffset[1]},
		StopLabelFontSize: r.StopLabelFontSize,
		StopLabelOffset:   mapsvg.Point{X: r.StopLabelOffset[0], Y: r.StopLabelOffset[1]},
		UnderlayerColor:   underlayer,
		UnderlayerWidth:   r.UnderlayerWidth,
		ColorPalette:      palette,
	}, nil
}

// parseColor accepts a JSON string, a 3-element array (rgb), or a
// 4-element array (rgba). Any other shape is an error.
func parseColor(raw json.RawMessage) (mapsvg.Color, error) {
	if len(raw) == 0 {
		return mapsvg.NoneColor, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return mapsvg.NamedColor(asString), nil
	}

	var asArray []float64
	if err := json.Unmarshal(raw, &asArray); err == nil {
		switch len(asArray) {
		case 3:
			return mapsvg.RGBColor(uint8(asArray[0]), uint8(asArray[1]), uint8(asArray[2])), nil
		case 4:
			return mapsvg.RGBAColor(uint8(asArray[0]), uint8(asArray[1]), uint8(asArray[2]), asArray[3]), nil
		default:
			return mapsvg.Color{}, fmt.Errorf("color array must have 3 or 4 elements, got %d", len(asArray))
		}
	}

	return mapsvg.Color{}, fmt.Errorf("color must be a string or a 3/4-element array")
}

// RouteItem is one leg of a Route response payload: either
// {type:"Wait",stop_name,time} or {type:"Bus",bus,span_count,time}.
type RouteItem struct {
	Type      string  `json:"type"`
	StopName  string  `json:"stop_name,omitempty"`
	Bus       string  `json:"bus,omitempty"`
	SpanCount int     `json:"span_count,omitempty"`
	Time      float64 `json:"time"`
}

// Response is one element of the output batch. encoding/json's omitempty
// can't distinguish "field absent" from "present but empty slice" (a stop
// with no buses must still emit "buses": []), so Response marshals itself
// by hand, picking the field set for whichever kind it holds.
type Response struct {
	requestID    int
	errorMessage string

	kind responseKind
	buses           []string
	curvature       float64
	routeLength     int
	stopCount       int
	uniqueStopCount int
	svg             string
	totalTime       float64
	items           []RouteItem
}

type responseKind int

const (
	kindError responseKind = iota
	kindStop
	kindBus
	kindMap
	kindRoute
)

func notFound(requestID int) Response {
	return Response{requestID: requestID, kind: kindError, errorMessage: "not found"}
}

func stopResponse(requestID int, buses []string) Response {
	if buses == nil {
		buses = []string{}
	}
	return Response{requestID: requestID, kind: kindStop, buses: buses}
}

func busResponse(requestID int, curvature float64, routeLength, stopCount, uniqueStopCount int) Response {
	return Response{
		requestID:       requestID,
		kind:            kindBus,
		curvature:       curvature,
		routeLength:     routeLength,
		stopCount:       stopCount,
		uniqueStopCount: uniqueStopCount,
	}
}

func mapResponse(requestID int, svg string) Response {
	return Response{requestID: requestID, kind: kindMap, svg: svg}
}

func routeResponse(requestID int, totalTime float64, items []RouteItem) Response {
	if items == nil {
		items = []RouteItem{}
	}
	return Response{requestID: requestID, kind: kindRoute, totalTime: totalTime, items: items}
}

// MarshalJSON emits exactly the field set the response's schema names.
func (r Response) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case kindStop:
		return json.Marshal(struct {
			RequestID int      `json:"request_id"`
			Buses     []string `json:"buses"`
		}{r.requestID, r.buses})
	case kindBus:
		curvature := r.curvature
		if math.IsInf(curvature, 1) {
			// encoding/json can't represent +Inf; a degenerate
			// (zero-great-circle-length) route is rare enough that a
			// saturated float is an acceptable wire stand-in for the
			// domain-level +Inf curvature.
			curvature = math.MaxFloat64
		}
		return json.Marshal(struct {
			RequestID       int     `json:"request_id"`
			Curvature       float64 `json:"curvature"`
			RouteLength     int     `json:"route_length"`
			StopCount       int     `json:"stop_count"`
			UniqueStopCount int     `json:"unique_stop_count"`
		}{r.requestID, curvature, r.routeLength, r.stopCount, r.uniqueStopCount})
	case kindMap:
		return json.Marshal(struct {
			RequestID int    `json:"request_id"`
			Map       string `json:"map"`
		}{r.requestID, r.svg})
	case kindRoute:
		return json.Marshal(struct {
			RequestID int         `json:"request_id"`
			TotalTime float64     `json:"total_time"`
			Items     []RouteItem `json:"items"`
		}{r.requestID, r.totalTime, r.items})
	default:
		return json.Marshal(struct {
			RequestID    int    `json:"request_id"`
			ErrorMessage string `json:"error_message"`
		}{r.requestID, r.errorMessage})
	}
}
