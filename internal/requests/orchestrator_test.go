package requests

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEnvelope(t *testing.T, raw string) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	return env
}

const sampleRenderSettings = `{
	"width": 600, "height": 400, "padding": 50,
	"line_width": 14, "stop_radius": 5,
	"bus_label_font_size": 20, "bus_label_offset": [7, 15],
	"stop_label_font_size": 20, "stop_label_offset": [7, -3],
	"underlayer_color": [255, 255, 255, 0.85], "underlayer_width": 3,
	"color_palette": ["green", [255, 160, 0], "red"]
}`

func TestScenarioS1RoundBusFallbackDistance(t *testing.T) {
	envJSON := `{
		"base_requests": [
			{"type": "Stop", "name": "A", "latitude": 55.0, "longitude": 37.0, "road_distances": {"B": 1000}},
			{"type": "Stop", "name": "B", "latitude": 55.0, "longitude": 37.01},
			{"type": "Bus", "name": "1", "is_roundtrip": true, "stops": ["A", "B", "A"]}
		],
		"render_settings": ` + sampleRenderSettings + `,
		"routing_settings": {"bus_wait_time": 6, "bus_velocity": 40},
		"stat_requests": [{"id": 1, "type": "Bus", "name": "1"}]
	}`

	orch, err := New(mustEnvelope(t, envJSON), true, nil)
	require.NoError(t, err)

	resp := orch.Run([]StatRequest{{ID: 1, Type: "Bus", Name: "1"}})
	require.Len(t, resp, 1)

	out, err := json.Marshal(resp[0])
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, float64(3), decoded["stop_count"])
	assert.Equal(t, float64(2), decoded["unique_stop_count"])
	assert.Equal(t, float64(2000), decoded["route_length"])
}

func TestScenarioS2DirectBusAsymmetricDistances(t *testing.T) {
	envJSON := `{
		"base_requests": [
			{"type": "Stop", "name": "A", "latitude": 55.0, "longitude": 37.0, "road_distances": {"B": 1500}},
			{"type": "Stop", "name": "B", "latitude": 55.0, "longitude": 37.01, "road_distances": {"A": 1800}},
			{"type": "Bus", "name": "2", "is_roundtrip": false, "stops": ["A", "B"]}
		],
		"render_settings": ` + sampleRenderSettings + `,
		"routing_settings": {"bus_wait_time": 6, "bus_velocity": 40},
		"stat_requests": []
	}`

	orch, err := New(mustEnvelope(t, envJSON), true, nil)
	require.NoError(t, err)

	resp := orch.Run([]StatRequest{{ID: 1, Type: "Bus", Name: "2"}})
	out, _ := json.Marshal(resp[0])
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, float64(3), decoded["stop_count"])
	assert.Equal(t, float64(2), decoded["unique_stop_count"])
	assert.Equal(t, float64(3300), decoded["route_length"])
}

func TestScenarioS3RouteTiming(t *testing.T) {
	envJSON := `{
		"base_requests": [
			{"type": "Stop", "name": "A", "latitude": 55.0, "longitude": 37.0, "road_distances": {"B": 1500}},
			{"type": "Stop", "name": "B", "latitude": 55.0, "longitude": 37.01, "road_distances": {"A": 1800}},
			{"type": "Bus", "name": "2", "is_roundtrip": false, "stops": ["A", "B"]}
		],
		"render_settings": ` + sampleRenderSettings + `,
		"routing_settings": {"bus_wait_time": 6, "bus_velocity": 40},
		"stat_requests": []
	}`

	orch, err := New(mustEnvelope(t, envJSON), true, nil)
	require.NoError(t, err)

	resp := orch.Run([]StatRequest{{ID: 1, Type: "Route", From: "A", To: "B"}})
	out, _ := json.Marshal(resp[0])
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.InDelta(t, 8.25, decoded["total_time"], 0.01)
	items := decoded["items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "Wait", first["type"])
	assert.Equal(t, "A", first["stop_name"])
	second := items[1].(map[string]interface{})
	assert.Equal(t, "Bus", second["type"])
	assert.Equal(t, "2", second["bus"])
	assert.Equal(t, float64(1), second["span_count"])
}

func TestScenarioS4UnreachableRoute(t *testing.T) {
	envJSON := `{
		"base_requests": [
			{"type": "Stop", "name": "A", "latitude": 55.0, "longitude": 37.0},
			{"type": "Stop", "name": "B", "latitude": 55.0, "longitude": 37.01}
		],
		"render_settings": ` + sampleRenderSettings + `,
		"routing_settings": {"bus_wait_time": 6, "bus_velocity": 40},
		"stat_requests": []
	}`

	orch, err := New(mustEnvelope(t, envJSON), true, nil)
	require.NoError(t, err)

	resp := orch.Run([]StatRequest{{ID: 1, Type: "Route", From: "A", To: "B"}})
	out, _ := json.Marshal(resp[0])
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "not found", decoded["error_message"])
}

func TestScenarioS6StopQueries(t *testing.T) {
	envJSON := `{
		"base_requests": [
			{"type": "Stop", "name": "A", "latitude": 55.0, "longitude": 37.0, "road_distances": {"B": 1000}},
			{"type": "Stop", "name": "B", "latitude": 55.0, "longitude": 37.01},
			{"type": "Bus", "name": "1", "is_roundtrip": true, "stops": ["A", "B", "A"]}
		],
		"render_settings": ` + sampleRenderSettings + `,
		"routing_settings": {"bus_wait_time": 6, "bus_velocity": 40},
		"stat_requests": []
	}`

	orch, err := New(mustEnvelope(t, envJSON), true, nil)
	require.NoError(t, err)

	resp := orch.Run([]StatRequest{
		{ID: 1, Type: "Stop", Name: "A"},
		{ID: 2, Type: "Stop", Name: "C"},
	})

	out1, _ := json.Marshal(resp[0])
	var decoded1 map[string]interface{}
	require.NoError(t, json.Unmarshal(out1, &decoded1))
	assert.Equal(t, []interface{}{"1"}, decoded1["buses"])

	out2, _ := json.Marshal(resp[1])
	var decoded2 map[string]interface{}
	require.NoError(t, json.Unmarshal(out2, &decoded2))
	assert.Equal(t, "not found", decoded2["error_message"])
}

func TestMapQueryIsCachedAfterFirstRender(t *testing.T) {
	envJSON := `{
		"base_requests": [
			{"type": "Stop", "name": "A", "latitude": 55.0, "longitude": 37.0, "road_distances": {"B": 1000}},
			{"type": "Stop", "name": "B", "latitude": 55.0, "longitude": 37.01},
			{"type": "Bus", "name": "1", "is_roundtrip": true, "stops": ["A", "B", "A"]}
		],
		"render_settings": ` + sampleRenderSettings + `,
		"routing_settings": {"bus_wait_time": 6, "bus_velocity": 40},
		"stat_requests": []
	}`

	orch, err := New(mustEnvelope(t, envJSON), true, nil)
	require.NoError(t, err)

	resp := orch.Run([]StatRequest{
		{ID: 1, Type: "Map"},
		{ID: 2, Type: "Map"},
	})

	out1, _ := json.Marshal(resp[0])
	out2, _ := json.Marshal(resp[1])

	var d1, d2 map[string]interface{}
	require.NoError(t, json.Unmarshal(out1, &d1))
	require.NoError(t, json.Unmarshal(out2, &d2))
	assert.Equal(t, d1["map"], d2["map"])
	assert.NotEmpty(t, d1["map"])
}

func TestConstructionFailsOnUnknownBusStop(t *testing.T) {
	envJSON := `{
		"base_requests": [
			{"type": "Stop", "name": "A", "latitude": 55.0, "longitude": 37.0},
			{"type": "Bus", "name": "1", "is_roundtrip": true, "stops": ["A", "ghost"]}
		],
		"render_settings": ` + sampleRenderSettings + `,
		"routing_settings": {"bus_wait_time": 6, "bus_velocity": 40},
		"stat_requests": []
	}`

	_, err := New(mustEnvelope(t, envJSON), true, nil)
	assert.Error(t, err)
}
