package catalogue

// RouteKind distinguishes how a bus's stop list is traversed. It is a named
// int type with three constants; String reports any value outside them as
// "unknown".
type RouteKind int

const (
	RouteUnknown RouteKind = iota
	RouteRound
	RouteDirect
)

func (k RouteKind) String() string {
	switch k {
	case RouteRound:
		return "round"
	case RouteDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// RouteKindFromRoundtrip translates the boolean flag the JSON envelope
// carries (base_requests[].is_roundtrip) into a RouteKind.
func RouteKindFromRoundtrip(isRoundtrip bool) RouteKind {
	if isRoundtrip {
		return RouteRound
	}
	return RouteDirect
}
