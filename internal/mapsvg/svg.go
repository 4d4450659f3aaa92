// Package mapsvg renders a Catalogue's stops and buses into an SVG
// document. The markup grammar (attribute names, order, and optional-field
// omission) is load-bearing: two renders of the same catalogue and
// settings must produce byte-identical output, so this package formats
// tags directly rather than going through a general-purpose XML encoder.
package mapsvg

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a render color: either empty (renders as "none"), a named CSS
// string, an RGB triple, or an RGBA quadruple with a float opacity.
type Color struct {
	kind ColorKind
	name string
	r, g, b uint8
	a       float64
}

// ColorKind discriminates the Color variant.
type ColorKind int

const (
	ColorNone ColorKind = iota
	ColorNamed
	ColorRGB
	ColorRGBA
)

// NoneColor is the zero Color, rendering as "none".
var NoneColor = Color{kind: ColorNone}

// NamedColor wraps a CSS color string (e.g. "red", "#ffaa00").
func NamedColor(name string) Color {
	return Color{kind: ColorNamed, name: name}
}

// RGBColor builds an opaque rgb(...) color.
func RGBColor(r, g, b uint8) Color {
	return Color{kind: ColorRGB, r: r, g: g, b: b}
}

// RGBAColor builds a translucent rgba(...) color.
func RGBAColor(r, g, b uint8, a float64) Color {
	return Color{kind: ColorRGBA, r: r, g: g, b: b, a: a}
}

func (c Color) String() string {
	switch c.kind {
	case ColorNamed:
		return c.name
	case ColorRGB:
		return fmt.Sprintf("rgb(%d,%d,%d)", c.r, c.g, c.b)
	case ColorRGBA:
		return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.r, c.g, c.b, trimFloat(c.a))
	default:
		return "none"
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Point is an x,y coordinate pair, in canvas units (after projection, or a
// raw offset in label-offset contexts).
type Point struct {
	X, Y float64
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func escapeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

type shapeStyle struct {
	fill        Color
	hasFill     bool
	stroke      Color
	hasStroke   bool
	strokeWidth float64
	hasWidth    bool
	lineCap     string
	lineJoin    string
}

func (s shapeStyle) writeAttrs(b *strings.Builder) {
	if s.hasFill {
		fmt.Fprintf(b, " fill=\"%s\"", s.fill)
	}
	if s.hasStroke {
		fmt.Fprintf(b, " stroke=\"%s\"", s.stroke)
	}
	if s.hasWidth {
		fmt.Fprintf(b, " stroke-width=\"%s\"", formatFloat(s.strokeWidth))
	}
	if s.lineCap != "" {
		fmt.Fprintf(b, " stroke-linecap=\"%s\"", s.lineCap)
	}
	if s.lineJoin != "" {
		fmt.Fprintf(b, " stroke-linejoin=\"%s\"", s.lineJoin)
	}
}

// writeCircle renders a <circle> element.
func writeCircle(b *strings.Builder, center Point, radius float64, style shapeStyle) {
	fmt.Fprintf(b, "  <circle cx=\"%s\" cy=\"%s\" r=\"%s\"",
		formatFloat(center.X), formatFloat(center.Y), formatFloat(radius))
	style.writeAttrs(b)
	b.WriteString("/>\n")
}

// writePolyline renders a <polyline> element. Note the source grammar's stray
// space before the trailing newline, unlike circle/text.
func writePolyline(b *strings.Builder, points []Point, style shapeStyle) {
	b.WriteString("  <polyline points=\"")
	for i, p := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(b, "%s,%s", formatFloat(p.X), formatFloat(p.Y))
	}
	b.WriteByte('"')
	style.writeAttrs(b)
	b.WriteString("/> \n")
}

type textSpec struct {
	pos      Point
	offset   Point
	fontSize int
	family   string
	weight   string
	data     string
	style    shapeStyle
}

// writeText renders a <text> element.
func writeText(b *strings.Builder, t textSpec) {
	fmt.Fprintf(b, "  <text x=\"%s\" y=\"%s\" dx=\"%s\" dy=\"%s\" font-size=\"%d\"",
		formatFloat(t.pos.X), formatFloat(t.pos.Y),
		formatFloat(t.offset.X), formatFloat(t.offset.Y),
		t.fontSize)
	if t.family != "" {
		fmt.Fprintf(b, " font-family=\"%s\"", t.family)
	}
	if t.weight != "" {
		fmt.Fprintf(b, " font-weight=\"%s\"", t.weight)
	}
	t.style.writeAttrs(b)
	b.WriteByte('>')
	b.WriteString(escapeText(t.data))
	b.WriteString("</text>\n")
}

const documentPreamble = "<?xml version=\"1.0\" encoding=\"UTF-8\" ?>\n" +
	"<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\">\n"

const documentFooter = "</svg>"
