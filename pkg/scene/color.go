package scene

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// Color Formatting
// =============================================================================

// CSS renders the color as a CSS value: #rrggbb when fully opaque, otherwise
// rgba() with the alpha rounded to three decimals.
func (c Color) CSS() string {
	return c.cssWithAlpha(c.A)
}

func (c Color) cssWithAlpha(alpha float64) string {
	r := channel(c.R)
	g := channel(c.G)
	b := channel(c.B)
	a := clamp01(alpha)
	if a >= 0.9995 {
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, fmtAlpha(a))
}

func channel(v float64) int {
	return int(math.Round(clamp01(v) * 255))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func fmtAlpha(a float64) string {
	return strconv.FormatFloat(math.Round(a*1000)/1000, 'f', -1, 64)
}

// fmtNum renders a numeric CSS component rounded to two decimals with
// trailing zeros trimmed, so 8 stays "8" and 8.5 stays "8.5".
func fmtNum(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// fmtPx renders a pixel length.
func fmtPx(v float64) string {
	return fmtNum(v) + "px"
}

// =============================================================================
// Paint Formatting
// =============================================================================

// paintColor renders a solid paint as a CSS color, folding the paint's own
// opacity into the alpha channel.
func paintColor(p Paint) string {
	return p.Color.cssWithAlpha(p.Color.A * p.Opacity)
}

// paintCSS renders a paint as a CSS background value. Image paints return ""
// since their URL is carried separately on the computed style.
func paintCSS(p Paint) string {
	switch p.Type {
	case PaintSolid:
		return paintColor(p)
	case PaintGradientLinear, PaintGradientRadial, PaintGradientAngular, PaintGradientDiamond:
		return gradientCSS(p)
	}
	return ""
}

// gradientCSS renders gradient paints. Linear and angular gradients derive
// their CSS angle from the paint's transform matrix; radial gradients map to
// their CSS counterpart with the transform ignored; diamond gradients render
// as radial and rely on the caller to clip the box to a diamond path.
func gradientCSS(p Paint) string {
	if len(p.GradientStops) == 0 {
		return ""
	}

	stops := make([]string, len(p.GradientStops))
	for i, s := range p.GradientStops {
		stops[i] = s.Color.cssWithAlpha(s.Color.A*p.Opacity) + " " + fmtNum(clamp01(s.Position)*100) + "%"
	}
	list := strings.Join(stops, ", ")

	switch p.Type {
	case PaintGradientLinear:
		return fmt.Sprintf("linear-gradient(%sdeg, %s)", fmtNum(gradientAngle(p.GradientTransform)), list)
	case PaintGradientRadial, PaintGradientDiamond:
		return fmt.Sprintf("radial-gradient(circle, %s)", list)
	case PaintGradientAngular:
		return fmt.Sprintf("conic-gradient(from %sdeg, %s)", fmtNum(gradientAngle(p.GradientTransform)), list)
	}
	return ""
}

// gradientAngle converts a gradient transform into a CSS angle in degrees.
// The matrix maps the unit gradient axis into node space; the CSS convention
// has 0deg pointing up and angles growing clockwise, so the identity
// transform (axis pointing right) comes out as 90deg.
func gradientAngle(t *Transform) float64 {
	if t == nil {
		return 90
	}
	rad := math.Atan2(t[1][0], t[0][0])
	deg := rad*180/math.Pi + 90
	// Normalize to [0, 360).
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// diamondClipPath is applied to boxes whose first fill is a diamond
// gradient, approximating the diamond falloff the source tool renders.
const diamondClipPath = "polygon(50% 0%, 100% 50%, 50% 100%, 0% 50%)"
