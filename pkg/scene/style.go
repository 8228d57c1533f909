package scene

import (
	"fmt"
	"math"
	"strings"
)

// =============================================================================
// Fill Suppression Heuristic
// =============================================================================

// FillSuppression holds the thresholds that classify a solid container fill
// as a placeholder rather than an intended background. Design tools commonly
// leave pure white frame fills and near-invisible overlay fills behind;
// painting those verbatim buries the real content. The values are empirical
// and exposed through configuration rather than hard-coded at call sites.
type FillSuppression struct {
	// WhiteMin is the minimum per-channel value for a fill to count as pure
	// white. 1.0 means only exact white is suppressed.
	WhiteMin float64 `json:"whiteMin"`

	// BlackMax is the maximum per-channel value for a fill to count as
	// near-black.
	BlackMax float64 `json:"blackMax"`

	// AlphaMax is the effective alpha at or below which a fill counts as an
	// overlay regardless of its color.
	AlphaMax float64 `json:"alphaMax"`
}

// DefaultFillSuppression returns the tuned thresholds.
func DefaultFillSuppression() FillSuppression {
	return FillSuppression{WhiteMin: 1.0, BlackMax: 0.02, AlphaMax: 0.12}
}

// suppress reports whether a solid fill on a container reads as a
// placeholder under these thresholds.
func (f FillSuppression) suppress(p Paint) bool {
	c := p.Color
	if c.A*p.Opacity <= f.AlphaMax {
		return true
	}
	if c.R >= f.WhiteMin && c.G >= f.WhiteMin && c.B >= f.WhiteMin {
		return true
	}
	if c.R <= f.BlackMax && c.G <= f.BlackMax && c.B <= f.BlackMax {
		return true
	}
	return false
}

// =============================================================================
// Style Resolver
// =============================================================================

// StyleResolver turns one node's raw visual attributes into a renderer-ready
// [ComputedStyle]. Resolution is a pure function of the node: image fill URLs
// are filled in later by the compiler once asset resolution has run.
type StyleResolver struct {
	Suppression FillSuppression
}

// NewStyleResolver returns a resolver with default suppression thresholds.
func NewStyleResolver() StyleResolver {
	return StyleResolver{Suppression: DefaultFillSuppression()}
}

// Resolve computes the style of a single node. Missing or malformed
// attributes contribute nothing; Resolve never fails.
func (r StyleResolver) Resolve(n *Node) ComputedStyle {
	cs := ComputedStyle{Opacity: clamp01(n.Opacity)}

	r.resolveFill(n, &cs)
	r.resolveStroke(n, &cs)
	cs.BorderRadius = cornerRadiusCSS(n)
	r.resolveEffects(n, &cs)

	cs.MixBlendMode = blendModeCSS(n.BlendMode)
	cs.Transform = transformCSS(n.RelativeTransform)
	if n.ClipsContent {
		cs.Overflow = "hidden"
	}
	return cs
}

// resolveFill applies the first visible fill. Text nodes keep their fills
// for glyph coloring, so they never produce a box background here.
func (r StyleResolver) resolveFill(n *Node, cs *ComputedStyle) {
	if n.Type == KindText {
		return
	}
	p := firstVisiblePaint(n.Fills)
	if p == nil {
		return
	}

	switch {
	case p.Type == PaintSolid:
		if n.Type.Container() && r.Suppression.suppress(*p) {
			return
		}
		cs.Background = paintColor(*p)

	case p.Gradient():
		cs.Background = gradientCSS(*p)
		if p.Type == PaintGradientDiamond {
			cs.ClipPath = diamondClipPath
		}

	case p.Type == PaintImage:
		// The URL arrives after asset resolution; only the fit hints are
		// known at style time.
		cs.BackgroundRepeat = "no-repeat"
		switch p.ScaleMode {
		case "FIT":
			cs.BackgroundSize = "contain"
		case "TILE":
			cs.BackgroundSize = "auto"
			cs.BackgroundRepeat = "repeat"
		case "STRETCH", "CROP":
			cs.BackgroundSize = "100% 100%"
		default:
			cs.BackgroundSize = "cover"
		}
	}
}

// resolveStroke applies the first visible stroke. Strokes only draw on shape
// kinds; container strokes are editor chrome. OUTSIDE alignment becomes an
// outline so it cannot alter the box size, everything else becomes a border.
func (r StyleResolver) resolveStroke(n *Node, cs *ComputedStyle) {
	if !n.Type.Shape() {
		return
	}
	p := firstVisiblePaint(n.Strokes)
	if p == nil || n.StrokeWeight <= 0 {
		return
	}

	b := &Border{
		Width: n.StrokeWeight,
		Color: paintColor(*p),
		Style: "solid",
	}
	if len(n.StrokeDashes) > 0 {
		b.Style = "dashed"
	}
	if n.StrokeAlign == StrokeOutside {
		cs.Outline = b
	} else {
		cs.Border = b
	}
}

// resolveEffects folds the node's effect list into shadow and filter values.
func (r StyleResolver) resolveEffects(n *Node, cs *ComputedStyle) {
	var boxShadows, textShadows, filters []string

	for _, e := range n.Effects {
		if !e.Visible {
			continue
		}
		switch e.Type {
		case EffectDropShadow:
			if n.Type == KindText {
				textShadows = append(textShadows, fmt.Sprintf("%s %s %s %s",
					fmtPx(e.Offset.X), fmtPx(e.Offset.Y), fmtPx(e.Radius), e.Color.CSS()))
				continue
			}
			// drop-shadow follows the rendered silhouette, while box-shadow
			// would paint an opaque rectangle under transparent edges.
			filters = append(filters, fmt.Sprintf("drop-shadow(%s %s %s %s)",
				fmtPx(e.Offset.X), fmtPx(e.Offset.Y), fmtPx(e.Radius), e.Color.CSS()))

		case EffectInnerShadow:
			boxShadows = append(boxShadows, fmt.Sprintf("inset %s %s %s %s %s",
				fmtPx(e.Offset.X), fmtPx(e.Offset.Y), fmtPx(e.Radius), fmtPx(e.Spread), e.Color.CSS()))

		case EffectLayerBlur:
			filters = append(filters, fmt.Sprintf("blur(%s)", fmtPx(e.Radius)))

		case EffectBackgroundBlur:
			cs.BackdropFilter = fmt.Sprintf("blur(%s)", fmtPx(e.Radius))
		}
	}

	cs.BoxShadow = strings.Join(boxShadows, ", ")
	cs.TextShadow = strings.Join(textShadows, ", ")
	cs.Filter = strings.Join(filters, " ")
}

// firstVisiblePaint returns the first paint that would draw, or nil.
func firstVisiblePaint(paints []Paint) *Paint {
	for i := range paints {
		if paints[i].Visible && paints[i].Opacity > 0 {
			return &paints[i]
		}
	}
	return nil
}

// =============================================================================
// Corner Radius
// =============================================================================

// cornerRadiusCSS resolves the corner radius shorthand. Per-corner values
// override the uniform radius corner by corner; ellipses are always fully
// round.
func cornerRadiusCSS(n *Node) string {
	if n.Type == KindEllipse {
		return "50%"
	}

	uniform := 0.0
	if n.CornerRadius != nil {
		uniform = *n.CornerRadius
	}
	tl, tr, br, bl := uniform, uniform, uniform, uniform

	if n.RectangleCornerRadii != nil {
		tl, tr, br, bl = n.RectangleCornerRadii[0], n.RectangleCornerRadii[1], n.RectangleCornerRadii[2], n.RectangleCornerRadii[3]
	}
	if n.CornerRadiusTopLeft != nil {
		tl = *n.CornerRadiusTopLeft
	}
	if n.CornerRadiusTopRight != nil {
		tr = *n.CornerRadiusTopRight
	}
	if n.CornerRadiusBotRight != nil {
		br = *n.CornerRadiusBotRight
	}
	if n.CornerRadiusBotLeft != nil {
		bl = *n.CornerRadiusBotLeft
	}

	if tl == 0 && tr == 0 && br == 0 && bl == 0 {
		return ""
	}
	if tl == tr && tr == br && br == bl {
		return fmtPx(tl)
	}
	return fmt.Sprintf("%s %s %s %s", fmtPx(tl), fmtPx(tr), fmtPx(br), fmtPx(bl))
}

// =============================================================================
// Blend Mode and Transform
// =============================================================================

// blendModeCSS maps a document blend mode to its CSS name. Modes meaning "no
// blending" return "" and are dropped from the computed style.
func blendModeCSS(mode string) string {
	switch mode {
	case "", "NORMAL", "PASS_THROUGH":
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(mode), "_", "-")
}

// transformCSS converts a relative transform into a CSS matrix. Translation
// is dropped since placement already carries position, and pure rotations
// are intentionally ignored: document bounding boxes encode rotated geometry
// already, so applying the rotation twice would double it. What remains is
// scale, skew, and mirroring.
func transformCSS(t *Transform) string {
	if t == nil {
		return ""
	}
	a, c := t[0][0], t[0][1]
	b, d := t[1][0], t[1][1]

	if feq(a, 1) && feq(b, 0) && feq(c, 0) && feq(d, 1) {
		return ""
	}
	if pureRotation(a, b, c, d) {
		return ""
	}
	return fmt.Sprintf("matrix(%s, %s, %s, %s, 0, 0)", fmtNum(a), fmtNum(b), fmtNum(c), fmtNum(d))
}

// pureRotation reports whether the linear part is a rotation with no scale,
// skew, or mirror component: orthonormal columns and determinant +1.
func pureRotation(a, b, c, d float64) bool {
	det := a*d - b*c
	if !feq(det, 1) {
		return false
	}
	col1 := math.Hypot(a, b)
	col2 := math.Hypot(c, d)
	dot := a*c + b*d
	return feq(col1, 1) && feq(col2, 1) && feq(dot, 0)
}
