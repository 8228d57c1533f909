package scene

import (
	"encoding/json"
	"strings"
)

// =============================================================================
// Node Kinds
// =============================================================================

// Kind identifies what a design node is. The set is closed: anything a
// document declares outside this list parses as [KindUnknown] and is carried
// through the pipeline as an empty styled box rather than dropped.
type Kind string

const (
	KindDocument     Kind = "DOCUMENT"
	KindCanvas       Kind = "CANVAS"
	KindPage         Kind = "PAGE"
	KindFrame        Kind = "FRAME"
	KindGroup        Kind = "GROUP"
	KindSection      Kind = "SECTION"
	KindComponent    Kind = "COMPONENT"
	KindComponentSet Kind = "COMPONENT_SET"
	KindInstance     Kind = "INSTANCE"
	KindRectangle    Kind = "RECTANGLE"
	KindEllipse      Kind = "ELLIPSE"
	KindPolygon      Kind = "REGULAR_POLYGON"
	KindStar         Kind = "STAR"
	KindLine         Kind = "LINE"
	KindVector       Kind = "VECTOR"
	KindBooleanOp    Kind = "BOOLEAN_OPERATION"
	KindText         Kind = "TEXT"
	KindSlice        Kind = "SLICE"
	KindUnknown      Kind = "UNKNOWN"
)

var knownKinds = map[Kind]bool{
	KindDocument:     true,
	KindCanvas:       true,
	KindPage:         true,
	KindFrame:        true,
	KindGroup:        true,
	KindSection:      true,
	KindComponent:    true,
	KindComponentSet: true,
	KindInstance:     true,
	KindRectangle:    true,
	KindEllipse:      true,
	KindPolygon:      true,
	KindStar:         true,
	KindLine:         true,
	KindVector:       true,
	KindBooleanOp:    true,
	KindText:         true,
	KindSlice:        true,
}

// ParseKind normalizes a raw type string from a document. Unrecognized values
// collapse to [KindUnknown] so a newer document format cannot break a compile.
func ParseKind(s string) Kind {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if knownKinds[k] {
		return k
	}
	return KindUnknown
}

// Container reports whether nodes of this kind lay out children.
func (k Kind) Container() bool {
	switch k {
	case KindDocument, KindCanvas, KindPage, KindFrame, KindGroup, KindSection,
		KindComponent, KindComponentSet, KindInstance:
		return true
	}
	return false
}

// Shape reports whether nodes of this kind draw vector geometry. Shape nodes
// with image fills become asset lookups; bare ones become styled boxes.
func (k Kind) Shape() bool {
	switch k {
	case KindRectangle, KindEllipse, KindPolygon, KindStar, KindLine,
		KindVector, KindBooleanOp:
		return true
	}
	return false
}

// =============================================================================
// Geometry
// =============================================================================

// Rect is an axis-aligned bounding box in absolute document coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the rect has no usable area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Vector is a 2D offset, used by shadow effects.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform is a 2x3 affine matrix in row-major order:
//
//	[a c tx]
//	[b d ty]
//
// encoded in documents as [[a, c, tx], [b, d, ty]].
type Transform [2][3]float64

// Identity reports whether the matrix is the identity transform within a
// small tolerance. Documents round-trip floats through JSON, so exact
// comparison is too strict.
func (t Transform) Identity() bool {
	return feq(t[0][0], 1) && feq(t[0][1], 0) && feq(t[0][2], 0) &&
		feq(t[1][0], 0) && feq(t[1][1], 1) && feq(t[1][2], 0)
}

func feq(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

// =============================================================================
// Color and Paint
// =============================================================================

// Color holds normalized channel values in [0, 1] as documents encode them.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Paint types as they appear in document fill and stroke arrays.
const (
	PaintSolid           = "SOLID"
	PaintGradientLinear  = "GRADIENT_LINEAR"
	PaintGradientRadial  = "GRADIENT_RADIAL"
	PaintGradientAngular = "GRADIENT_ANGULAR"
	PaintGradientDiamond = "GRADIENT_DIAMOND"
	PaintImage           = "IMAGE"
)

// GradientStop is a single color stop along a gradient axis.
type GradientStop struct {
	Position float64 `json:"position"`
	Color    Color   `json:"color"`
}

// Paint describes one entry of a fill or stroke array. Absent visibility
// defaults to visible and absent opacity to fully opaque, matching document
// semantics where omission means "no modifier".
type Paint struct {
	Type              string         `json:"type"`
	Visible           bool           `json:"visible"`
	Opacity           float64        `json:"opacity"`
	Color             Color          `json:"color"`
	GradientStops     []GradientStop `json:"gradientStops,omitempty"`
	GradientTransform *Transform     `json:"gradientTransform,omitempty"`
	ScaleMode         string         `json:"scaleMode,omitempty"`
	ImageRef          string         `json:"imageRef,omitempty"`
	ImageTransform    *Transform     `json:"imageTransform,omitempty"`
}

func (p *Paint) UnmarshalJSON(data []byte) error {
	type alias Paint
	aux := alias{Visible: true, Opacity: 1}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Paint(aux)
	return nil
}

// Gradient reports whether the paint is any of the gradient variants.
func (p Paint) Gradient() bool {
	switch p.Type {
	case PaintGradientLinear, PaintGradientRadial, PaintGradientAngular, PaintGradientDiamond:
		return true
	}
	return false
}

// =============================================================================
// Effects
// =============================================================================

// Effect types as they appear in document effect arrays.
const (
	EffectDropShadow     = "DROP_SHADOW"
	EffectInnerShadow    = "INNER_SHADOW"
	EffectLayerBlur      = "LAYER_BLUR"
	EffectBackgroundBlur = "BACKGROUND_BLUR"
)

// Effect is one entry of a node's effect list.
type Effect struct {
	Type    string  `json:"type"`
	Visible bool    `json:"visible"`
	Radius  float64 `json:"radius"`
	Color   Color   `json:"color"`
	Offset  Vector  `json:"offset"`
	Spread  float64 `json:"spread"`
}

func (e *Effect) UnmarshalJSON(data []byte) error {
	type alias Effect
	aux := alias{Visible: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Effect(aux)
	return nil
}

// =============================================================================
// Text Styling
// =============================================================================

// Hyperlink is a link target attached to a text range. Type is either "URL"
// or "NODE"; only URL targets survive into text runs.
type Hyperlink struct {
	Type   string `json:"type"`
	URL    string `json:"url,omitempty"`
	NodeID string `json:"nodeID,omitempty"`
}

// TypeStyle is the complete character styling of a text node. It appears once
// per text node as the base style; per-range deviations arrive separately as
// a [StyleOverride] table.
type TypeStyle struct {
	FontFamily     string     `json:"fontFamily"`
	FontWeight     float64    `json:"fontWeight"`
	FontSize       float64    `json:"fontSize"`
	Italic         bool       `json:"italic"`
	TextDecoration string     `json:"textDecoration,omitempty"`
	TextCase       string     `json:"textCase,omitempty"`
	LetterSpacing  float64    `json:"letterSpacing"`
	LineHeightPx   float64    `json:"lineHeightPx"`
	Fills          []Paint    `json:"fills,omitempty"`
	Hyperlink      *Hyperlink `json:"hyperlink,omitempty"`
}

// StyleOverride is a sparse TypeStyle: only the fields a document explicitly
// sets are non-nil, everything else falls through to the base style.
type StyleOverride struct {
	FontFamily     *string    `json:"fontFamily,omitempty"`
	FontWeight     *float64   `json:"fontWeight,omitempty"`
	FontSize       *float64   `json:"fontSize,omitempty"`
	Italic         *bool      `json:"italic,omitempty"`
	TextDecoration *string    `json:"textDecoration,omitempty"`
	TextCase       *string    `json:"textCase,omitempty"`
	LetterSpacing  *float64   `json:"letterSpacing,omitempty"`
	LineHeightPx   *float64   `json:"lineHeightPx,omitempty"`
	Fills          []Paint    `json:"fills,omitempty"`
	Hyperlink      *Hyperlink `json:"hyperlink,omitempty"`
}

// Apply layers the override on top of a base style and returns the result.
func (o StyleOverride) Apply(base TypeStyle) TypeStyle {
	out := base
	if o.FontFamily != nil {
		out.FontFamily = *o.FontFamily
	}
	if o.FontWeight != nil {
		out.FontWeight = *o.FontWeight
	}
	if o.FontSize != nil {
		out.FontSize = *o.FontSize
	}
	if o.Italic != nil {
		out.Italic = *o.Italic
	}
	if o.TextDecoration != nil {
		out.TextDecoration = *o.TextDecoration
	}
	if o.TextCase != nil {
		out.TextCase = *o.TextCase
	}
	if o.LetterSpacing != nil {
		out.LetterSpacing = *o.LetterSpacing
	}
	if o.LineHeightPx != nil {
		out.LineHeightPx = *o.LineHeightPx
	}
	if o.Fills != nil {
		out.Fills = o.Fills
	}
	if o.Hyperlink != nil {
		out.Hyperlink = o.Hyperlink
	}
	return out
}

// =============================================================================
// Layout
// =============================================================================

// Auto-layout modes.
const (
	LayoutNone       = "NONE"
	LayoutHorizontal = "HORIZONTAL"
	LayoutVertical   = "VERTICAL"
)

// Axis alignment values shared by primary and counter axes.
const (
	AlignMin          = "MIN"
	AlignCenter       = "CENTER"
	AlignMax          = "MAX"
	AlignSpaceBetween = "SPACE_BETWEEN"
	AlignBaseline     = "BASELINE"
)

// =============================================================================
// Export Settings
// =============================================================================

// ExportSetting is a per-node export preset declared by the designer.
type ExportSetting struct {
	Suffix string `json:"suffix,omitempty"`
	Format string `json:"format"`
}

// =============================================================================
// Node
// =============================================================================

// StrokeAlign values.
const (
	StrokeInside  = "INSIDE"
	StrokeOutside = "OUTSIDE"
	StrokeCenter  = "CENTER"
)

// Mask types.
const (
	MaskAlpha     = "ALPHA"
	MaskVector    = "VECTOR"
	MaskLuminance = "LUMINANCE"
)

// Node is one element of a parsed design document. The tree is immutable
// after parsing: every pipeline stage reads nodes and writes its results into
// a separate [StyledNode] tree.
type Node struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Type    Kind    `json:"type"`
	Visible bool    `json:"visible"`
	Opacity float64 `json:"opacity"`

	Children []*Node `json:"children,omitempty"`

	AbsoluteBoundingBox  *Rect `json:"absoluteBoundingBox,omitempty"`
	AbsoluteRenderBounds *Rect `json:"absoluteRenderBounds,omitempty"`

	Fills        []Paint   `json:"fills,omitempty"`
	Strokes      []Paint   `json:"strokes,omitempty"`
	StrokeWeight float64   `json:"strokeWeight,omitempty"`
	StrokeAlign  string    `json:"strokeAlign,omitempty"`
	StrokeDashes []float64 `json:"strokeDashes,omitempty"`

	Effects []Effect `json:"effects,omitempty"`

	CornerRadius         *float64    `json:"cornerRadius,omitempty"`
	RectangleCornerRadii *[4]float64 `json:"rectangleCornerRadii,omitempty"`
	CornerRadiusTopLeft  *float64    `json:"cornerRadiusTopLeft,omitempty"`
	CornerRadiusTopRight *float64    `json:"cornerRadiusTopRight,omitempty"`
	CornerRadiusBotRight *float64    `json:"cornerRadiusBottomRight,omitempty"`
	CornerRadiusBotLeft  *float64    `json:"cornerRadiusBottomLeft,omitempty"`

	IsMask   bool   `json:"isMask,omitempty"`
	MaskType string `json:"maskType,omitempty"`

	BlendMode         string     `json:"blendMode,omitempty"`
	Rotation          float64    `json:"rotation,omitempty"`
	RelativeTransform *Transform `json:"relativeTransform,omitempty"`

	ExportSettings []ExportSetting `json:"exportSettings,omitempty"`

	ClipsContent bool `json:"clipsContent,omitempty"`

	LayoutMode            string  `json:"layoutMode,omitempty"`
	LayoutPositioning     string  `json:"layoutPositioning,omitempty"`
	ItemSpacing           float64 `json:"itemSpacing,omitempty"`
	PaddingLeft           float64 `json:"paddingLeft,omitempty"`
	PaddingRight          float64 `json:"paddingRight,omitempty"`
	PaddingTop            float64 `json:"paddingTop,omitempty"`
	PaddingBottom         float64 `json:"paddingBottom,omitempty"`
	PrimaryAxisAlignItems string  `json:"primaryAxisAlignItems,omitempty"`
	CounterAxisAlignItems string  `json:"counterAxisAlignItems,omitempty"`

	Characters              string                `json:"characters,omitempty"`
	Style                   *TypeStyle            `json:"style,omitempty"`
	CharacterStyleOverrides []int                 `json:"characterStyleOverrides,omitempty"`
	StyleOverrideTable      map[int]StyleOverride `json:"styleOverrideTable,omitempty"`
}

// UnmarshalJSON applies document defaults before decoding: omitted visibility
// means visible and omitted opacity means opaque. Unknown type strings
// normalize to [KindUnknown].
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node
	aux := alias{Visible: true, Opacity: 1}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*n = Node(aux)
	n.Type = ParseKind(string(n.Type))
	return nil
}

// ImageRef returns the image reference of the first visible image fill, or
// "" when the node has none. This is the handle asset resolution keys on.
func (n *Node) ImageRef() string {
	for _, p := range n.Fills {
		if p.Type == PaintImage && p.Visible && p.ImageRef != "" {
			return p.ImageRef
		}
	}
	return ""
}

// HasVisibleFill reports whether any fill would actually draw.
func (n *Node) HasVisibleFill() bool {
	for _, p := range n.Fills {
		if p.Visible && p.Opacity > 0 {
			return true
		}
	}
	return false
}

// Walk visits the node and its descendants depth-first in document order.
// Returning false from fn prunes the subtree below that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
