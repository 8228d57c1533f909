package scene

// =============================================================================
// Styled Output Tree
// =============================================================================

// StyledNode is one box of the compiled scene. The tree mirrors the input
// node tree minus hidden and zero-area branches, with every visual attribute
// resolved into renderer-ready values. Both the live preview and the static
// exporter consume this type unchanged.
type StyledNode struct {
	ID        string        `json:"id" bson:"id"`
	Name      string        `json:"name,omitempty" bson:"name,omitempty"`
	Kind      Kind          `json:"kind" bson:"kind"`
	Placement Placement     `json:"placement" bson:"placement"`
	Style     ComputedStyle `json:"style" bson:"style"`

	// TextStyle and Runs are set on text nodes only. TextStyle is the
	// resolved base style; runs that match it exactly are "plain" and can be
	// rendered without a styled span.
	TextStyle *RunStyle `json:"textStyle,omitempty" bson:"text_style,omitempty"`
	Runs      []TextRun `json:"runs,omitempty" bson:"runs,omitempty"`

	// AssetRef names the remote image this box displays: an image fill
	// reference, or the node id for flattened subtrees and vector exports.
	// AssetURL is the resolved source, empty while resolution is pending or
	// after it failed. Renderers show a placeholder for ref-without-URL.
	AssetRef  string `json:"assetRef,omitempty" bson:"asset_ref,omitempty"`
	AssetURL  string `json:"assetUrl,omitempty" bson:"asset_url,omitempty"`
	Flattened bool   `json:"flattened,omitempty" bson:"flattened,omitempty"`

	Children []*StyledNode `json:"children,omitempty" bson:"children,omitempty"`
}

// Walk visits the styled node and its descendants depth-first in paint
// order. Returning false from fn prunes the subtree below that node.
func (s *StyledNode) Walk(fn func(*StyledNode) bool) {
	if s == nil {
		return
	}
	if !fn(s) {
		return
	}
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

// Count returns the number of boxes in the styled tree.
func (s *StyledNode) Count() int {
	n := 0
	s.Walk(func(*StyledNode) bool {
		n++
		return true
	})
	return n
}

// =============================================================================
// Placement
// =============================================================================

// Placement positions a box relative to its parent's content box. Sizes and
// offsets are CSS pixels.
type Placement struct {
	Left   float64 `json:"left" bson:"left"`
	Top    float64 `json:"top" bson:"top"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	// Static marks children positioned by their parent's auto-layout flow.
	// Renderers must not position static boxes absolutely; Left and Top are
	// retained for diffing and debug overlays only.
	Static bool `json:"static,omitempty" bson:"static,omitempty"`

	// Flex is set on auto-layout containers and describes how they place
	// their static children.
	Flex *Flex `json:"flex,omitempty" bson:"flex,omitempty"`
}

// Flex captures an auto-layout container's flow in CSS flexbox terms.
type Flex struct {
	Direction string  `json:"direction" bson:"direction"`
	Justify   string  `json:"justify,omitempty" bson:"justify,omitempty"`
	Align     string  `json:"align,omitempty" bson:"align,omitempty"`
	Gap       float64 `json:"gap,omitempty" bson:"gap,omitempty"`
	Padding   Insets  `json:"padding" bson:"padding"`
}

// Insets are per-edge offsets in CSS pixels.
type Insets struct {
	Top    float64 `json:"top" bson:"top"`
	Right  float64 `json:"right" bson:"right"`
	Bottom float64 `json:"bottom" bson:"bottom"`
	Left   float64 `json:"left" bson:"left"`
}

// Zero reports whether all four edges are zero.
func (i Insets) Zero() bool {
	return i.Top == 0 && i.Right == 0 && i.Bottom == 0 && i.Left == 0
}

// =============================================================================
// Computed Style
// =============================================================================

// ComputedStyle is the fully resolved visual style of one box. Values use
// CSS syntax so renderers apply them verbatim; empty strings mean the
// property is absent. Opacity is always present and defaults to 1.
type ComputedStyle struct {
	Background       string `json:"background,omitempty" bson:"background,omitempty"`
	BackgroundImage  string `json:"backgroundImage,omitempty" bson:"background_image,omitempty"`
	BackgroundSize   string `json:"backgroundSize,omitempty" bson:"background_size,omitempty"`
	BackgroundRepeat string `json:"backgroundRepeat,omitempty" bson:"background_repeat,omitempty"`

	Border       *Border `json:"border,omitempty" bson:"border,omitempty"`
	Outline      *Border `json:"outline,omitempty" bson:"outline,omitempty"`
	BorderRadius string  `json:"borderRadius,omitempty" bson:"border_radius,omitempty"`

	BoxShadow      string `json:"boxShadow,omitempty" bson:"box_shadow,omitempty"`
	TextShadow     string `json:"textShadow,omitempty" bson:"text_shadow,omitempty"`
	Filter         string `json:"filter,omitempty" bson:"filter,omitempty"`
	BackdropFilter string `json:"backdropFilter,omitempty" bson:"backdrop_filter,omitempty"`

	Opacity      float64 `json:"opacity" bson:"opacity"`
	MixBlendMode string  `json:"mixBlendMode,omitempty" bson:"mix_blend_mode,omitempty"`
	Transform    string  `json:"transform,omitempty" bson:"transform,omitempty"`
	ClipPath     string  `json:"clipPath,omitempty" bson:"clip_path,omitempty"`
	Overflow     string  `json:"overflow,omitempty" bson:"overflow,omitempty"`
	ZIndex       int     `json:"zIndex,omitempty" bson:"z_index,omitempty"`
}

// Border describes one painted edge ring: a border or an outline.
type Border struct {
	Width float64 `json:"width" bson:"width"`
	Color string  `json:"color" bson:"color"`
	Style string  `json:"style" bson:"style"`
}

// =============================================================================
// Text Runs
// =============================================================================

// TextRun is a maximal span of characters sharing one resolved style and
// hyperlink target. Concatenating the Text of every run in order reproduces
// the node's source characters, including line breaks: break runs carry the
// literal separator text with Break set.
type TextRun struct {
	Text  string   `json:"text" bson:"text"`
	Style RunStyle `json:"style" bson:"style"`
	Link  string   `json:"link,omitempty" bson:"link,omitempty"`
	Break bool     `json:"break,omitempty" bson:"break,omitempty"`
}

// Plain reports whether the run needs no styling beyond the node's base
// text style.
func (r TextRun) Plain(base RunStyle) bool {
	return r.Style == base && r.Link == ""
}

// RunStyle is a resolved character style. All fields are value types so two
// styles compare with ==; run segmentation depends on that.
type RunStyle struct {
	FontFamily     string  `json:"fontFamily,omitempty" bson:"font_family,omitempty"`
	FontWeight     float64 `json:"fontWeight,omitempty" bson:"font_weight,omitempty"`
	FontSize       float64 `json:"fontSize,omitempty" bson:"font_size,omitempty"`
	Italic         bool    `json:"italic,omitempty" bson:"italic,omitempty"`
	TextDecoration string  `json:"textDecoration,omitempty" bson:"text_decoration,omitempty"`
	TextTransform  string  `json:"textTransform,omitempty" bson:"text_transform,omitempty"`
	LetterSpacing  float64 `json:"letterSpacing,omitempty" bson:"letter_spacing,omitempty"`
	LineHeight     float64 `json:"lineHeight,omitempty" bson:"line_height,omitempty"`
	Color          string  `json:"color,omitempty" bson:"color,omitempty"`
}
