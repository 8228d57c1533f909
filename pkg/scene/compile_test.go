package scene

import (
	"reflect"
	"testing"
)

func rect(id string, x, y, w, h float64) *Node {
	return &Node{ID: id, Type: KindRectangle, Visible: true, Opacity: 1,
		AbsoluteBoundingBox: box(x, y, w, h)}
}

func TestCompilePrunesInvisible(t *testing.T) {
	root := &Node{
		ID: "root", Type: KindFrame, Visible: true, Opacity: 1,
		AbsoluteBoundingBox: box(0, 0, 800, 600),
		Children: []*Node{
			{ID: "hidden", Type: KindRectangle, Visible: false, Opacity: 1,
				AbsoluteBoundingBox: box(0, 0, 10, 10),
				Children:            []*Node{rect("hidden-child", 0, 0, 5, 5)}},
			{ID: "ghost", Type: KindRectangle, Visible: true, Opacity: 0,
				AbsoluteBoundingBox: box(0, 0, 10, 10)},
			rect("kept", 10, 10, 100, 50),
		},
	}

	out := NewCompiler(Options{}).Compile(root)
	if out == nil {
		t.Fatal("Compile() = nil")
	}
	if len(out.Children) != 1 {
		t.Fatalf("children = %d, want 1 (hidden and ghost pruned)", len(out.Children))
	}
	if out.Children[0].ID != "kept" {
		t.Errorf("surviving child = %q, want kept", out.Children[0].ID)
	}

	t.Run("hidden root compiles to nil", func(t *testing.T) {
		r := &Node{ID: "r", Type: KindFrame, Visible: false, Opacity: 1}
		if got := NewCompiler(Options{}).Compile(r); got != nil {
			t.Errorf("Compile() = %+v, want nil", got)
		}
	})

	t.Run("translucent nodes survive", func(t *testing.T) {
		r := &Node{ID: "r", Type: KindFrame, Visible: true, Opacity: 0.5,
			AbsoluteBoundingBox: box(0, 0, 10, 10)}
		got := NewCompiler(Options{}).Compile(r)
		if got == nil || got.Style.Opacity != 0.5 {
			t.Errorf("Compile() = %+v, want opacity 0.5", got)
		}
	})
}

func TestCompileSiblingZIndex(t *testing.T) {
	root := &Node{
		ID: "root", Type: KindFrame, Visible: true, Opacity: 1,
		AbsoluteBoundingBox: box(0, 0, 800, 600),
		Children: []*Node{
			{ID: "skipped", Type: KindRectangle, Visible: false, Opacity: 1},
			rect("a", 0, 0, 10, 10),
			rect("b", 0, 0, 10, 10),
		},
	}

	out := NewCompiler(Options{}).Compile(root)
	if len(out.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(out.Children))
	}
	// Indexes follow document order, including pruned siblings, so paint
	// order is stable regardless of visibility toggles.
	if out.Children[0].Style.ZIndex != 1 || out.Children[1].Style.ZIndex != 2 {
		t.Errorf("z-indexes = %d, %d, want 1, 2",
			out.Children[0].Style.ZIndex, out.Children[1].Style.ZIndex)
	}

	t.Run("cap", func(t *testing.T) {
		many := &Node{ID: "root", Type: KindFrame, Visible: true, Opacity: 1,
			AbsoluteBoundingBox: box(0, 0, 100, 100)}
		for i := 0; i < 6; i++ {
			many.Children = append(many.Children, rect("c", 0, 0, 5, 5))
		}
		out := NewCompiler(Options{MaxZIndex: 3}).Compile(many)
		last := out.Children[len(out.Children)-1]
		if last.Style.ZIndex != 3 {
			t.Errorf("capped z-index = %d, want 3", last.Style.ZIndex)
		}
	})
}

func TestCompileFlattenedGroup(t *testing.T) {
	group := &Node{
		ID: "g:1", Type: KindGroup, Visible: true, Opacity: 1,
		AbsoluteBoundingBox: box(20, 20, 200, 100),
		Children: []*Node{
			maskEllipse(),
			rect("inner", 20, 20, 50, 50),
		},
	}
	root := &Node{ID: "root", Type: KindFrame, Visible: true, Opacity: 1,
		AbsoluteBoundingBox: box(0, 0, 800, 600),
		Children:            []*Node{group}}

	t.Run("resolved by node id", func(t *testing.T) {
		out := NewCompiler(Options{Assets: map[string]string{
			"g:1": "https://cdn.example.com/g1.png",
		}}).Compile(root)

		g := out.Children[0]
		if !g.Flattened {
			t.Fatal("Flattened = false, want true")
		}
		if len(g.Children) != 0 {
			t.Errorf("flattened group kept %d children", len(g.Children))
		}
		if g.AssetURL != "https://cdn.example.com/g1.png" {
			t.Errorf("AssetURL = %q", g.AssetURL)
		}
		if g.Style.BackgroundImage != g.AssetURL || g.Style.BackgroundSize != "100% 100%" {
			t.Errorf("background = %q %q", g.Style.BackgroundImage, g.Style.BackgroundSize)
		}
		if g.Placement.Left != 20 || g.Placement.Top != 20 {
			t.Errorf("placement = %+v, want 20,20", g.Placement)
		}
	})

	t.Run("unresolved keeps the ref for placeholders", func(t *testing.T) {
		out := NewCompiler(Options{}).Compile(root)
		g := out.Children[0]
		if !g.Flattened || g.AssetRef != "g:1" || g.AssetURL != "" {
			t.Errorf("group = %+v, want flattened ref without URL", g)
		}
	})

	t.Run("fill ref fallback", func(t *testing.T) {
		withRef := &Node{
			ID: "g:2", Type: KindGroup, Visible: true, Opacity: 1,
			AbsoluteBoundingBox: box(0, 0, 50, 50),
			Children: []*Node{
				maskEllipse(),
				{ID: "img", Type: KindRectangle, Visible: true, Opacity: 1,
					AbsoluteBoundingBox: box(0, 0, 50, 50),
					Fills:               []Paint{{Type: PaintImage, Visible: true, Opacity: 1, ImageRef: "ref-9"}}},
			},
		}
		r := &Node{ID: "root", Type: KindFrame, Visible: true, Opacity: 1,
			AbsoluteBoundingBox: box(0, 0, 100, 100), Children: []*Node{withRef}}

		out := NewCompiler(Options{Assets: map[string]string{
			"ref-9": "https://cdn.example.com/9.png",
		}}).Compile(r)
		if got := out.Children[0].AssetURL; got != "https://cdn.example.com/9.png" {
			t.Errorf("AssetURL = %q, want the fill-ref fallback", got)
		}
	})
}

func TestCompileImageFill(t *testing.T) {
	node := rect("img", 0, 0, 40, 40)
	node.Fills = []Paint{{Type: PaintImage, Visible: true, Opacity: 1, ImageRef: "ref-1", ScaleMode: "FILL"}}
	root := &Node{ID: "root", Type: KindFrame, Visible: true, Opacity: 1,
		AbsoluteBoundingBox: box(0, 0, 100, 100), Children: []*Node{node}}

	t.Run("resolved", func(t *testing.T) {
		out := NewCompiler(Options{Assets: map[string]string{
			"ref-1": "https://cdn.example.com/1.png",
		}}).Compile(root)
		c := out.Children[0]
		if c.AssetRef != "ref-1" || c.AssetURL != "https://cdn.example.com/1.png" {
			t.Errorf("asset = %q %q", c.AssetRef, c.AssetURL)
		}
		if c.Style.BackgroundImage != c.AssetURL || c.Style.BackgroundSize != "cover" {
			t.Errorf("background = %q %q", c.Style.BackgroundImage, c.Style.BackgroundSize)
		}
	})

	t.Run("unresolved degrades to a placeholder ref", func(t *testing.T) {
		out := NewCompiler(Options{}).Compile(root)
		c := out.Children[0]
		if c.AssetRef != "ref-1" || c.AssetURL != "" || c.Style.BackgroundImage != "" {
			t.Errorf("asset = %+v, want ref without URL", c)
		}
	})
}

func TestCompileShapeCandidate(t *testing.T) {
	vec := &Node{ID: "v:1", Type: KindVector, Visible: true, Opacity: 1,
		AbsoluteBoundingBox: box(0, 0, 24, 24),
		Fills:               []Paint{solid(red)}}
	root := &Node{ID: "root", Type: KindFrame, Visible: true, Opacity: 1,
		AbsoluteBoundingBox: box(0, 0, 100, 100), Children: []*Node{vec}}

	t.Run("bitmap replaces the box approximation", func(t *testing.T) {
		out := NewCompiler(Options{Assets: map[string]string{
			"v:1": "https://cdn.example.com/v1.svg",
		}}).Compile(root)
		c := out.Children[0]
		if c.AssetURL == "" || c.Style.BackgroundImage == "" {
			t.Errorf("vector bitmap not applied: %+v", c)
		}
	})

	t.Run("falls back to the styled box", func(t *testing.T) {
		out := NewCompiler(Options{}).Compile(root)
		c := out.Children[0]
		if c.AssetURL != "" || c.AssetRef != "" {
			t.Errorf("unresolved vector must not carry asset fields: %+v", c)
		}
		if c.Style.Background != "#ff0000" {
			t.Errorf("Background = %q, want the fill", c.Style.Background)
		}
	})
}

func TestCompileText(t *testing.T) {
	txt := textNode("Hello", []int{1, 1}, map[int]StyleOverride{1: {FontWeight: fptr(700)}})
	txt.AbsoluteBoundingBox = box(5, 5, 90, 20)
	root := &Node{ID: "root", Type: KindFrame, Visible: true, Opacity: 1,
		AbsoluteBoundingBox: box(0, 0, 100, 100), Children: []*Node{txt}}

	out := NewCompiler(Options{}).Compile(root)
	c := out.Children[0]
	if c.TextStyle == nil || c.TextStyle.FontFamily != "Inter" {
		t.Fatalf("TextStyle = %+v", c.TextStyle)
	}
	if len(c.Runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(c.Runs))
	}
}

func TestCompileRootWithoutBounds(t *testing.T) {
	root := &Node{
		ID: "page", Type: KindCanvas, Visible: true, Opacity: 1,
		Children: []*Node{
			rect("a", 100, 50, 200, 100),
			rect("b", 50, 200, 100, 100),
		},
	}

	out := NewCompiler(Options{}).Compile(root)
	// Union of the children: x 50..300, y 50..300.
	if out.Placement.Width != 250 || out.Placement.Height != 250 {
		t.Errorf("root size = %v x %v, want 250 x 250",
			out.Placement.Width, out.Placement.Height)
	}
	a := out.Children[0]
	if a.Placement.Left != 50 || a.Placement.Top != 0 {
		t.Errorf("child a placement = %+v, want left=50 top=0", a.Placement)
	}
}

func TestCompileDeterministic(t *testing.T) {
	root := &Node{
		ID: "root", Type: KindFrame, Visible: true, Opacity: 1,
		AbsoluteBoundingBox: box(0, 0, 800, 600),
		Children: []*Node{
			rect("a", 10, 10, 100, 50),
			{ID: "g", Type: KindGroup, Visible: true, Opacity: 1,
				AbsoluteBoundingBox: box(0, 0, 50, 50),
				Children:            []*Node{maskEllipse()}},
		},
	}
	c := NewCompiler(Options{Assets: map[string]string{"g": "https://cdn.example.com/g.png"}})

	first := c.Compile(root)
	second := c.Compile(root)
	if !reflect.DeepEqual(first, second) {
		t.Error("compiling the same tree twice produced different output")
	}
}
