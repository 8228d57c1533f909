package scene

import (
	"encoding/json"
	"testing"
)

func TestNodeUnmarshalDefaults(t *testing.T) {
	t.Run("visibility and opacity default on", func(t *testing.T) {
		var n Node
		if err := json.Unmarshal([]byte(`{"id":"1:2","type":"FRAME"}`), &n); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !n.Visible {
			t.Error("Visible = false, want true when omitted")
		}
		if n.Opacity != 1 {
			t.Errorf("Opacity = %v, want 1 when omitted", n.Opacity)
		}
	})

	t.Run("explicit values survive", func(t *testing.T) {
		var n Node
		if err := json.Unmarshal([]byte(`{"id":"1:2","type":"FRAME","visible":false,"opacity":0.5}`), &n); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if n.Visible {
			t.Error("Visible = true, want false")
		}
		if n.Opacity != 0.5 {
			t.Errorf("Opacity = %v, want 0.5", n.Opacity)
		}
	})

	t.Run("unknown type collapses", func(t *testing.T) {
		var n Node
		if err := json.Unmarshal([]byte(`{"id":"1:2","type":"WASHING_MACHINE"}`), &n); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if n.Type != KindUnknown {
			t.Errorf("Type = %v, want %v", n.Type, KindUnknown)
		}
	})

	t.Run("override table accepts numeric string keys", func(t *testing.T) {
		raw := `{
			"id": "1:2", "type": "TEXT",
			"styleOverrideTable": {"45": {"fontWeight": 700}}
		}`
		var n Node
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		o, ok := n.StyleOverrideTable[45]
		if !ok {
			t.Fatal("StyleOverrideTable missing key 45")
		}
		if o.FontWeight == nil || *o.FontWeight != 700 {
			t.Errorf("FontWeight = %v, want 700", o.FontWeight)
		}
		if o.FontSize != nil {
			t.Error("FontSize should stay nil when absent")
		}
	})
}

func TestPaintUnmarshalDefaults(t *testing.T) {
	var p Paint
	if err := json.Unmarshal([]byte(`{"type":"SOLID","color":{"r":1,"g":0,"b":0,"a":1}}`), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !p.Visible {
		t.Error("Visible = false, want true when omitted")
	}
	if p.Opacity != 1 {
		t.Errorf("Opacity = %v, want 1 when omitted", p.Opacity)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"FRAME", KindFrame},
		{"frame", KindFrame},
		{"PAGE", KindPage},
		{"  TEXT ", KindText},
		{"BOOLEAN_OPERATION", KindBooleanOp},
		{"", KindUnknown},
		{"GRADIENT", KindUnknown},
	}
	for _, tt := range tests {
		if got := ParseKind(tt.in); got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKindClassification(t *testing.T) {
	if !KindFrame.Container() || KindRectangle.Container() {
		t.Error("container classification wrong for FRAME/RECTANGLE")
	}
	if !KindPage.Container() || !KindCanvas.Container() {
		t.Error("PAGE and CANVAS must classify as containers")
	}
	if !KindVector.Shape() || KindGroup.Shape() {
		t.Error("shape classification wrong for VECTOR/GROUP")
	}
	if KindText.Container() || KindText.Shape() {
		t.Error("TEXT must be neither container nor shape")
	}
}

func TestNodeImageRef(t *testing.T) {
	n := &Node{
		Fills: []Paint{
			{Type: PaintSolid, Visible: true, Opacity: 1},
			{Type: PaintImage, Visible: false, Opacity: 1, ImageRef: "hidden"},
			{Type: PaintImage, Visible: true, Opacity: 1, ImageRef: "ref-1"},
		},
	}
	if got := n.ImageRef(); got != "ref-1" {
		t.Errorf("ImageRef() = %q, want %q", got, "ref-1")
	}

	empty := &Node{Fills: []Paint{{Type: PaintSolid, Visible: true, Opacity: 1}}}
	if got := empty.ImageRef(); got != "" {
		t.Errorf("ImageRef() = %q, want empty", got)
	}
}

func TestNodeWalkPrunes(t *testing.T) {
	root := &Node{
		ID: "root",
		Children: []*Node{
			{ID: "skip", Children: []*Node{{ID: "hidden-child"}}},
			{ID: "keep"},
		},
	}

	var visited []string
	root.Walk(func(n *Node) bool {
		visited = append(visited, n.ID)
		return n.ID != "skip"
	})

	want := []string{"root", "skip", "keep"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited %v, want %v", visited, want)
		}
	}
}

func TestTransformIdentity(t *testing.T) {
	id := Transform{{1, 0, 0}, {0, 1, 0}}
	if !id.Identity() {
		t.Error("identity matrix not recognized")
	}
	rot := Transform{{0, -1, 0}, {1, 0, 0}}
	if rot.Identity() {
		t.Error("rotation matrix misread as identity")
	}
	// JSON round-trips introduce float noise below the tolerance.
	noisy := Transform{{1.0000001, 0, 0}, {0, 0.9999999, 0}}
	if !noisy.Identity() {
		t.Error("near-identity matrix should pass the tolerance")
	}
}

func TestStyleOverrideApply(t *testing.T) {
	base := TypeStyle{
		FontFamily: "Inter",
		FontWeight: 400,
		FontSize:   16,
		Fills:      []Paint{{Type: PaintSolid, Visible: true, Opacity: 1, Color: Color{A: 1}}},
	}

	weight := 700.0
	italic := true
	out := StyleOverride{FontWeight: &weight, Italic: &italic}.Apply(base)

	if out.FontWeight != 700 {
		t.Errorf("FontWeight = %v, want 700", out.FontWeight)
	}
	if !out.Italic {
		t.Error("Italic = false, want true")
	}
	if out.FontFamily != "Inter" || out.FontSize != 16 {
		t.Error("untouched fields must fall through to the base style")
	}
	if len(out.Fills) != 1 {
		t.Error("base fills must survive when the override has none")
	}
}
