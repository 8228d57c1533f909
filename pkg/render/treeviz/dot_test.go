package treeviz

import (
	"strings"
	"testing"

	"github.com/quellt/boxwood/pkg/scene"
)

func sampleTree() *scene.StyledNode {
	return &scene.StyledNode{
		ID:        "1:0",
		Name:      "Hero",
		Kind:      scene.KindFrame,
		Placement: scene.Placement{Width: 800, Height: 600},
		Children: []*scene.StyledNode{
			{
				ID:        "1:1",
				Name:      "Icon",
				Kind:      scene.KindGroup,
				Placement: scene.Placement{Left: 10, Top: 20, Width: 24, Height: 24},
				AssetRef:  "1:1",
				Flattened: true,
			},
			{
				ID:        "1:2",
				Kind:      scene.KindText,
				Placement: scene.Placement{Left: 48, Top: 16, Width: 200, Height: 32},
				Runs:      []scene.TextRun{{Text: "Hi"}},
				Children: []*scene.StyledNode{
					{ID: "1:3", Kind: scene.KindRectangle, Placement: scene.Placement{Width: 4, Height: 4}},
				},
			},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleTree(), Options{})

	for _, want := range []string{
		"digraph scene {",
		`"1:0" [label="FRAME\nHero"]`,
		`"1:0" -> "1:1";`,
		`"1:0" -> "1:2";`,
		`"1:2" -> "1:3";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sampleTree(), Options{Detailed: true})

	for _, want := range []string{
		`800x600 @ (0, 0)`,
		`24x24 @ (10, 20)`,
		"asset 1:1",
		"1 runs",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("detailed DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTFlattenedStyling(t *testing.T) {
	dot := ToDOT(sampleTree(), Options{})

	var flattenedLine string
	for _, line := range strings.Split(dot, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), `"1:1"`) && strings.Contains(line, "label=") {
			flattenedLine = line
			break
		}
	}
	if flattenedLine == "" {
		t.Fatalf("no node line for flattened box:\n%s", dot)
	}
	if !strings.Contains(flattenedLine, "dashed") || !strings.Contains(flattenedLine, "lightgrey") {
		t.Errorf("flattened box should render dashed and grey, got: %s", flattenedLine)
	}
}

func TestToDOTMaxDepth(t *testing.T) {
	dot := ToDOT(sampleTree(), Options{MaxDepth: 1})

	if !strings.Contains(dot, `"1:2"`) {
		t.Error("depth-1 boxes should be kept")
	}
	if strings.Contains(dot, `"1:3"`) {
		t.Errorf("depth-2 boxes should be pruned:\n%s", dot)
	}
}

func TestToDOTNilRoot(t *testing.T) {
	dot := ToDOT(nil, Options{})
	if !strings.Contains(dot, "digraph scene {") || !strings.Contains(dot, "}") {
		t.Errorf("nil root should still produce a valid empty digraph:\n%s", dot)
	}
	if strings.Contains(dot, "->") {
		t.Error("nil root must not produce edges")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g></g></svg>`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("dimensions should be rewritten to pixels: %s", out)
	}
	if strings.Contains(out, "pt\"") {
		t.Errorf("point units should be gone: %s", out)
	}
}
