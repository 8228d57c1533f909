package io

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/quellt/boxwood/pkg/scene"
)

func TestSceneRoundTrip(t *testing.T) {
	root := &scene.StyledNode{
		ID:        "1:0",
		Name:      "Hero",
		Kind:      scene.KindFrame,
		Placement: scene.Placement{Width: 800, Height: 600},
		Style:     scene.ComputedStyle{Background: "#ffffff", Opacity: 1},
		Children: []*scene.StyledNode{
			{
				ID:        "1:1",
				Kind:      scene.KindText,
				Placement: scene.Placement{Left: 10, Top: 20, Width: 100, Height: 24},
				Style:     scene.ComputedStyle{Opacity: 1},
				TextStyle: &scene.RunStyle{FontFamily: "Inter", FontSize: 16},
				Runs:      []scene.TextRun{{Text: "Hi", Style: scene.RunStyle{FontFamily: "Inter", FontSize: 16}}},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteScene(root, &buf); err != nil {
		t.Fatalf("WriteScene: %v", err)
	}

	got, err := ReadScene(&buf)
	if err != nil {
		t.Fatalf("ReadScene: %v", err)
	}
	if !reflect.DeepEqual(got, root) {
		t.Errorf("round trip changed the tree:\ngot  %+v\nwant %+v", got, root)
	}
}

func TestReadSceneInvalid(t *testing.T) {
	if _, err := ReadScene(bytes.NewBufferString("not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := ReadScene(bytes.NewBufferString("{}")); err == nil {
		t.Error("expected error for scene without root id")
	}
}

func TestImportDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	raw := `{"name": "Test", "document": {"id": "0:0", "type": "DOCUMENT", "visible": true}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ImportDocument(path)
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if doc.Name != "Test" || doc.Root == nil || doc.Root.ID != "0:0" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestImportDocumentMissingFile(t *testing.T) {
	if _, err := ImportDocument(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExportScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	root := &scene.StyledNode{ID: "1:0", Kind: scene.KindFrame, Style: scene.ComputedStyle{Opacity: 1}}

	if err := ExportScene(root, path); err != nil {
		t.Fatalf("ExportScene: %v", err)
	}
	got, err := ImportScene(path)
	if err != nil {
		t.Fatalf("ImportScene: %v", err)
	}
	if got.ID != "1:0" {
		t.Errorf("got root %q", got.ID)
	}
}
