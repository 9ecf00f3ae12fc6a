package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexiqai/voice-assistant/internal/files"
)

func TestLoadSpecs(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "files.yaml")
	yamlDoc := "- path: src/main.go\n  content: |\n    package main\n- path: README.md\n"
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	var specs []files.FileSpec
	if err := loadSpecs(yamlPath, &specs); err != nil {
		t.Fatalf("Failed to load YAML specs: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("Expected 2 specs, got %d", len(specs))
	}
	if specs[0].Path != "src/main.go" || specs[0].Content != "package main\n" {
		t.Errorf("Unexpected first spec %+v", specs[0])
	}
	if specs[1].Path != "README.md" || specs[1].Content != "" {
		t.Errorf("Unexpected second spec %+v", specs[1])
	}

	jsonPath := filepath.Join(dir, "files.json")
	if err := os.WriteFile(jsonPath, []byte(`[{"path":"a.txt","content":"a"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	specs = nil
	if err := loadSpecs(jsonPath, &specs); err != nil {
		t.Fatalf("Failed to load JSON specs: %v", err)
	}
	if len(specs) != 1 || specs[0].Path != "a.txt" || specs[0].Content != "a" {
		t.Errorf("Unexpected JSON specs %+v", specs)
	}

	if err := loadSpecs(filepath.Join(dir, "missing.yaml"), &specs); err == nil {
		t.Error("Expected error for missing spec file")
	}
}

func TestPrintContents(t *testing.T) {
	w, err := files.NewWorkspace(10)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "a.txt")
	w.CreateFiles([]files.FileSpec{{Path: path, Content: "alpha"}})

	var buf bytes.Buffer
	printContents(&buf, w)

	expected := "\n--- " + path + " ---\nalpha\n\n1 file(s) in the content store\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}
