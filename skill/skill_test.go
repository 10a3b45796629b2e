package skill

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tenantwise/steering/tool"
)

func writeSkill(t *testing.T, root, dir, content string) {
	t.Helper()
	path := filepath.Join(root, dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, ManifestFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestManager_LoadDir(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "search", `---
name: web_search
description: Search the web.
---
Use the search tool with a short query.`)
	writeSkill(t, root, "calc", `---
name: calculator
description: Evaluate arithmetic.
---
Call the calc tool with an expression.`)

	m := NewManager()
	if err := m.LoadDir(root); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	manifests := m.Manifests()
	if len(manifests) != 2 {
		t.Fatalf("Manifests() = %d entries, want 2", len(manifests))
	}
	// Sorted by name.
	if manifests[0].Name != "calculator" || manifests[1].Name != "web_search" {
		t.Errorf("Manifests() order = %q, %q", manifests[0].Name, manifests[1].Name)
	}

	if !m.Exists("web_search") {
		t.Error("Exists(web_search) = false")
	}
	if m.Exists("nope") {
		t.Error("Exists(nope) = true")
	}

	sk, err := m.Load("web_search")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sk.Instructions != "Use the search tool with a short query." {
		t.Errorf("Instructions = %q", sk.Instructions)
	}
	if sk.Description != "Search the web." {
		t.Errorf("Description = %q", sk.Description)
	}
}

func TestManager_LoadDirRejectsBadManifests(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing frontmatter", "just a body"},
		{"unterminated frontmatter", "---\nname: x\n"},
		{"missing name", "---\ndescription: d\n---\nbody"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeSkill(t, root, "bad", tt.content)
			if err := NewManager().LoadDir(root); err == nil {
				t.Error("LoadDir accepted invalid manifest")
			}
		})
	}
}

func TestManager_DuplicateNames(t *testing.T) {
	root := t.TempDir()
	manifest := `---
name: dup
description: d
---
body`
	writeSkill(t, root, "one", manifest)
	writeSkill(t, root, "two", manifest)

	if err := NewManager().LoadDir(root); err == nil {
		t.Error("LoadDir accepted duplicate skill names")
	}
}

func TestManager_RegisterTools(t *testing.T) {
	m := NewManager()
	if err := m.Register(&Skill{Manifest: Manifest{Name: "calc", Description: "d"}, Instructions: "i"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	calcTool := &tool.Func{
		ToolName:   "calc_eval",
		ToolSchema: tool.ObjectSchema(nil),
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			return "42", nil
		},
	}
	if err := m.RegisterTools("calc", calcTool); err != nil {
		t.Fatalf("RegisterTools: %v", err)
	}
	if err := m.RegisterTools("missing", calcTool); err == nil {
		t.Error("RegisterTools(missing) returned nil error")
	}

	sk, err := m.Load("calc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sk.Tools) != 1 || sk.Tools[0].Name() != "calc_eval" {
		t.Errorf("loaded skill tools = %v", sk.Tools)
	}
}
