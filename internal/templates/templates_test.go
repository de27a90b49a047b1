package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prdflow/internal/logging"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := logging.NewTestLogger()
	return NewStore(dir, logger), dir
}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	store, _ := newTestStore(t)

	for _, name := range []string{NameCreatePRD, NameGenerateTasks, NameProcessTaskList} {
		tpl, err := store.Load(name)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", name, err)
		}
		if tpl.Name != name {
			t.Errorf("Load(%q).Name = %q", name, tpl.Name)
		}
		if tpl.Description == "" {
			t.Errorf("Load(%q) has no description from frontmatter", name)
		}
		if strings.Contains(tpl.Body, "---\ndescription:") {
			t.Errorf("Load(%q) body still contains frontmatter", name)
		}
		if !strings.HasPrefix(strings.TrimSpace(tpl.Body), "# Rule:") {
			t.Errorf("Load(%q) body does not start with the template heading: %q", name, tpl.Body[:40])
		}
	}
}

func TestLoad_StorageDirWins(t *testing.T) {
	store, dir := newTestStore(t)

	custom := "---\ndescription: Customized PRD instructions\n---\n# My Custom PRD Rules\n"
	path := filepath.Join(dir, "create-prd.md")
	if err := os.WriteFile(path, []byte(custom), 0644); err != nil {
		t.Fatalf("failed to write custom template: %v", err)
	}

	tpl, err := store.Load(NameCreatePRD)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tpl.Description != "Customized PRD instructions" {
		t.Errorf("Description = %q, want custom frontmatter value", tpl.Description)
	}
	if !strings.Contains(tpl.Body, "# My Custom PRD Rules") {
		t.Errorf("Body = %q, want custom file content", tpl.Body)
	}
}

func TestLoad_NoFrontmatter(t *testing.T) {
	store, dir := newTestStore(t)

	content := "# Plain Template\n\nNo frontmatter here.\n"
	if err := os.WriteFile(filepath.Join(dir, "plain.md"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	tpl, err := store.Load("plain")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tpl.Description != "" {
		t.Errorf("Description = %q, want empty for plain file", tpl.Description)
	}
	if tpl.Body != content {
		t.Errorf("Body = %q, want whole file content", tpl.Body)
	}
}

func TestLoad_UnknownTemplate(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.Load("no-such-template"); err == nil {
		t.Fatal("Load() error = nil for unknown template")
	}
}

func TestLoad_RejectsTraversalNames(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.Load("../../../etc/passwd"); err == nil {
		t.Fatal("Load() accepted a traversal template name")
	}
}

func TestResolve_PlaceholderForMissing(t *testing.T) {
	store, _ := newTestStore(t)

	body := store.Resolve("no-such-template")
	if !strings.Contains(body, "Template 'no-such-template' is not available") {
		t.Errorf("Resolve() = %q, want placeholder text", body)
	}
}

func TestDescribe(t *testing.T) {
	store, _ := newTestStore(t)

	desc := store.Describe(NameCreatePRD)
	if desc == "" || strings.HasPrefix(desc, "Workflow template") {
		t.Errorf("Describe(create-prd) = %q, want frontmatter description", desc)
	}

	fallback := store.Describe("no-such-template")
	if fallback != "Workflow template 'no-such-template'" {
		t.Errorf("Describe(missing) = %q, want generic fallback", fallback)
	}
}

func TestInvalidate_DropsCache(t *testing.T) {
	store, dir := newTestStore(t)

	path := filepath.Join(dir, "create-prd.md")
	if err := os.WriteFile(path, []byte("# Version One\n"), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	tpl, err := store.Load(NameCreatePRD)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !strings.Contains(tpl.Body, "Version One") {
		t.Fatalf("unexpected initial body: %q", tpl.Body)
	}

	// A stale cache must keep serving the old content...
	if err := os.WriteFile(path, []byte("# Version Two\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite template: %v", err)
	}
	tpl, _ = store.Load(NameCreatePRD)
	if !strings.Contains(tpl.Body, "Version One") {
		t.Errorf("cache was not used: got %q", tpl.Body)
	}

	// ...until invalidated.
	store.Invalidate(NameCreatePRD)
	tpl, err = store.Load(NameCreatePRD)
	if err != nil {
		t.Fatalf("Load() after Invalidate error = %v", err)
	}
	if !strings.Contains(tpl.Body, "Version Two") {
		t.Errorf("Invalidate() did not drop cache: got %q", tpl.Body)
	}
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	logger, _ := logging.NewTestLogger()

	if err := Seed(dir, logger); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	for _, name := range []string{"create-prd.md", "generate-tasks.md", "process-task-list.md"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Seed() did not create %s: %v", name, err)
		}
	}

	// Existing files are preserved
	custom := []byte("# Customized\n")
	if err := os.WriteFile(filepath.Join(dir, "create-prd.md"), custom, 0644); err != nil {
		t.Fatalf("failed to overwrite template: %v", err)
	}
	if err := Seed(dir, logger); err != nil {
		t.Fatalf("Seed() second run error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "create-prd.md"))
	if err != nil {
		t.Fatalf("failed to read template: %v", err)
	}
	if string(data) != string(custom) {
		t.Error("Seed() overwrote an existing template")
	}
}
