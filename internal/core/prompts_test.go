package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildInstructions_Placeholders(t *testing.T) {
	snap := ContextSnapshot{
		Username: "octocat",
		DaysBack: 3,
		Date:     "2026-09-01",
	}

	out := BuildInstructions("Hello {username}, today is {date}, look back {days_back} day(s).", snap)
	want := "Hello octocat, today is 2026-09-01, look back 3 day(s)."
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestBuildInstructions_ContextAdditions(t *testing.T) {
	snap := ContextSnapshot{
		Username:          "octocat",
		DaysBack:          1,
		Date:              "2026-09-01",
		HasCurrentStandup: true,
		TaskCount:         4,
		StyleInstructions: "Keep it under five bullets.",
	}

	out := BuildInstructions("Base.", snap)
	for _, want := range []string{
		"refine it rather than starting over",
		"holds 4 task(s)",
		"Style guidance:\nKeep it under five bullets.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in instructions, got:\n%s", want, out)
		}
	}
}

func TestBuildInstructions_NoAdditionsWhenEmpty(t *testing.T) {
	out := BuildInstructions("Base.", ContextSnapshot{Username: "octocat", DaysBack: 1})
	if out != "Base." {
		t.Errorf("expected bare template, got %q", out)
	}
}

func TestSnapshotOf(t *testing.T) {
	rc := NewRunContext("octocat", 2)
	rc.CurrentStandup = "draft"
	rc.CollectedTasks = append(rc.CollectedTasks, nil, nil)
	rc.StyleInstructions = "short"

	snap := SnapshotOf(rc)
	if snap.Username != "octocat" || snap.DaysBack != 2 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if !snap.HasCurrentStandup || snap.TaskCount != 2 || snap.StyleInstructions != "short" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Date) != len("2006-01-02") {
		t.Errorf("unexpected date format: %q", snap.Date)
	}
}

func TestPromptCache_LoadAndFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "coordinator.md"), []byte("  custom prompt \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewPromptCache(dir)

	if got := cache.Load("coordinator.md", "fallback"); got != "custom prompt" {
		t.Errorf("expected trimmed file content, got %q", got)
	}
	if got := cache.Load("missing.md", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for a missing file, got %q", got)
	}
}

func TestPromptCache_ReadsOnceUntilClear(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summarizer.md")
	if err := os.WriteFile(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewPromptCache(dir)
	if got := cache.Load("summarizer.md", ""); got != "first" {
		t.Fatalf("got %q", got)
	}

	if err := os.WriteFile(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := cache.Load("summarizer.md", ""); got != "first" {
		t.Errorf("expected cached content, got %q", got)
	}

	cache.Clear()
	if got := cache.Load("summarizer.md", ""); got != "second" {
		t.Errorf("expected re-read after Clear, got %q", got)
	}
}

func TestPromptCache_EmptyFileYieldsFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blank.md"), []byte("   \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewPromptCache(dir)
	if got := cache.Load("blank.md", "fallback"); got != "fallback" {
		t.Errorf("whitespace-only file must fall back, got %q", got)
	}
}
