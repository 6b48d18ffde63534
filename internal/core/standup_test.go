package core

import (
	"strings"
	"testing"
	"time"

	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

func TestRenderStandup_Empty(t *testing.T) {
	rc := NewRunContext("octocat", 1)

	out, err := RenderStandup(rc)
	if err != nil {
		t.Fatalf("rendering: %v", err)
	}

	if !strings.HasPrefix(out, "Standup for octocat (") {
		t.Errorf("unexpected header: %q", strings.SplitN(out, "\n", 2)[0])
	}
	for _, want := range []string{
		"- Nothing completed in this window",
		"- Nothing currently in progress",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "## Pull requests") || strings.Contains(out, "## Reviews") {
		t.Error("activity sections must be omitted when empty")
	}
}

func TestRenderStandup_Sections(t *testing.T) {
	rc := NewRunContext("octocat", 1)
	rc.CollectedTasks = []*models.Task{
		{
			Title:      "billing fix",
			Status:     models.StatusCompleted,
			RelatedPRs: []string{"org/repo#12"},
		},
		{
			Title:  "auth refactor",
			Status: models.StatusInProgress,
			Updates: []models.TaskUpdate{
				{Note: "first pass", CreatedAt: time.Now()},
				{Note: "halfway there", CreatedAt: time.Now()},
			},
		},
		{
			Title:  "dropped idea",
			Status: models.StatusAbandoned,
		},
	}
	rc.CollectedPRs = []models.PullRequest{
		{Repository: "org/repo", Number: 12, Title: "Fix billing rounding", State: "merged"},
	}
	rc.CollectedReviews = []models.Review{
		{Repository: "org/other", Number: 7, Title: "Add retry policy"},
	}

	out, err := RenderStandup(rc)
	if err != nil {
		t.Fatalf("rendering: %v", err)
	}

	for _, want := range []string{
		"- billing fix (org/repo#12)",
		"- auth refactor: halfway there",
		"- org/repo#12 Fix billing rounding [merged]",
		"- org/other#7 Add retry policy",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "dropped idea") {
		t.Error("abandoned tasks must not appear")
	}
}

func TestRenderStandup_Deterministic(t *testing.T) {
	rc := NewRunContext("octocat", 1)
	rc.CollectedTasks = []*models.Task{
		{Title: "stable output", Status: models.StatusInProgress},
	}

	a, err := RenderStandup(rc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RenderStandup(rc)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("same context must render the same text")
	}
}

func TestJoinRefs(t *testing.T) {
	task := &models.Task{
		RelatedPRs:    []string{"org/repo#1", "org/repo#2"},
		RelatedIssues: []string{"org/repo#9"},
	}
	if got := joinRefs(task); got != "org/repo#1, org/repo#2, org/repo#9" {
		t.Errorf("got %q", got)
	}
	if got := joinRefs(&models.Task{}); got != "" {
		t.Errorf("expected empty for no refs, got %q", got)
	}
}
