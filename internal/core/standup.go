package core

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

// standupTemplate renders the deterministic standup used when no agent
// runner is configured, and as the skeleton the summarizer refines.
var standupTemplate = template.Must(template.New("standup").Parse(`Standup for {{.Username}} ({{.Date}})

## Done
{{- range .Completed}}
- {{.Title}}{{with .Refs}} ({{.}}){{end}}
{{- end}}
{{- if not .Completed}}
- Nothing completed in this window
{{- end}}

## In progress
{{- range .InProgress}}
- {{.Title}}{{with .LastNote}}: {{.}}{{end}}
{{- end}}
{{- if not .InProgress}}
- Nothing currently in progress
{{- end}}
{{- if .PRs}}

## Pull requests
{{- range .PRs}}
- {{.Repository}}#{{.Number}} {{.Title}} [{{.State}}]
{{- end}}
{{- end}}
{{- if .Reviews}}

## Reviews
{{- range .Reviews}}
- {{.Repository}}#{{.Number}} {{.Title}}
{{- end}}
{{- end}}
`))

type standupItem struct {
	Title    string
	Refs     string
	LastNote string
}

type standupData struct {
	Username   string
	Date       string
	Completed  []standupItem
	InProgress []standupItem
	PRs        []models.PullRequest
	Reviews    []models.Review
}

// RenderStandup composes a standup summary from the run context's
// collected work log and GitHub activity. It is deterministic: the same
// context always renders the same text.
func RenderStandup(rc *RunContext) (string, error) {
	data := standupData{
		Username: rc.GitHubUsername,
		Date:     time.Now().UTC().Format("2006-01-02"),
		PRs:      rc.CollectedPRs,
		Reviews:  rc.CollectedReviews,
	}

	for _, t := range rc.CollectedTasks {
		item := standupItem{Title: t.Title, Refs: joinRefs(t)}
		if n := len(t.Updates); n > 0 {
			item.LastNote = t.Updates[n-1].Note
		}
		switch t.Status {
		case models.StatusCompleted:
			data.Completed = append(data.Completed, item)
		case models.StatusInProgress:
			data.InProgress = append(data.InProgress, item)
		}
	}

	var buf bytes.Buffer
	if err := standupTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering standup: %w", err)
	}
	return buf.String(), nil
}

func joinRefs(t *models.Task) string {
	refs := append(append([]string{}, t.RelatedPRs...), t.RelatedIssues...)
	if len(refs) == 0 {
		return ""
	}
	out := refs[0]
	for _, r := range refs[1:] {
		out += ", " + r
	}
	return out
}
