package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

// CommandRunner executes an external command and returns its stdout.
// Injectable so tests can substitute canned gh output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// GitHubClient gathers a user's recent activity through the gh CLI.
// Every search spans all repositories the authenticated user can see.
type GitHubClient interface {
	CurrentUsername(ctx context.Context) (string, error)
	SearchPRs(ctx context.Context, username string, daysBack int, includeOpen, includeMerged bool) ([]models.PullRequest, error)
	SearchIssues(ctx context.Context, username string, daysBack int, includeAssigned, includeCreated bool) ([]models.Issue, error)
	SearchCommits(ctx context.Context, username string, daysBack int) ([]models.Commit, error)
	SearchReviews(ctx context.Context, username string, daysBack int, includeGiven, includeReceived bool) ([]models.Review, error)
}

type ghClient struct {
	run     CommandRunner
	timeout time.Duration
	now     func() time.Time
}

// NewGitHubClient creates a GitHubClient backed by the gh binary on PATH.
func NewGitHubClient() GitHubClient {
	return &ghClient{run: execRunner, timeout: 60 * time.Second, now: time.Now}
}

// NewGitHubClientWithRunner creates a GitHubClient with a custom runner.
func NewGitHubClientWithRunner(run CommandRunner) GitHubClient {
	return &ghClient{run: run, timeout: 60 * time.Second, now: time.Now}
}

func (g *ghClient) CurrentUsername(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := g.run(ctx, "gh", "api", "user", "--jq", ".login")
	if err != nil {
		return "", fmt.Errorf("resolving github username: %w", err)
	}
	login := strings.TrimSpace(string(out))
	if login == "" {
		return "", fmt.Errorf("gh returned an empty login")
	}
	return login, nil
}

func (g *ghClient) cutoff(daysBack int) string {
	if daysBack <= 0 {
		daysBack = 1
	}
	return g.now().AddDate(0, 0, -daysBack).Format("2006-01-02")
}

// prRecord mirrors the fields requested via --json on gh search prs.
type prRecord struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	State      string `json:"state"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	IsDraft    bool   `json:"isDraft"`
	Repository struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
	CommentsCount int `json:"commentsCount"`
}

func (g *ghClient) SearchPRs(ctx context.Context, username string, daysBack int, includeOpen, includeMerged bool) ([]models.PullRequest, error) {
	if username == "" {
		return nil, fmt.Errorf("github username required")
	}
	cutoff := g.cutoff(daysBack)
	fields := "number,title,url,state,createdAt,updatedAt,repository,isDraft"

	var prs []models.PullRequest

	if includeOpen {
		var recs []prRecord
		err := g.searchJSON(ctx, &recs, "search", "prs",
			"--author", username,
			"--state", "open",
			"--created=>="+cutoff,
			"--json", fields,
			"--limit", "50")
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			prs = append(prs, prFromRecord(r, "open"))
		}
	}

	if includeMerged {
		var recs []prRecord
		err := g.searchJSON(ctx, &recs, "search", "prs",
			"--author", username,
			"--merged",
			"--merged=>="+cutoff,
			"--json", fields,
			"--limit", "50")
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			prs = append(prs, prFromRecord(r, "merged"))
		}
	}

	return prs, nil
}

func prFromRecord(r prRecord, status string) models.PullRequest {
	return models.PullRequest{
		Number:     r.Number,
		Title:      r.Title,
		URL:        r.URL,
		State:      r.State,
		Status:     status,
		Repository: r.Repository.NameWithOwner,
		IsDraft:    r.IsDraft,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// issueRecord mirrors the fields requested via --json on gh search issues.
type issueRecord struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	State      string `json:"state"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	Repository struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

func (g *ghClient) SearchIssues(ctx context.Context, username string, daysBack int, includeAssigned, includeCreated bool) ([]models.Issue, error) {
	if username == "" {
		return nil, fmt.Errorf("github username required")
	}
	cutoff := g.cutoff(daysBack)
	fields := "number,title,url,state,createdAt,updatedAt,repository,labels"

	var issues []models.Issue
	seen := make(map[string]bool)

	appendIssues := func(recs []issueRecord, source string) {
		for _, r := range recs {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			labels := make([]string, 0, len(r.Labels))
			for _, l := range r.Labels {
				labels = append(labels, l.Name)
			}
			issues = append(issues, models.Issue{
				Number:     r.Number,
				Title:      r.Title,
				URL:        r.URL,
				State:      r.State,
				Source:     source,
				Repository: r.Repository.NameWithOwner,
				Labels:     labels,
				CreatedAt:  r.CreatedAt,
				UpdatedAt:  r.UpdatedAt,
			})
		}
	}

	if includeAssigned {
		var recs []issueRecord
		err := g.searchJSON(ctx, &recs, "search", "issues",
			"--assignee", username,
			"--updated=>="+cutoff,
			"--json", fields,
			"--limit", "50")
		if err != nil {
			return nil, err
		}
		appendIssues(recs, "assigned")
	}

	if includeCreated {
		var recs []issueRecord
		err := g.searchJSON(ctx, &recs, "search", "issues",
			"--author", username,
			"--updated=>="+cutoff,
			"--json", fields,
			"--limit", "50")
		if err != nil {
			return nil, err
		}
		appendIssues(recs, "created")
	}

	return issues, nil
}

// commitRecord mirrors gh search commits --json output.
type commitRecord struct {
	SHA    string `json:"sha"`
	URL    string `json:"url"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Repository struct {
		FullName string `json:"fullName"`
	} `json:"repository"`
}

func (g *ghClient) SearchCommits(ctx context.Context, username string, daysBack int) ([]models.Commit, error) {
	if username == "" {
		return nil, fmt.Errorf("github username required")
	}
	cutoff := g.cutoff(daysBack)

	var recs []commitRecord
	err := g.searchJSON(ctx, &recs, "search", "commits",
		"--author", username,
		"--author-date=>="+cutoff,
		"--json", "sha,url,commit,repository",
		"--limit", "50")
	if err != nil {
		return nil, err
	}

	commits := make([]models.Commit, 0, len(recs))
	for _, r := range recs {
		// First line of the message is the subject.
		msg := r.Commit.Message
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		commits = append(commits, models.Commit{
			SHA:        r.SHA,
			Message:    msg,
			URL:        r.URL,
			Repository: r.Repository.FullName,
			AuthoredAt: r.Commit.Author.Date,
		})
	}
	return commits, nil
}

func (g *ghClient) SearchReviews(ctx context.Context, username string, daysBack int, includeGiven, includeReceived bool) ([]models.Review, error) {
	if username == "" {
		return nil, fmt.Errorf("github username required")
	}
	cutoff := g.cutoff(daysBack)

	var reviews []models.Review

	if includeGiven {
		var recs []prRecord
		err := g.searchJSON(ctx, &recs, "search", "prs",
			"--reviewed-by", username,
			"--updated=>="+cutoff,
			"--json", "number,title,url,state,repository,author",
			"--limit", "30")
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			// Reviewing your own PR is not review activity.
			if r.Author.Login == username {
				continue
			}
			reviews = append(reviews, models.Review{
				Number:     r.Number,
				Title:      r.Title,
				URL:        r.URL,
				State:      r.State,
				Type:       "given",
				Author:     r.Author.Login,
				Repository: r.Repository.NameWithOwner,
			})
		}
	}

	if includeReceived {
		var recs []prRecord
		err := g.searchJSON(ctx, &recs, "search", "prs",
			"--author", username,
			"--updated=>="+cutoff,
			"--json", "number,title,url,state,repository,commentsCount",
			"--limit", "30")
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			// Comment activity stands in for review activity.
			if r.CommentsCount == 0 {
				continue
			}
			reviews = append(reviews, models.Review{
				Number:     r.Number,
				Title:      r.Title,
				URL:        r.URL,
				State:      r.State,
				Type:       "received",
				Comments:   r.CommentsCount,
				Repository: r.Repository.NameWithOwner,
			})
		}
	}

	return reviews, nil
}

func (g *ghClient) searchJSON(ctx context.Context, out any, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.run(ctx, "gh", args...)
	if err != nil {
		return fmt.Errorf("running gh %s: %w", strings.Join(args[:2], " "), err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding gh output: %w", err)
	}
	return nil
}
