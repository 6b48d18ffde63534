package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ContextSnapshot is the immutable view of session state that instruction
// building depends on. Instructions are computed once per agent turn as a
// pure function of (static template, snapshot), so there is no hidden
// coupling to when the build happens.
type ContextSnapshot struct {
	Username          string
	DaysBack          int
	Date              string
	HasCurrentStandup bool
	TaskCount         int
	StyleInstructions string
}

// SnapshotOf captures the instruction-relevant state of a run context.
func SnapshotOf(rc *RunContext) ContextSnapshot {
	return ContextSnapshot{
		Username:          rc.GitHubUsername,
		DaysBack:          rc.DaysBack,
		Date:              time.Now().UTC().Format("2006-01-02"),
		HasCurrentStandup: rc.CurrentStandup != "",
		TaskCount:         len(rc.CollectedTasks),
		StyleInstructions: rc.StyleInstructions,
	}
}

// BuildInstructions renders agent instructions from a static template and
// a context snapshot. Placeholders: {username}, {date}, {days_back}.
func BuildInstructions(staticTemplate string, snap ContextSnapshot) string {
	r := strings.NewReplacer(
		"{username}", snap.Username,
		"{date}", snap.Date,
		"{days_back}", fmt.Sprintf("%d", snap.DaysBack),
	)
	out := r.Replace(staticTemplate)

	var extra []string
	if snap.HasCurrentStandup {
		extra = append(extra, "A draft standup already exists in this session; refine it rather than starting over.")
	}
	if snap.TaskCount > 0 {
		extra = append(extra, fmt.Sprintf("The work log for this session holds %d task(s); treat it as primary context.", snap.TaskCount))
	}
	if snap.StyleInstructions != "" {
		extra = append(extra, "Style guidance:\n"+snap.StyleInstructions)
	}

	if len(extra) == 0 {
		return out
	}
	return out + "\n\n" + strings.Join(extra, "\n")
}

// PromptCache is a process-wide read-through cache over prompt template
// files in the base path, with an explicit Clear for tests and config
// reloads. It is injected as a dependency, never accessed as an ambient
// global.
type PromptCache struct {
	basePath string

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptCache creates a PromptCache reading template files from basePath.
func NewPromptCache(basePath string) *PromptCache {
	return &PromptCache{
		basePath: basePath,
		cache:    make(map[string]string),
	}
}

// Load returns the named template file's content, reading it at most once
// per process until Clear is called. A missing file yields fallback.
func (c *PromptCache) Load(name, fallback string) string {
	c.mu.RLock()
	if v, ok := c.cache[name]; ok {
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache[name]; ok {
		return v
	}

	content := fallback
	data, err := os.ReadFile(filepath.Join(c.basePath, name))
	if err == nil && len(strings.TrimSpace(string(data))) > 0 {
		content = strings.TrimSpace(string(data))
	}
	c.cache[name] = content
	return content
}

// Clear empties the cache so the next Load re-reads from disk.
func (c *PromptCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]string)
}

// Default instruction templates. Wording is intentionally short; detailed
// customization lives in style.md in the base path.
const (
	CoordinatorInstructions = `You are a standup assistant for {username}. Today is {date}.
Gather the user's GitHub activity and work log for the last {days_back} day(s),
then produce a concise standup summary. Ask before publishing anywhere.`

	DataGathererInstructions = `Collect pull requests, issues, commits, and reviews authored by
{username} in the last {days_back} day(s), plus the logged work items.`

	SummarizerInstructions = `Summarize the collected activity for {username} into a short standup:
what was done, what is in progress, and any blockers. Plain language, no fluff.`
)
