// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the standup agent's task tracking tools to AI coding assistants, so tasks
// can be logged from natural conversation as work happens.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/andrewm4894/github-standup-agent/internal/core"
	"github.com/andrewm4894/github-standup-agent/internal/storage"
	"github.com/andrewm4894/github-standup-agent/pkg/models"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the task tools and exposes them as MCP tools.
type Server struct {
	server  *gomcp.Server
	tools   *core.TaskTools
	history storage.HistoryManager
	rc      *core.RunContext
}

// NewServer creates an MCP server over the given task tools. history may be
// nil when standup history is unavailable.
func NewServer(tools *core.TaskTools, history storage.HistoryManager, username, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		tools:   tools,
		history: history,
		rc:      core.NewRunContext(username, 1),
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "standup-tasks", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type logTaskInput struct {
	Title string   `json:"title" jsonschema:"required,short description of the task being worked on"`
	Tags  []string `json:"tags,omitempty" jsonschema:"optional labels such as a project or area name"`
}

type updateTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier returned by log_task or list_tasks"`
	Note   string `json:"note" jsonschema:"required,the progress note to append"`
	Status string `json:"status,omitempty" jsonschema:"optional new status (in_progress, completed, abandoned)"`
}

type completeTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier"`
	Note   string `json:"note,omitempty" jsonschema:"optional final note recorded before completion"`
}

type listTasksInput struct {
	Status   string `json:"status,omitempty" jsonschema:"filter by status (in_progress, completed, abandoned)"`
	DaysBack int    `json:"days_back,omitempty" jsonschema:"lookback window in days when no status filter is given. Defaults to 7."`
}

type workLogInput struct {
	DaysBack int `json:"days_back,omitempty" jsonschema:"lookback window in days. Defaults to 1."`
}

type linkTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier"`
	PR     string `json:"pr,omitempty" jsonschema:"pull request URL or number to associate"`
	Issue  string `json:"issue,omitempty" jsonschema:"issue URL or number to associate"`
}

type recentStandupsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of recent standups to return. Defaults to 3."`
}

type messageOutput struct {
	Message string `json:"message"`
}

type taskOutput struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Status        string   `json:"status"`
	Owner         string   `json:"owner,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	RelatedPRs    []string `json:"related_prs,omitempty"`
	RelatedIssues []string `json:"related_issues,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	CompletedAt   string   `json:"completed_at,omitempty"`
	Updates       []string `json:"updates,omitempty"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type workLogOutput struct {
	Log       string `json:"log"`
	TaskCount int    `json:"task_count"`
}

type standupOutput struct {
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

type recentStandupsOutput struct {
	Standups []standupOutput `json:"standups"`
	Count    int             `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "log_task",
		Description: "Log a new task you're working on. Use when the user mentions starting work on something, e.g. 'working on the auth refactor'.",
	}, s.handleLogTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task",
		Description: "Add a progress note to a task, optionally changing its status (in_progress, completed, abandoned).",
	}, s.handleUpdateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed. Use when the user says they finished something.",
	}, s.handleCompleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "Show tracked tasks. Filters by status, or returns the recent standup window when no status is given.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_work_log",
		Description: "Get the formatted work log for standup generation, covering tasks from the lookback period.",
	}, s.handleWorkLog)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "link_task",
		Description: "Associate a pull request or issue reference with a task.",
	}, s.handleLinkTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_recent_standups",
		Description: "Return recently posted standup summaries, newest first.",
	}, s.handleRecentStandups)
}

// --- Tool handlers ---

func (s *Server) handleLogTask(_ context.Context, _ *gomcp.CallToolRequest, input logTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), messageOutput{}, nil
	}

	msg, err := s.tools.LogTask(s.rc, input.Title, input.Tags)
	if err != nil {
		return errorResult(fmt.Sprintf("logging task: %s", err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: msg}, nil
}

func (s *Server) handleUpdateTask(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), messageOutput{}, nil
	}
	if input.Note == "" {
		return errorResult("note is required"), messageOutput{}, nil
	}
	if input.Status != "" && !models.ValidStatuses[models.TaskStatus(input.Status)] {
		return errorResult(fmt.Sprintf("invalid status %q: must be one of in_progress, completed, abandoned", input.Status)), messageOutput{}, nil
	}

	msg, err := s.tools.UpdateTask(s.rc, input.TaskID, input.Note, models.TaskStatus(input.Status))
	if err != nil {
		return errorResult(fmt.Sprintf("updating task %s: %s", input.TaskID, err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: msg}, nil
}

func (s *Server) handleCompleteTask(_ context.Context, _ *gomcp.CallToolRequest, input completeTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), messageOutput{}, nil
	}

	msg, err := s.tools.CompleteTask(s.rc, input.TaskID, input.Note)
	if err != nil {
		return errorResult(fmt.Sprintf("completing task %s: %s", input.TaskID, err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: msg}, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	daysBack := input.DaysBack
	if daysBack <= 0 {
		daysBack = 7
	}
	if input.Status != "" && !models.ValidStatuses[models.TaskStatus(input.Status)] {
		return errorResult(fmt.Sprintf("invalid status %q: must be one of in_progress, completed, abandoned", input.Status)), listTasksOutput{}, nil
	}

	if _, err := s.tools.ListTasks(s.rc, models.TaskStatus(input.Status), daysBack); err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{
		Tasks: make([]taskOutput, len(s.rc.CollectedTasks)),
		Count: len(s.rc.CollectedTasks),
	}
	for i, t := range s.rc.CollectedTasks {
		out.Tasks[i] = taskToOutput(t)
	}
	return nil, out, nil
}

func (s *Server) handleWorkLog(_ context.Context, _ *gomcp.CallToolRequest, input workLogInput) (*gomcp.CallToolResult, workLogOutput, error) {
	daysBack := input.DaysBack
	if daysBack <= 0 {
		daysBack = 1
	}

	log, err := s.tools.WorkLog(s.rc, daysBack)
	if err != nil {
		return errorResult(fmt.Sprintf("building work log: %s", err)), workLogOutput{}, nil
	}

	return nil, workLogOutput{Log: log, TaskCount: len(s.rc.CollectedTasks)}, nil
}

func (s *Server) handleLinkTask(_ context.Context, _ *gomcp.CallToolRequest, input linkTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), messageOutput{}, nil
	}
	if input.PR == "" && input.Issue == "" {
		return errorResult("provide a pr or an issue to link"), messageOutput{}, nil
	}

	msg, err := s.tools.LinkTask(s.rc, input.TaskID, input.PR, input.Issue)
	if err != nil {
		return errorResult(fmt.Sprintf("linking task %s: %s", input.TaskID, err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: msg}, nil
}

func (s *Server) handleRecentStandups(_ context.Context, _ *gomcp.CallToolRequest, input recentStandupsInput) (*gomcp.CallToolResult, recentStandupsOutput, error) {
	if s.history == nil {
		return errorResult("standup history not available"), recentStandupsOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 3
	}

	entries, err := s.history.Recent(limit)
	if err != nil {
		return errorResult(fmt.Sprintf("reading standup history: %s", err)), recentStandupsOutput{}, nil
	}

	out := recentStandupsOutput{
		Standups: make([]standupOutput, len(entries)),
		Count:    len(entries),
	}
	for i, e := range entries {
		out.Standups[i] = standupOutput{Date: e.Date, Summary: e.Summary}
	}
	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t *models.Task) taskOutput {
	out := taskOutput{
		ID:            t.ID,
		Title:         t.Title,
		Status:        string(t.Status),
		Owner:         t.Owner,
		Tags:          t.Tags,
		RelatedPRs:    t.RelatedPRs,
		RelatedIssues: t.RelatedIssues,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     t.UpdatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		out.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	for _, u := range t.Updates {
		out.Updates = append(out.Updates, u.Note)
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
