package models

// PullRequest is a pull request record returned by the code-hosting query
// interface. The core treats these as opaque read-only input for standup
// generation.
type PullRequest struct {
	Repository string   `json:"repository"`
	Number     int      `json:"number"`
	Title      string   `json:"title"`
	State      string   `json:"state"`
	Status     string   `json:"status,omitempty"`
	URL        string   `json:"url"`
	IsDraft    bool     `json:"is_draft,omitempty"`
	Labels     []string `json:"labels,omitempty"`
	CreatedAt  string   `json:"created_at,omitempty"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
	ClosedAt   string   `json:"closed_at,omitempty"`
}

// Issue is an issue record from the code-hosting query interface.
type Issue struct {
	Repository string   `json:"repository"`
	Number     int      `json:"number"`
	Title      string   `json:"title"`
	State      string   `json:"state"`
	Source     string   `json:"source,omitempty"`
	URL        string   `json:"url"`
	Labels     []string `json:"labels,omitempty"`
	CreatedAt  string   `json:"created_at,omitempty"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
}

// Commit is a commit record from the code-hosting query interface.
type Commit struct {
	Repository string `json:"repository"`
	SHA        string `json:"sha"`
	Message    string `json:"message"`
	URL        string `json:"url,omitempty"`
	AuthoredAt string `json:"authored_at,omitempty"`
}

// Review is a pull request review record from the code-hosting query
// interface. Type is "given" for PRs the user reviewed and "received" for
// activity on the user's own PRs.
type Review struct {
	Repository string `json:"repository"`
	Number     int    `json:"number"`
	Title      string `json:"title"`
	State      string `json:"state"`
	Type       string `json:"type"`
	Author     string `json:"author,omitempty"`
	Comments   int    `json:"comments,omitempty"`
	URL        string `json:"url"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}
