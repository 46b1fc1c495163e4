// services/tracker_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// IssueRef identifies an issue on the tracker, e.g. repo "OWASP-BLT/BLT"
// issue 42.
type IssueRef struct {
	Repo   string
	Number int
}

func (r IssueRef) String() string {
	return fmt.Sprintf("%s#%d", r.Repo, r.Number)
}

// HTMLURL returns the human-facing issue link used in alerts.
func (r IssueRef) HTMLURL(webBase string) string {
	return fmt.Sprintf("%s/%s/issues/%d", strings.TrimRight(webBase, "/"), r.Repo, r.Number)
}

type TrackerComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// RepoComment is a repo-wide comment listing entry, used by the poll
// worker to discover new pledge commands.
type RepoComment struct {
	ID          int64     `json:"id"`
	IssueNumber int       `json:"issue_number"`
	Body        string    `json:"body"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
}

// TrackerClient is the issue-tracker surface the bounty workflow needs:
// labels and comments, nothing else.
type TrackerClient interface {
	ListLabels(ctx context.Context, issue IssueRef) ([]string, error)
	AddLabel(ctx context.Context, issue IssueRef, name string) error
	RenameLabel(ctx context.Context, issue IssueRef, oldName, newName string) error
	ListComments(ctx context.Context, issue IssueRef) ([]TrackerComment, error)
	CreateComment(ctx context.Context, issue IssueRef, body string) (int64, error)
	UpdateComment(ctx context.Context, issue IssueRef, commentID int64, body string) error
	ListCommentsSince(ctx context.Context, repo string, since time.Time) ([]RepoComment, error)
}

// restTrackerClient talks to a GitHub-style REST API.
type restTrackerClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewTrackerClient builds the REST tracker client from environment config.
func NewTrackerClient() TrackerClient {
	baseURL := os.Getenv("TRACKER_API_URL")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	token := os.Getenv("TRACKER_TOKEN")
	if token == "" {
		log.Fatal("TRACKER_TOKEN environment variable is required for tracker access")
	}

	return &restTrackerClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *restTrackerClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tracker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("tracker returned status %d: %s", resp.StatusCode, string(snippet))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode tracker response: %w", err)
		}
	}
	return nil
}

func (c *restTrackerClient) ListLabels(ctx context.Context, issue IssueRef) ([]string, error) {
	var raw []struct {
		Name string `json:"name"`
	}
	path := fmt.Sprintf("/repos/%s/issues/%d/labels", issue.Repo, issue.Number)
	if err := c.do(ctx, "GET", path, nil, &raw); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(raw))
	for _, l := range raw {
		names = append(names, l.Name)
	}
	return names, nil
}

func (c *restTrackerClient) AddLabel(ctx context.Context, issue IssueRef, name string) error {
	path := fmt.Sprintf("/repos/%s/issues/%d/labels", issue.Repo, issue.Number)
	payload := map[string][]string{"labels": {name}}
	return c.do(ctx, "POST", path, payload, nil)
}

func (c *restTrackerClient) RenameLabel(ctx context.Context, issue IssueRef, oldName, newName string) error {
	// Labels are repo-scoped on GitHub-style trackers; renaming updates
	// every issue carrying the label, including this one.
	path := fmt.Sprintf("/repos/%s/labels/%s", issue.Repo, url.PathEscape(oldName))
	payload := map[string]string{"new_name": newName}
	return c.do(ctx, "PATCH", path, payload, nil)
}

func (c *restTrackerClient) ListComments(ctx context.Context, issue IssueRef) ([]TrackerComment, error) {
	var comments []TrackerComment
	path := fmt.Sprintf("/repos/%s/issues/%d/comments", issue.Repo, issue.Number)
	if err := c.do(ctx, "GET", path, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *restTrackerClient) CreateComment(ctx context.Context, issue IssueRef, body string) (int64, error) {
	var created TrackerComment
	path := fmt.Sprintf("/repos/%s/issues/%d/comments", issue.Repo, issue.Number)
	payload := map[string]string{"body": body}
	if err := c.do(ctx, "POST", path, payload, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (c *restTrackerClient) UpdateComment(ctx context.Context, issue IssueRef, commentID int64, body string) error {
	path := fmt.Sprintf("/repos/%s/issues/comments/%d", issue.Repo, commentID)
	payload := map[string]string{"body": body}
	return c.do(ctx, "PATCH", path, payload, nil)
}

func (c *restTrackerClient) ListCommentsSince(ctx context.Context, repo string, since time.Time) ([]RepoComment, error) {
	var raw []struct {
		ID       int64  `json:"id"`
		Body     string `json:"body"`
		IssueURL string `json:"issue_url"`
		User     struct {
			Login string `json:"login"`
		} `json:"user"`
		CreatedAt time.Time `json:"created_at"`
	}

	path := fmt.Sprintf("/repos/%s/issues/comments?sort=created&direction=asc&since=%s",
		repo, url.QueryEscape(since.UTC().Format(time.RFC3339)))
	if err := c.do(ctx, "GET", path, nil, &raw); err != nil {
		return nil, err
	}

	comments := make([]RepoComment, 0, len(raw))
	for _, r := range raw {
		comments = append(comments, RepoComment{
			ID:          r.ID,
			IssueNumber: issueNumberFromURL(r.IssueURL),
			Body:        r.Body,
			Author:      r.User.Login,
			CreatedAt:   r.CreatedAt,
		})
	}
	return comments, nil
}

// issueNumberFromURL pulls the trailing issue number out of an API issue
// URL like ".../repos/owner/name/issues/42". Returns 0 when unparseable.
func issueNumberFromURL(u string) int {
	idx := strings.LastIndex(u, "/")
	if idx < 0 {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(u[idx+1:], "%d", &n); err != nil {
		return 0
	}
	return n
}
