package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/trackboard/internal/analytics"
	"github.com/alexanderramin/trackboard/internal/domain"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Client implements IssueAPI over the tracker's REST API. Mutating calls are
// never retried.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ IssueAPI = (*Client)(nil)

// NewClient creates a client for baseURL authenticating with a bearer token.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) GetProject(ctx context.Context, scope Scope) (*domain.Project, error) {
	var w projectJSON
	if err := c.do(ctx, http.MethodGet, scope.projectPath()+"/", nil, nil, &w); err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return &domain.Project{
		ID:         w.ID,
		Workspace:  domain.CoalesceStr(w.Workspace, scope.Workspace),
		Identifier: w.Identifier,
		Name:       w.Name,
	}, nil
}

func (c *Client) ListIssues(ctx context.Context, scope Scope, filters domain.IssueFilters, display domain.DisplayFilters) ([]domain.Issue, error) {
	// The server groups too, but grouping happens client side so the flat
	// list is requested.
	display.GroupBy = domain.GroupByNone
	var ws []issueJSON
	if err := c.do(ctx, http.MethodGet, scope.IssuesPath(), EncodeIssueQuery(filters, display), nil, &ws); err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	out := make([]domain.Issue, 0, len(ws))
	for _, w := range ws {
		issue, err := w.toDomain()
		if err != nil {
			return nil, fmt.Errorf("listing issues: %w", err)
		}
		out = append(out, issue)
	}
	return out, nil
}

func (c *Client) GetIssue(ctx context.Context, scope Scope, id string) (*domain.Issue, error) {
	var w issueJSON
	if err := c.do(ctx, http.MethodGet, scope.IssuePath(id), nil, nil, &w); err != nil {
		return nil, fmt.Errorf("getting issue %s: %w", id, err)
	}
	issue, err := w.toDomain()
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *Client) PatchIssue(ctx context.Context, scope Scope, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	var w issueJSON
	if err := c.do(ctx, http.MethodPatch, scope.IssuePath(id), nil, patch, &w); err != nil {
		return nil, fmt.Errorf("updating issue %s: %w", id, err)
	}
	// Some deployments answer 204 with no body.
	if w.ID == "" {
		return c.GetIssue(ctx, scope, id)
	}
	issue, err := w.toDomain()
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *Client) DeleteIssue(ctx context.Context, scope Scope, id string) error {
	if err := c.do(ctx, http.MethodDelete, scope.IssuePath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting issue %s: %w", id, err)
	}
	return nil
}

func (c *Client) ListStates(ctx context.Context, scope Scope) ([]domain.State, error) {
	var ws []stateJSON
	if err := c.do(ctx, http.MethodGet, scope.projectPath()+"/states/", nil, nil, &ws); err != nil {
		return nil, fmt.Errorf("listing states: %w", err)
	}
	out := make([]domain.State, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toDomain())
	}
	return out, nil
}

func (c *Client) ListLabels(ctx context.Context, scope Scope) ([]domain.Label, error) {
	var ws []labelJSON
	if err := c.do(ctx, http.MethodGet, scope.projectPath()+"/labels/", nil, nil, &ws); err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}
	out := make([]domain.Label, 0, len(ws))
	for _, w := range ws {
		out = append(out, domain.Label{ID: w.ID, ProjectID: w.Project, Name: w.Name, Color: w.Color})
	}
	return out, nil
}

func (c *Client) ListMembers(ctx context.Context, scope Scope) ([]domain.Member, error) {
	var ws []memberJSON
	if err := c.do(ctx, http.MethodGet, scope.projectPath()+"/members/", nil, nil, &ws); err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	out := make([]domain.Member, 0, len(ws))
	for _, w := range ws {
		out = append(out, domain.Member{ID: w.ID, DisplayName: w.DisplayName, Email: w.Email})
	}
	return out, nil
}

// ListActivity returns an issue's history oldest first. Records of kinds this
// client does not know are skipped.
func (c *Client) ListActivity(ctx context.Context, scope Scope, issueID string) ([]domain.Activity, error) {
	var rs []domain.ActivityRecord
	if err := c.do(ctx, http.MethodGet, scope.IssuePath(issueID)+"history/", nil, nil, &rs); err != nil {
		return nil, fmt.Errorf("listing activity for %s: %w", issueID, err)
	}
	out := make([]domain.Activity, 0, len(rs))
	for _, r := range rs {
		if a, ok := domain.DecodeActivity(r); ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type analyticsResponse struct {
	Total        int                   `json:"total"`
	Distribution analytics.Aggregation `json:"distribution"`
}

func (c *Client) GetAnalytics(ctx context.Context, workspace string, q AnalyticsQuery) (analytics.Aggregation, error) {
	params := EncodeIssueQuery(q.Filters, domain.DisplayFilters{SubIssues: true})
	params.Set("x_axis", q.XAxis)
	params.Set("y_axis", q.YAxis)
	if q.Segment != "" {
		params.Set("segment", q.Segment)
	}
	if len(q.Projects) > 0 {
		params.Set("project", strings.Join(q.Projects, ","))
	}
	var resp analyticsResponse
	path := "/api/workspaces/" + url.PathEscape(workspace) + "/analytics/"
	if err := c.do(ctx, http.MethodGet, path, params, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching analytics: %w", err)
	}
	return resp.Distribution, nil
}

func (c *Client) viewPropsPath(scope Scope) string {
	if scope.View != "" {
		return scope.projectPath() + "/views/" + url.PathEscape(scope.View) + "/user-properties/"
	}
	return scope.projectPath() + "/user-properties/"
}

func (c *Client) GetViewProps(ctx context.Context, scope Scope) (domain.ViewProps, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.viewPropsPath(scope), nil, nil, &raw); err != nil {
		return domain.ViewProps{}, fmt.Errorf("getting view props: %w", err)
	}
	if len(raw) == 0 {
		return domain.ViewProps{DisplayFilters: domain.DefaultDisplayFilters()}, nil
	}
	return DecodeViewProps(raw)
}

func (c *Client) UpdateViewProps(ctx context.Context, scope Scope, props domain.ViewProps) error {
	data, err := EncodeViewProps(props)
	if err != nil {
		return fmt.Errorf("encoding view props: %w", err)
	}
	if err := c.do(ctx, http.MethodPatch, c.viewPropsPath(scope), nil, json.RawMessage(data), nil); err != nil {
		return fmt.Errorf("updating view props: %w", err)
	}
	return nil
}
