// Package boards talks to the Azure DevOps work item tracking REST API
// and owns the policy of resolving an outcome category to a board state
// when submitting work items.
package boards

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lmedina/mailboard/internal/model"
)

// apiVersion is the work item tracking API version used on every call.
const apiVersion = "6.0"

// Client is a thin HTTP client for the Azure DevOps work item tracking
// REST API. It handles PAT Basic authentication, JSON marshaling, and
// automatic retry with exponential backoff on HTTP 429.
type Client struct {
	orgURL     string
	project    string
	authHeader string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new Azure DevOps client. The orgURL is the
// organization root (e.g., https://dev.azure.com/acme) and pat a
// Personal Access Token.
func NewClient(orgURL, project, pat string) *Client {
	return &Client{
		orgURL:  strings.TrimRight(orgURL, "/"),
		project: project,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString(
			[]byte(":"+pat),
		),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// ListItemTypes returns the names of the work item types the project
// offers.
func (c *Client) ListItemTypes(ctx context.Context) ([]string, error) {
	path := fmt.Sprintf(
		"/%s/_apis/wit/workitemtypes?api-version=%s",
		url.PathEscape(c.project), apiVersion,
	)

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing work item types: %w", err)
	}
	return names(resp.Value), nil
}

// ListStates returns the workflow state names valid for a work item
// type.
func (c *Client) ListStates(ctx context.Context, itemType string) ([]string, error) {
	path := fmt.Sprintf(
		"/%s/_apis/wit/workitemtypes/%s/states?api-version=%s",
		url.PathEscape(c.project), url.PathEscape(itemType), apiVersion,
	)

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing states for %q: %w", itemType, err)
	}
	return names(resp.Value), nil
}

// CreateWorkItem creates one work item and returns its ID and edit URL.
func (c *Client) CreateWorkItem(ctx context.Context, req CreateRequest) (*CreatedItem, error) {
	path := fmt.Sprintf(
		"/%s/_apis/wit/workitems/$%s?api-version=%s",
		url.PathEscape(c.project), url.PathEscape(req.ItemType), apiVersion,
	)

	ops := []patchOp{
		{Op: "add", Path: "/fields/System.Title", Value: req.Title},
		{Op: "add", Path: "/fields/System.Description", Value: req.Description},
		{Op: "add", Path: "/fields/System.State", Value: req.State},
		{Op: "add", Path: "/fields/System.Tags", Value: req.Tags},
	}
	if req.HistoryNote != "" {
		ops = append(ops, patchOp{
			Op:    "add",
			Path:  "/fields/System.History",
			Value: req.HistoryNote,
		})
	}

	var resp workItemResponse
	err := c.do(ctx, http.MethodPost, path, "application/json-patch+json", ops, &resp)
	if err != nil {
		return nil, fmt.Errorf("creating work item: %w", err)
	}

	return &CreatedItem{
		ID: strconv.Itoa(resp.ID),
		URL: fmt.Sprintf(
			"%s/%s/_workitems/edit/%d", c.orgURL, c.project, resp.ID,
		),
	}, nil
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	contentType string,
	body interface{},
	result interface{},
) error {
	requestURL := c.orgURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(
			ctx, method, requestURL, bodyReader,
		)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", c.authHeader)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			if contentType == "" {
				contentType = "application/json"
			}
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf(
				"rate limited (429) on %s %s", method, path,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusNonAuthoritativeInfo {
			// Azure DevOps answers 203 with a sign-in page when the
			// PAT is rejected.
			return &model.AuthError{
				Service: "boards",
				Message: fmt.Sprintf(
					"check your Personal Access Token for %s", c.orgURL,
				),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf(
				"unexpected status %d on %s %s: %s",
				resp.StatusCode, method, path, string(respBody),
			)
		}

		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf(
				"unmarshaling response from %s %s: %w",
				method, path, err,
			)
		}

		return nil
	}

	return fmt.Errorf(
		"max retries (%d) exceeded: %w", c.maxRetries, lastErr,
	)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

// names extracts the Name of each listed value.
func names(values []namedValue) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.Name)
	}
	return out
}
