package deployapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the deployment service's HTTP API. It implements
// StatusSource, GroupLister, and EventFetcher.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient builds a client for the given base URL. The token, when
// non-empty, is sent as a bearer credential on every request.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("api base URL is required")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base URL: %w", err)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: timeout},
	}, nil
}

// Deployment implements StatusSource.
func (c *Client) Deployment(ctx context.Context, id string) (Deployment, error) {
	var dep Deployment
	path := "/v1/deployments/" + url.PathEscape(id)
	if err := c.get(ctx, path, nil, &dep); err != nil {
		return Deployment{}, err
	}
	if dep.Status == "" {
		dep.Status = StatusUnknown
	}
	return dep, nil
}

// ListGroups implements GroupLister. The service filters by prefix only;
// pattern matching is applied client-side by the resolver.
func (c *Client) ListGroups(ctx context.Context, prefix string) ([]string, error) {
	values := url.Values{}
	if strings.TrimSpace(prefix) != "" {
		values.Set("prefix", prefix)
	}
	var payload struct {
		Groups []string `json:"groups"`
	}
	if err := c.get(ctx, "/v1/groups", values, &payload); err != nil {
		return nil, err
	}
	return payload.Groups, nil
}

// FetchEvents implements EventFetcher.
func (c *Client) FetchEvents(ctx context.Context, group string, opts FetchOptions) (Batch, error) {
	values := url.Values{}
	if opts.Cursor != "" {
		values.Set("cursor", opts.Cursor)
	} else if !opts.From.IsZero() {
		values.Set("from", strconv.FormatInt(opts.From.UnixMilli(), 10))
	}
	if opts.Limit > 0 {
		values.Set("limit", strconv.Itoa(opts.Limit))
	}

	var batch Batch
	path := "/v1/groups/" + url.PathEscape(group) + "/events"
	if err := c.get(ctx, path, values, &batch); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: c.base.Path + path, RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(path, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) statusError(path string, resp *http.Response) error {
	var detail apiError
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(body, &detail)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, errDetail(detail, resp))
	case http.StatusNotFound:
		if strings.HasPrefix(path, "/v1/deployments/") {
			return fmt.Errorf("%w: %s", ErrNotFound, errDetail(detail, resp))
		}
		return fmt.Errorf("%w: %s", ErrGroupNotFound, errDetail(detail, resp))
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrThrottled, errDetail(detail, resp))
	case http.StatusBadRequest:
		if detail.Code == "expired_cursor" {
			return fmt.Errorf("%w: %s", ErrExpiredCursor, errDetail(detail, resp))
		}
		return fmt.Errorf("api %s returned status %d: %s", path, resp.StatusCode, errDetail(detail, resp))
	default:
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: %s", ErrUnavailable, errDetail(detail, resp))
		}
		return fmt.Errorf("api %s returned status %d: %s", path, resp.StatusCode, errDetail(detail, resp))
	}
}

func errDetail(detail apiError, resp *http.Response) string {
	if detail.Message != "" {
		return detail.Message
	}
	return resp.Status
}
