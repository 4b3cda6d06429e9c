// Package api implements the client for the remote platform REST API:
// project and environment reads, environment mutations that yield
// asynchronous activities, and local caching of environment state.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/staabm/platformsh-cli/internal/errors"
	"github.com/staabm/platformsh-cli/internal/logger"
)

// Client talks to the platform REST API. All calls are synchronous and
// block until the HTTP round trip completes.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	store   *Store
	log     logger.Logger
}

// NewClient creates an API client. store may be nil to disable local
// caching of environment lists.
func NewClient(baseURL, token string, timeout time.Duration, store *Store) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		store:   store,
		log:     logger.NewEnvLogger("[api]"),
	}
}

// SetLogger replaces the client's logger. Useful in tests.
func (c *Client) SetLogger(l logger.Logger) {
	c.log = l
}

// Store returns the client's cache store (may be nil).
func (c *Client) Store() *Store {
	return c.store
}

// GetProject fetches a project by ID.
func (c *Client) GetProject(id string) (*Project, error) {
	var p Project
	found, err := c.get("/projects/"+url.PathEscape(id), &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(errors.ErrAPI,
			"Project not found: "+id,
			"Check the project ID and your access token")
	}
	return &p, nil
}

// GetEnvironment fetches one environment. Returns (nil, nil) when the
// environment does not exist. With refresh set, any cached copy from the
// environment list cache is ignored and the cache is updated afterwards.
func (c *Client) GetEnvironment(projectID, id string, refresh bool) (*Environment, error) {
	if !refresh && c.store != nil {
		if envs, ok := c.store.ReadEnvironments(projectID); ok {
			for _, e := range envs {
				if e.ID == id {
					return e, nil
				}
			}
			// A fresh list without the environment is authoritative.
			return nil, nil
		}
	}

	var e Environment
	found, err := c.get(c.envPath(projectID, id), &e)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &e, nil
}

// ListEnvironments lists all environments of a project, serving from the
// local cache unless refresh is set or the cache is stale.
func (c *Client) ListEnvironments(projectID string, refresh bool) ([]*Environment, error) {
	if !refresh && c.store != nil {
		if envs, ok := c.store.ReadEnvironments(projectID); ok {
			c.log.Debug("environment list for %s served from cache", projectID)
			return envs, nil
		}
	}

	var envs []*Environment
	found, err := c.get("/projects/"+url.PathEscape(projectID)+"/environments", &envs)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(errors.ErrAPI,
			"Project not found: "+projectID,
			"Check the project ID and your access token")
	}

	if c.store != nil {
		if err := c.store.WriteEnvironments(projectID, envs); err != nil {
			c.log.Warn("failed to cache environment list: %v", err)
		}
	}
	return envs, nil
}

// activitiesResponse wraps the activities returned by mutating calls.
type activitiesResponse struct {
	Activities []*Activity `json:"activities"`
}

// SetEnvironmentParent updates an environment's parent. Returns zero or
// more activity handles for the resulting remote operations.
func (c *Client) SetEnvironmentParent(projectID, envID, parent string) ([]*Activity, error) {
	var resp activitiesResponse
	err := c.mutate(http.MethodPatch, c.envPath(projectID, envID),
		map[string]string{"parent": parent}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Activities, nil
}

// ActivateEnvironment triggers activation of an inactive environment.
func (c *Client) ActivateEnvironment(projectID, envID string) ([]*Activity, error) {
	var resp activitiesResponse
	err := c.mutate(http.MethodPost, c.envPath(projectID, envID)+"/activate", nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Activities, nil
}

// sshCertificateResponse wraps the certificate issued for an environment.
type sshCertificateResponse struct {
	Certificate string `json:"certificate"`
}

// GetSSHCertificate requests a short-lived SSH certificate for connecting
// to an environment. The certificate is returned in authorized-key form.
func (c *Client) GetSSHCertificate(projectID, envID string) (string, error) {
	var resp sshCertificateResponse
	err := c.mutate(http.MethodPost, c.envPath(projectID, envID)+"/ssh-certificate", nil, &resp)
	if err != nil {
		return "", err
	}
	if resp.Certificate == "" {
		return "", errors.New(errors.ErrAPI,
			"API returned no SSH certificate",
			"This may be a transient problem; try again")
	}
	return resp.Certificate, nil
}

// GetActivity fetches the current state of an activity.
func (c *Client) GetActivity(projectID, activityID string) (*Activity, error) {
	var a Activity
	found, err := c.get("/projects/"+url.PathEscape(projectID)+"/activities/"+url.PathEscape(activityID), &a)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(errors.ErrAPI,
			"Activity not found: "+activityID, "")
	}
	return &a, nil
}

func (c *Client) envPath(projectID, envID string) string {
	return "/projects/" + url.PathEscape(projectID) + "/environments/" + url.PathEscape(envID)
}

// get performs a GET and decodes the response. The bool result is false
// for a 404, letting callers decide whether that is an error.
func (c *Client) get(path string, out interface{}) (bool, error) {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is not actionable

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := checkStatus(resp); err != nil {
		return false, err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrAPI,
			"Invalid response from API",
			"This may be a transient problem; try again")
	}
	return true, nil
}

// mutate performs a write (PATCH/POST) with a JSON body.
func (c *Client) mutate(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrAPI, "Cannot encode request", "")
		}
		reader = bytes.NewReader(data)
	}

	resp, err := c.do(method, path, reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is not actionable

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return errors.WrapWithCode(err, errors.ErrAPI,
				"Invalid response from API",
				"This may be a transient problem; try again")
		}
	}
	return nil
}

func (c *Client) do(method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAPI, "Cannot build API request", "")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "platformsh-cli")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug("%s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAPI,
			"API request failed",
			"Check your network connection and the API base URL")
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("API returned %d for %s", resp.StatusCode, resp.Request.URL.Path)

	suggestion := "Check the request and try again"
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		suggestion = "Check your API token (PLATFORM_API_TOKEN)"
	case http.StatusNotFound:
		suggestion = "Check the project and environment IDs"
	}

	return errors.WrapWithCode(fmt.Errorf("%s", bytes.TrimSpace(snippet)), errors.ErrAPI, msg, suggestion)
}
