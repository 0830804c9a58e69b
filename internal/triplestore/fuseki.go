// Package triplestore talks to the Fuseki administration and graph store
// protocol endpoints used to provision SPARQL test cases.
package triplestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/helpers"
)

const datasetsPath = "/$/datasets"

// Client is a Fuseki client authenticated with HTTP basic auth.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	log      logrus.FieldLogger
}

// NewClient creates a Fuseki client for the server at baseURL.
func NewClient(baseURL, username, password string, httpClient *http.Client, log logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:  helpers.NormalizeURL(baseURL),
		username: username,
		password: password,
		http:     httpClient,
		log:      log,
	}
}

// BaseURL returns the server URL without trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// DatasetURL returns the query URL of a dataset, which is what mappings use as
// their SPARQL endpoint.
func (c *Client) DatasetURL(name string) string {
	return c.baseURL + "/" + url.PathEscape(name)
}

// DatasetExists reports whether the server hosts a dataset called name.
func (c *Client) DatasetExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, c.adminURL(name), "", nil)
	if err != nil {
		return false, domain.NewOperationError("check dataset", "request failed", err)
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusError("check dataset", resp)
	}
}

// CreateDataset creates a TDB dataset. A dataset left behind under the same
// name is deleted first so every run starts from an empty store.
func (c *Client) CreateDataset(ctx context.Context, name string) error {
	if err := helpers.ValidateDatasetName(name); err != nil {
		return err
	}

	exists, err := c.DatasetExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		c.log.WithField("dataset", name).Warn("dataset already exists, recreating")
		if err := c.DeleteDataset(ctx, name); err != nil {
			return err
		}
	}
	return c.createDataset(ctx, name)
}

func (c *Client) createDataset(ctx context.Context, name string) error {
	form := url.Values{}
	form.Set("dbType", "tdb")
	form.Set("dbName", name)

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+datasetsPath, helpers.ContentTypeForm, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.NewOperationError("create dataset", "request failed", err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusConflict:
		return domain.NewConflictError("dataset", name)
	case resp.StatusCode >= 300:
		return statusError("create dataset", resp)
	}

	c.log.WithField("dataset", name).Debug("dataset created")
	return nil
}

// LoadTurtle adds Turtle data to the default graph of a dataset.
func (c *Client) LoadTurtle(ctx context.Context, name string, data []byte) error {
	resp, err := c.do(ctx, http.MethodPost, c.DatasetURL(name), helpers.ContentTypeTurtle, bytes.NewReader(data))
	if err != nil {
		return domain.NewOperationError("load dataset", "request failed", err)
	}
	defer drain(resp)

	if resp.StatusCode >= 300 {
		return statusError("load dataset", resp)
	}

	c.log.WithFields(logrus.Fields{"dataset": name, "bytes": len(data)}).Debug("data loaded")
	return nil
}

// DeleteDataset removes a dataset and its data.
func (c *Client) DeleteDataset(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.adminURL(name), "", nil)
	if err != nil {
		return domain.NewOperationError("delete dataset", "request failed", err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError("dataset", name)
	case resp.StatusCode >= 300:
		return statusError("delete dataset", resp)
	}

	c.log.WithField("dataset", name).Debug("dataset deleted")
	return nil
}

func (c *Client) adminURL(name string) string {
	return c.baseURL + datasetsPath + "/" + url.PathEscape(name)
}

func (c *Client) do(ctx context.Context, method, target, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return c.http.Do(req)
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := fmt.Sprintf("unexpected status %d", resp.StatusCode)
	if b := strings.TrimSpace(string(body)); b != "" {
		msg += ": " + b
	}
	return domain.NewOperationError(op, msg, nil)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
