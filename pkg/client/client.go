// Package client is an HTTP client for a running studai API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"
)

const defaultTimeout = 5 * time.Minute

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (HTTP %d): %s", e.StatusCode, e.Message)
}

// UploadResult mirrors the POST /upload response.
type UploadResult struct {
	Status      string `json:"status"`
	Filename    string `json:"filename"`
	ChunksAdded int    `json:"chunks_added"`
}

// AskResult mirrors the JSON POST /ask response.
type AskResult struct {
	Answer      string                       `json:"answer"`
	Context     *string                      `json:"context"`
	Grouped     map[string]map[string]string `json:"grouped,omitempty"`
	SearchQuery string                       `json:"search_query,omitempty"`
	Mode        string                       `json:"mode"`
}

// PDF is a rendered answer downloaded from POST /ask.
type PDF struct {
	Filename string
	Data     []byte
}

// Client talks to one studai API server.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New parses target, e.g. "http://localhost:8000".
func New(target string) (*Client, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API target URL: %q", target)
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = path
	u.RawQuery = query.Encode()
	return u.String()
}

// Upload sends a PDF as the multipart "file" field.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/upload", nil), &body)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out UploadResult
	if _, err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type askBody struct {
	Prompt string `json:"prompt"`
	Mode   string `json:"mode,omitempty"`
}

func (c *Client) newAskRequest(ctx context.Context, prompt, mode, format string) (*http.Request, error) {
	payload, err := json.Marshal(askBody{Prompt: prompt, Mode: mode})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/ask", url.Values{"format": {format}}), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Ask requests a JSON answer. An empty mode uses the server default.
func (c *Client) Ask(ctx context.Context, prompt, mode string) (*AskResult, error) {
	req, err := c.newAskRequest(ctx, prompt, mode, "json")
	if err != nil {
		return nil, err
	}

	var out AskResult
	if _, err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AskPDF requests a rendered PDF answer.
func (c *Client) AskPDF(ctx context.Context, prompt, mode string) (*PDF, error) {
	req, err := c.newAskRequest(ctx, prompt, mode, "pdf")
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req, nil)
	if err != nil {
		return nil, err
	}

	pdf := &PDF{Data: resp.body, Filename: "answer.pdf"}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		pdf.Filename = params["filename"]
	}
	return pdf, nil
}

// ListPDFs returns the filenames known to the server.
func (c *Client) ListPDFs(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/pdfs", nil), nil)
	if err != nil {
		return nil, fmt.Errorf("creating pdfs request: %w", err)
	}

	var out struct {
		PDFs []string `json:"pdfs"`
	}
	if _, err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.PDFs, nil
}

type response struct {
	header http.Header
	body   []byte
}

// do sends req and decodes a JSON body into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) (*response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to studai API at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		message := string(body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return &response{header: resp.Header, body: body}, nil
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
