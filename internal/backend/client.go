// Package backend is the HTTP client for the external analysis service. The
// service does all similarity computation; this side only submits jobs and
// fetches result artifacts.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"similarity-web/internal/models"
)

// ResolveBaseURL picks the backend origin for the current environment. An
// injected override always wins. Sandbox hosts expose the backend on the
// same hostname with the port-prefix token swapped; localhost development
// talks to the fixed local port; anything else uses same-origin relative
// paths (empty base).
func ResolveBaseURL(host, override string) string {
	if override != "" {
		return override
	}
	if strings.Contains(host, "e2b.dev") {
		return "https://" + strings.Replace(host, "3000-", "8000-", 1)
	}
	if host == "localhost" {
		return "http://localhost:8000"
	}
	return ""
}

// ProgressFunc receives upload progress. known is false when the transport
// cannot determine the total byte count; percent is then indeterminate.
type ProgressFunc func(percent int, known bool)

// Client talks to the analysis backend.
type Client struct {
	baseURL string
	client  *http.Client
	health  *http.Client
}

// NewClient creates a backend client. analyzeTimeout bounds the full
// submit-and-wait round trip; healthTimeout bounds the opportunistic probe.
func NewClient(baseURL string, analyzeTimeout, healthTimeout time.Duration) *Client {
	if analyzeTimeout <= 0 {
		analyzeTimeout = 5 * time.Minute
	}
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: analyzeTimeout},
		health:  &http.Client{Timeout: healthTimeout},
	}
}

// BaseURL returns the resolved backend origin ("" means same-origin).
func (c *Client) BaseURL() string { return c.baseURL }

// url absolutizes a backend-relative artifact path.
func (c *Client) url(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return c.baseURL + p
}

// FilePart is one file to include in the multipart submission.
type FilePart struct {
	Name    string
	Content []byte
}

// AnalyzeRequest is everything one job submission carries.
type AnalyzeRequest struct {
	Files      []FilePart
	Archive    FilePart
	TextInput  string
	NovelNames string
	Parameters models.Parameters
	Progress   ProgressFunc
}

// Analyze submits one job and decodes the result envelope. Non-2xx responses
// become a *StatusError carrying the backend's detail message when present.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*models.Envelope, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, f := range req.Files {
		part, err := mw.CreateFormFile("input_files", f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, err
		}
	}

	part, err := mw.CreateFormFile("database_file", req.Archive.Name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.Archive.Content); err != nil {
		return nil, err
	}

	if req.TextInput != "" {
		mw.WriteField("text_input", req.TextInput)
	}
	if req.NovelNames != "" {
		mw.WriteField("novel_names", req.NovelNames)
	}
	mw.WriteField("k_neighbors", strconv.Itoa(req.Parameters.KNeighbors))
	mw.WriteField("dup_threshold", strconv.FormatFloat(req.Parameters.DupThreshold, 'f', -1, 64))
	mw.WriteField("similar_threshold", strconv.FormatFloat(req.Parameters.SimilarThreshold, 'f', -1, 64))

	if err := mw.Close(); err != nil {
		return nil, err
	}

	total := int64(body.Len())
	var reader io.Reader = &body
	if req.Progress != nil {
		reader = newProgressReader(&body, total, req.Progress)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/analyze"), reader)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.ContentLength = total

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding analyze response: %w", err)
	}
	return &env, nil
}

// FetchCSV downloads a result artifact's CSV text by its envelope URL.
func (c *Client) FetchCSV(ctx context.Context, artifactURL string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(artifactURL), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", newStatusError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Health probes the backend health endpoint and returns its raw JSON body.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/api/health"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.health.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp)
	}
	return io.ReadAll(resp.Body)
}

// Download streams the session's result archive. The filename comes from the
// Content-Disposition header when present, else a synthesized default.
func (c *Client) Download(ctx context.Context, sessionID string) (io.ReadCloser, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/api/download/"+sessionID), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, "", err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, "", newStatusError(resp)
	}

	filename := fmt.Sprintf("similarity_analysis_results_%s.zip", sessionID)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				filename = name
			}
		}
	}

	return resp.Body, filename, nil
}

// progressReader reports percentage milestones while the multipart body is
// consumed by the transport.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	fn    ProgressFunc
	last  int
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) *progressReader {
	pr := &progressReader{r: r, total: total, fn: fn, last: -1}
	if total <= 0 {
		// Total unknown: report a single indeterminate tick.
		fn(50, false)
	}
	return pr
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		percent := int(p.read * 100 / p.total)
		if percent != p.last {
			p.last = percent
			p.fn(percent, true)
		}
	}
	return n, err
}
