// Package rest is the live transport: it speaks the backend's HTTP API and
// returns the same envelopes the simulated backend produces. Transport-level
// failures (unreachable host, malformed payload) surface as Go errors, never
// as envelopes.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"docchat/internal/logging"
	"docchat/internal/model"
)

// Client talks to a live backend at a base URL like
// "http://localhost:8080/api".
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient creates a REST client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewLogger("rest", logging.INFO, nil)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) SendMessage(ctx context.Context, req model.ChatRequest) (*model.Response[model.ChatResponse], error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}
	return do[model.ChatResponse](ctx, c, http.MethodPost, c.baseURL+"/chat", "application/json", bytes.NewReader(body))
}

func (c *Client) ListConversations(ctx context.Context, q model.ConversationQuery) (*model.Response[model.PageResult[model.Conversation]], error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		params.Set("size", strconv.Itoa(q.Size))
	}
	if q.Type != "" {
		params.Set("type", string(q.Type))
	}
	return do[model.PageResult[model.Conversation]](ctx, c, http.MethodGet, withQuery(c.baseURL+"/chat/conversations", params), "", nil)
}

func (c *Client) GetConversation(ctx context.Context, id string) (*model.Response[model.ConversationDetail], error) {
	return do[model.ConversationDetail](ctx, c, http.MethodGet, c.baseURL+"/chat/conversations/"+url.PathEscape(id), "", nil)
}

func (c *Client) DeleteConversation(ctx context.Context, id string) (*model.Response[model.Empty], error) {
	return do[model.Empty](ctx, c, http.MethodDelete, c.baseURL+"/chat/conversations/"+url.PathEscape(id), "", nil)
}

// UploadDocument posts the payload as multipart form data: the file under
// "file", the optional title under "title".
func (c *Client) UploadDocument(ctx context.Context, up model.DocumentUpload) (*model.Response[model.Document], error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileType := up.FileType
	if fileType == "" {
		fileType = model.DetectFileType(up.FileName)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(up.FileName)))
	header.Set("Content-Type", fileType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart file part: %w", err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, fmt.Errorf("failed to write file payload: %w", err)
	}

	if up.Title != "" {
		if err := writer.WriteField("title", up.Title); err != nil {
			return nil, fmt.Errorf("failed to write title field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return do[model.Document](ctx, c, http.MethodPost, c.baseURL+"/documents/upload", writer.FormDataContentType(), &buf)
}

func (c *Client) ListDocuments(ctx context.Context, q model.DocumentQuery) (*model.Response[model.PageResult[model.Document]], error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		params.Set("size", strconv.Itoa(q.Size))
	}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	return do[model.PageResult[model.Document]](ctx, c, http.MethodGet, withQuery(c.baseURL+"/documents", params), "", nil)
}

func (c *Client) GetDocument(ctx context.Context, id string) (*model.Response[model.Document], error) {
	return do[model.Document](ctx, c, http.MethodGet, c.baseURL+"/documents/"+url.PathEscape(id), "", nil)
}

func (c *Client) DeleteDocument(ctx context.Context, id string) (*model.Response[model.Empty], error) {
	return do[model.Empty](ctx, c, http.MethodDelete, c.baseURL+"/documents/"+url.PathEscape(id), "", nil)
}

func (c *Client) GetDocumentStatus(ctx context.Context, id string) (*model.Response[model.IngestStatus], error) {
	return do[model.IngestStatus](ctx, c, http.MethodGet, c.baseURL+"/documents/"+url.PathEscape(id)+"/status", "", nil)
}

// do issues one request and decodes the envelope. Anything that prevents a
// well-formed envelope from coming back is a transport error.
func do[T any](ctx context.Context, c *Client, method, rawURL, contentType string, body io.Reader) (*model.Response[T], error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, rawURL, err)
	}

	var env model.Response[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%s %s: unexpected response (status %d): %w", method, rawURL, resp.StatusCode, err)
	}
	// An envelope commits to success or carries an error; anything else is
	// not the API we know.
	if !env.Success && env.Error == nil {
		return nil, fmt.Errorf("%s %s: malformed envelope (status %d)", method, rawURL, resp.StatusCode)
	}
	// A successful envelope must carry its payload, except for operations
	// that return none. Callers dereference Data on success.
	if env.Success && env.Data == nil {
		if _, isEmpty := any(*new(T)).(model.Empty); !isEmpty {
			return nil, fmt.Errorf("%s %s: success envelope without data (status %d)", method, rawURL, resp.StatusCode)
		}
	}

	c.logger.With("status", resp.StatusCode).Debug("%s %s", method, rawURL)
	return &env, nil
}

func withQuery(rawURL string, params url.Values) string {
	if len(params) == 0 {
		return rawURL
	}
	return rawURL + "?" + params.Encode()
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
