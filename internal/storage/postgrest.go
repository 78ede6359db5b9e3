package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PostgRESTBackend implements Backend against a hosted PostgREST endpoint,
// such as a Supabase project's /rest/v1 root
type PostgRESTBackend struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// PostgRESTConfig holds PostgREST connection configuration
type PostgRESTConfig struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// PostgRESTError is a non-2xx response from PostgREST. Code carries the
// PostgreSQL SQLSTATE when the database rejected the request.
type PostgRESTError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *PostgRESTError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest: HTTP %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest: HTTP %d: %s", e.Status, e.Message)
}

// NewPostgRESTBackend creates a PostgREST backend
func NewPostgRESTBackend(cfg PostgRESTConfig) (*PostgRESTBackend, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgrest url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("postgrest url must be absolute: %q", cfg.URL)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &PostgRESTBackend{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: client,
	}, nil
}

// Ping checks that the PostgREST root answers
func (b *PostgRESTBackend) Ping(ctx context.Context) error {
	return b.do(ctx, http.MethodGet, "", nil, nil, nil, nil)
}

// Close releases idle HTTP connections
func (b *PostgRESTBackend) Close() error {
	b.httpClient.CloseIdleConnections()
	return nil
}

// Select runs q as a PostgREST read
func (b *PostgRESTBackend) Select(ctx context.Context, q Query) ([]Row, error) {
	if err := q.validate(); err != nil {
		return nil, fmt.Errorf("invalid query on %s: %w", q.Table, err)
	}

	params := url.Values{}
	params.Set("select", selectParam(q.Columns, q.Embeds))
	for _, f := range q.Filters {
		params.Add(f.Column, filterParam(f.Value))
	}
	if len(q.Orders) > 0 {
		orders := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			dir := "asc"
			if o.Descending {
				dir = "desc"
			}
			orders = append(orders, o.Column+"."+dir)
		}
		params.Set("order", strings.Join(orders, ","))
	}
	if q.MaxRows > 0 {
		params.Set("limit", strconv.Itoa(q.MaxRows))
	}

	rows := make([]Row, 0)
	if err := b.do(ctx, http.MethodGet, q.Table, params, nil, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", q.Table, err)
	}
	return rows, nil
}

// Insert writes a single row. With returning columns PostgREST is asked for
// the stored representation as a single object.
func (b *PostgRESTBackend) Insert(ctx context.Context, table string, values Row, returning ...string) (Row, error) {
	body, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s row: %w", table, err)
	}

	headers := http.Header{}
	params := url.Values{}
	if len(returning) == 0 {
		headers.Set("Prefer", "return=minimal")
		if err := b.do(ctx, http.MethodPost, table, params, body, headers, nil); err != nil {
			return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		return nil, nil
	}

	headers.Set("Prefer", "return=representation")
	headers.Set("Accept", "application/vnd.pgrst.object+json")
	params.Set("select", selectParam(returning, nil))

	var row Row
	if err := b.do(ctx, http.MethodPost, table, params, body, headers, &row); err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return row, nil
}

func (b *PostgRESTBackend) do(ctx context.Context, method, table string, params url.Values, body []byte, headers http.Header, out any) error {
	endpoint := b.baseURL + "/"
	if table != "" {
		endpoint += url.PathEscape(table)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.apiKey != "" {
		req.Header.Set("apikey", b.apiKey)
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &PostgRESTError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// selectParam renders columns and embeds in PostgREST select syntax
func selectParam(columns []string, embeds []Embed) string {
	parts := append([]string(nil), columns...)
	for _, e := range embeds {
		parts = append(parts, e.Table+"!inner("+strings.Join(e.Columns, ",")+")")
	}
	return strings.Join(parts, ",")
}

func filterParam(value any) string {
	switch v := value.(type) {
	case nil:
		return "is.null"
	case string:
		return "eq." + v
	case bool:
		return "eq." + strconv.FormatBool(v)
	default:
		return "eq." + fmt.Sprint(v)
	}
}
