package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ddanilovs/campuslink/internal/common"
	"github.com/ddanilovs/campuslink/internal/models"
)

// TokenProvider yields the current bearer token, or "" when signed out.
type TokenProvider interface {
	Token() string
}

// HTTPSource talks to the document-store server over HTTP/JSON.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	tokens  TokenProvider
}

func NewHTTPSource(baseURL string, tokens TokenProvider) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
}

func (s *HTTPSource) FetchAll(ctx context.Context, c models.Collection) ([]models.Document, error) {
	var page Page
	err := s.do(ctx, http.MethodGet, fmt.Sprintf("/v1/%s", c), nil, &page)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c, err)
	}
	return page.Items, nil
}

func (s *HTTPSource) Write(ctx context.Context, c models.Collection, d models.Document) (models.Document, error) {
	var stored models.Document
	err := s.do(ctx, http.MethodPut, fmt.Sprintf("/v1/%s/%s", c, d.ID), d, &stored)
	if err != nil {
		return models.Document{}, fmt.Errorf("write %s/%s: %w", c, d.ID, err)
	}
	return stored, nil
}

func (s *HTTPSource) QueryPage(ctx context.Context, c models.Collection, q Query) (Page, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.After != "" {
		params.Set("after", q.After)
	}
	if q.Order != "" {
		params.Set("order", string(q.Order))
	}

	path := fmt.Sprintf("/v1/%s", c)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var page Page
	if err := s.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return Page{}, fmt.Errorf("query %s: %w", c, err)
	}
	return page, nil
}

func (s *HTTPSource) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/health", nil, nil)
}

// do performs one request, mapping transport and status failures onto the
// common sentinels the orchestrator classifies with errors.Is.
func (s *HTTPSource) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := s.tokens.Token(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return common.ErrUnauthorized
	case code == http.StatusNotFound || code == http.StatusBadRequest:
		return fmt.Errorf("status %d: %w", code, common.ErrUnknownCollection)
	case code >= 500:
		return fmt.Errorf("status %d: %w", code, common.ErrServerError)
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}
