// Package shortener is a client for AdLinkFly-compatible link shortening APIs.
package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxBodySize = 1 << 20

var (
	ErrBadStatus  = errors.New("unexpected status from shortener")
	ErrAPI        = errors.New("shortener rejected the request")
	ErrNoShortURL = errors.New("shortener response has no shortened url")
)

type shortenResponse struct {
	Status       string          `json:"status"`
	Message      json.RawMessage `json:"message"`
	ShortenedURL string          `json:"shortenedUrl"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the API at baseURL. A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Shorten asks the API to shorten link on behalf of the owner of apiKey.
func (c *Client) Shorten(ctx context.Context, apiKey, link string) (string, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse shortener url: %w", err)
	}
	q := endpoint.Query()
	q.Set("api", apiKey)
	q.Set("url", link)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read shortener response: %w", err)
	}
	var sr shortenResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("decode shortener response: %w", err)
	}
	if strings.EqualFold(sr.Status, "error") {
		return "", fmt.Errorf("%w: %s", ErrAPI, apiMessage(sr.Message))
	}
	short := strings.TrimSpace(sr.ShortenedURL)
	if short == "" {
		return "", ErrNoShortURL
	}
	return short, nil
}

// apiMessage flattens the message field, which AdLinkFly sends either as a
// string or as a list of strings.
func apiMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "no message"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return string(raw)
}
