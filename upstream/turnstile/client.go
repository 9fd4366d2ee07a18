// Package turnstile verifica tokens do Cloudflare Turnstile (siteverify).
package turnstile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// ErrUnexpectedStatus indica resposta não-2xx do siteverify.
var ErrUnexpectedStatus = errors.New("turnstile: unexpected status")

// Result é a resposta do siteverify. Só Success decide; o resto vai para log.
type Result struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	Action      string   `json:"action"`
}

type Client struct {
	httpClient *http.Client
	verifyURL  string
	secret     string
}

type Option func(*Client)

func WithVerifyURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.verifyURL = u
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(secret string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		verifyURL:  DefaultVerifyURL,
		secret:     secret,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify envia o token (e o IP do cliente, se conhecido) ao siteverify.
//
// Erro de rede, status não-2xx ou corpo inválido voltam como error; quem chama
// deve tratar error OU !Success como falha (fail closed).
func (c *Client) Verify(ctx context.Context, token, remoteIP string) (Result, error) {
	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" && remoteIP != "unknown" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("turnstile: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("turnstile: siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Result{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var out Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("turnstile: decode response: %w", err)
	}
	return out, nil
}
