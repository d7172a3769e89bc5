// Package llm talks to the text-generation backend: one blocking completion
// endpoint, deterministic sampling, and a layered recovery path that turns
// whatever comes back into a safe action envelope.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zalando/go-keyring"
)

const keyringService = "vaultsort"

// truncateAt bounds the prompt on the final retry attempt.
const truncateAt = 12000

var defaultStop = []string{"</s>", "\n\n", "\nOBSERVATION:", "\nRECENT_TOOL_OBS:"}

type Client struct {
	BaseURL string
	KeyName string // optional keyring entry for remote OpenAI-compatible backends
	HTTP    *http.Client
	Timeout time.Duration

	retryDelay time.Duration // shortened in tests
}

func NewClient(baseURL, keyName string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080/completion"
	}
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		KeyName:    keyName,
		HTTP:       &http.Client{},
		Timeout:    timeout,
		retryDelay: time.Second,
	}
}

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	Stream      bool     `json:"stream"`
	Stop        []string `json:"stop,omitempty"`
}

type completionResponse struct {
	Content *string `json:"content"`
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Complete calls the backend deterministically and returns the coerced
// envelope plus the raw reply text. It degrades instead of failing: network
// errors, non-2xx statuses and malformed bodies all produce an error-tagged
// empty envelope. Up to three attempts are made; a read timeout widens the
// per-call timeout, and the last attempt truncates the prompt.
func (c *Client) Complete(ctx context.Context, prompt string, nPredict int) (Envelope, string) {
	timeout := c.Timeout
	raw := ""

	for attempt := 0; attempt < 3; attempt++ {
		req := completionRequest{
			Prompt:      prompt,
			NPredict:    nPredict,
			Temperature: 0,
			TopP:        0,
			Stream:      false,
		}
		switch attempt {
		case 0:
			req.Stop = defaultStop
		case 2:
			req.Prompt = truncate(req.Prompt, truncateAt)
		}

		body, status, err := c.post(ctx, req, timeout)
		switch {
		case err == nil && status < 400:
			env, text, perr := parseBody(body)
			if perr != nil {
				return emptyEnvelope(fmt.Sprintf("parse_error:%v", perr)), string(body)
			}
			return env, text
		case err == nil:
			// 4xx/5xx: keep the body for forensics and retry.
			raw = string(body)
			sleep(ctx, c.retryDelay)
		case isTimeout(err):
			timeout += 120 * time.Second
			sleep(ctx, 2*c.retryDelay)
		default:
			return emptyEnvelope(fmt.Sprintf("llm_error:%v", err)), raw
		}
		if ctx.Err() != nil {
			return emptyEnvelope(fmt.Sprintf("llm_error:%v", ctx.Err())), raw
		}
	}
	return emptyEnvelope("llm_400_or_timeout"), raw
}

func (c *Client) post(ctx context.Context, req completionRequest, timeout time.Duration) ([]byte, int, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, 0, err
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.KeyName != "" {
		if key, kerr := keyring.Get(keyringService, c.KeyName); kerr == nil && key != "" {
			httpReq.Header.Set("Authorization", "Bearer "+key)
		}
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// parseBody accepts both backend shapes: {"content": "..."} from llama.cpp
// style servers and OpenAI-style {"choices":[{"text":"..."}]}.
func parseBody(body []byte) (Envelope, string, error) {
	var cr completionResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return Envelope{}, "", err
	}
	var text string
	switch {
	case cr.Content != nil:
		text = *cr.Content
	case len(cr.Choices) > 0:
		text = cr.Choices[0].Text
	}
	text = strings.TrimSpace(text)
	return Coerce(text), text, nil
}

// truncate bounds s to at most limit bytes without splitting a UTF-8 rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// WaitReady polls the backend's TCP port until it accepts connections or the
// timeout elapses.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) bool {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return false
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "80")
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", host, time.Second)
		if err == nil {
			conn.Close()
			return true
		}
		sleep(ctx, time.Second)
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}
