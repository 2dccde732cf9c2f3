package kimi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/muran-prog/kimi-go/core"
)

// maxResponseBytes bounds how much of a unary response body is read.
const maxResponseBytes = 1 << 20

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Engine is the entry point for the Kimi web API. It owns the credentials
// and the HTTP transport, creates chat sessions, and uploads files.
//
// Engine is safe for concurrent use: all fields are immutable after New, and
// distinct chats may stream simultaneously over the shared connection pool.
// Call Close when done to release the pool (a no-op for injected clients):
//
//	engine, err := kimi.New(kimi.WithCookiesFile("cookies.txt"))
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
type Engine struct {
	config       Config
	creds        *Credentials
	client       *http.Client // unary requests, bounded by config.Timeout
	streamClient *http.Client // streaming requests, no client timeout
	headers      http.Header
	ownsClient   bool
}

// New creates an Engine: it loads and validates credentials, builds the
// transport, and generates the per-engine identity headers. Multiple engines
// may coexist in one process with fully independent credentials and pools.
func New(opts ...Option) (*Engine, error) {
	cfg := Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		Telemetry: core.NoopTelemetryHook{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	creds, err := resolveCredentials(&cfg)
	if err != nil {
		return nil, err
	}

	e := &Engine{config: cfg, creds: creds}

	if cfg.HTTPClient != nil {
		e.client = cfg.HTTPClient
		// Streaming must not be cut by a client-wide timeout.
		streamCopy := *cfg.HTTPClient
		streamCopy.Timeout = 0
		e.streamClient = &streamCopy
	} else {
		transport := &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConnsPerHost:   8,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		}
		if cfg.Proxy != "" {
			proxyURL, err := url.Parse(cfg.Proxy)
			if err != nil {
				return nil, &core.Error{
					Op:      "new_engine",
					Message: fmt.Sprintf("invalid proxy url: %v", err),
					Err:     core.ErrConfiguration,
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
		e.client = &http.Client{Transport: transport, Timeout: cfg.Timeout}
		e.streamClient = &http.Client{Transport: transport}
		e.ownsClient = true
	}

	e.headers = e.buildHeaders()
	return e, nil
}

func resolveCredentials(cfg *Config) (*Credentials, error) {
	switch {
	case cfg.Credentials != nil:
		return cfg.Credentials, nil
	case cfg.CookiesReader != nil:
		return ParseCredentials(cfg.CookiesReader)
	case cfg.CookiesPath != "":
		return LoadCredentials(cfg.CookiesPath)
	default:
		return nil, &core.Error{
			Op:      "new_engine",
			Message: "no cookie source: use WithCookiesFile, WithCookies, or WithCredentials",
			Err:     core.ErrConfiguration,
		}
	}
}

// Close releases the engine-owned connection pool. It is safe to call more
// than once. Injected HTTP clients are left untouched; their lifecycle
// belongs to the caller.
func (e *Engine) Close() {
	if e.ownsClient {
		e.client.CloseIdleConnections()
	}
}

// buildHeaders constructs the immutable header set sent with every request:
// the browser-like identity the web client presents, the bearer token, and
// the full cookie set.
func (e *Engine) buildHeaders() http.Header {
	h := make(http.Header)
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Content-Type", "application/json")
	h.Set("Origin", "https://www.kimi.com")
	h.Set("Referer", "https://www.kimi.com/")
	h.Set("User-Agent", defaultUserAgent)
	h.Set("X-Language", "en-US")
	h.Set("X-Msh-Platform", "web")
	h.Set("X-Msh-Device-Id", randomDigits())
	h.Set("X-Msh-Session-Id", randomDigits())
	h.Set("X-Traffic-Id", randomTrafficID())
	h.Set("Authorization", "Bearer "+e.creds.AuthToken().Expose())
	h.Set("Cookie", e.creds.CookieHeader())

	for key, values := range e.config.Headers {
		h.Del(key)
		for _, v := range values {
			h.Add(key, v)
		}
	}
	return h
}

// randomDigits returns a 19-digit numeric ID in the range the web client uses.
func randomDigits() string {
	const lo = int64(1e18)
	return fmt.Sprintf("%d", lo+rand.Int63n(9*lo))
}

func randomTrafficID() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 20)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// CreateChat creates a new conversation on the Kimi backend and returns the
// session wrapping it.
func (e *Engine) CreateChat(ctx context.Context, name string) (*ChatSession, error) {
	const op = "create_chat"
	if name == "" {
		name = "New Chat"
	}

	payload := createChatRequest{
		Name:       name,
		BornFrom:   "home",
		KimiplusID: "kimi",
		IsExample:  false,
		Source:     "web",
		Tags:       []string{},
	}

	var out createChatResponse
	if err := e.doJSON(ctx, op, http.MethodPost, "/chat", payload, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, newDecodeError(op, fmt.Errorf("response missing chat id"), nil)
	}

	return &ChatSession{
		chat:   core.Chat{ID: out.ID, Name: name},
		engine: e,
	}, nil
}

// UploadFiles uploads several files concurrently and returns the handles in
// input order. The first failure cancels the remaining uploads.
func (e *Engine) UploadFiles(ctx context.Context, paths ...string) ([]*core.UploadedFile, error) {
	files := make([]*core.UploadedFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			f, err := e.UploadFile(ctx, path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// newRequest builds a request carrying the engine's header set. target is
// either a path resolved against the base URL or an absolute URL.
func (e *Engine) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = e.config.BaseURL + target
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header = e.headers.Clone()
	return req, nil
}

// doJSON executes one unary JSON request and decodes the response into out.
// All failures come back classified; raw transport errors never escape.
func (e *Engine) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	start := time.Now()
	requestID := uuid.NewString()
	e.config.Telemetry.OnRequestStart(core.RequestStartEvent{
		RequestID: requestID,
		Op:        op,
		Start:     start,
	})

	status, err := e.roundTripJSON(ctx, op, method, path, in, out)

	e.config.Telemetry.OnRequestEnd(core.RequestEndEvent{
		RequestID: requestID,
		Op:        op,
		Start:     start,
		End:       time.Now(),
		Status:    status,
		Err:       err,
	})
	return err
}

func (e *Engine) roundTripJSON(ctx context.Context, op, method, path string, in, out any) (int, error) {
	var bodyReader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return 0, newDecodeError(op, err, nil)
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := e.newRequest(ctx, method, path, bodyReader)
	if err != nil {
		return 0, newNetworkError(op, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, newNetworkError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, newNetworkError(op, err)
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, normalizeError(op, resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, newDecodeError(op, err, respBody)
		}
	}
	return resp.StatusCode, nil
}
