package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/metrics"
)

type tokenKey struct{}

// WithToken attaches the backend bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

type Options struct {
	BaseURL string
	Timeout time.Duration

	// Breaker trips after this many consecutive network or server failures.
	FailureThreshold uint32
	OpenTimeout      time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Collector
}

// Client calls the scheduling REST API under /api/v1.
type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger
	metrics *metrics.Collector
}

var _ schedule.Backend = (*Client)(nil)

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	log := opts.Logger.Named("backend")
	threshold := opts.FailureThreshold

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "scheduling-backend",
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		// only an unreachable or broken backend counts against the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || !(httperr.Is(err, httperr.KindNetwork) || httperr.Is(err, httperr.KindServer))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		base:    strings.TrimRight(opts.BaseURL, "/") + "/api/v1",
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		breaker: breaker,
		log:     log,
		metrics: opts.Metrics,
	}
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
}

// do sends one request and decodes a 2xx body into out. Failures come back as
// httperr kinds; nothing is retried.
func (c *Client) do(ctx context.Context, rq call, out any) error {
	started := time.Now()

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(ctx, rq)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = httperr.ErrNetwork(err)
	}

	outcome := "ok"
	if err != nil {
		outcome = string(httperr.KindOf(err))
		c.log.Warn("backend call failed",
			zap.String("op", rq.op),
			zap.String("path", rq.path),
			zap.Error(err),
		)
	}
	c.metrics.ObserveBackend(rq.op, outcome, time.Since(started))

	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return httperr.ErrServer(http.StatusOK, fmt.Sprintf("respuesta inválida del servidor (%s)", rq.op))
	}
	return nil
}

func (c *Client) send(ctx context.Context, rq call) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base + rq.path
	if len(rq.query) > 0 {
		u += "?" + rq.query.Encode()
	}

	var body io.Reader
	if rq.body != nil {
		b, err := json.Marshal(rq.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, rq.method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if tok := TokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, httperr.ErrNetwork(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, httperr.ErrNetwork(err)
	}

	c.log.Debug("backend call",
		zap.String("op", rq.op),
		zap.String("method", rq.method),
		zap.String("path", rq.path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	return nil, mapStatus(rq.op, resp.StatusCode, detailOf(raw))
}

func mapStatus(op string, status int, detail string) error {
	switch {
	case status == http.StatusUnauthorized && op == opLogin:
		if detail == "" {
			detail = "Usuario o contraseña incorrectos."
		}
		return httperr.ErrValidation("invalid_credentials", detail)
	case status == http.StatusUnauthorized:
		return httperr.ErrAuth(detail)
	case status == http.StatusForbidden:
		return httperr.ErrValidation("forbidden", orDefault(detail, "No tiene permisos para esta operación."))
	case status == http.StatusNotFound:
		return httperr.ErrValidation("not_found", orDefault(detail, "Recurso no encontrado."))
	case status == http.StatusConflict:
		return httperr.ErrConflict("backend_conflict", orDefault(detail, "El horario ya no está disponible."))
	case status >= 500:
		return httperr.ErrServer(status, detail)
	default:
		return httperr.ErrValidation("backend_validation", orDefault(detail, "Datos inválidos."))
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
