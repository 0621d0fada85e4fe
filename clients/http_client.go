package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/telemetry"
	"github.com/nftmeta/nftmeta/tracing"
	"github.com/nftmeta/nftmeta/util"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxErrorBodyLength = 512

// ProviderHttpClient is the JSON over HTTP transport shared by every provider
// adapter. It never retries: throttling is surfaced as ErrProviderThrottled and
// any other non-2xx answer as ErrProviderRequest.
type ProviderHttpClient struct {
	Provider string
	BaseUrl  *url.URL

	logger     *zerolog.Logger
	headers    map[string]string
	httpClient *http.Client
}

type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Body      interface{}
	ChainId   int64
	Operation string
}

func NewProviderHttpClient(
	logger *zerolog.Logger,
	provider string,
	baseUrl string,
	headers map[string]string,
	timeout time.Duration,
) (*ProviderHttpClient, error) {
	parsedUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid base url for provider %s: %w", provider, err)
	}
	if parsedUrl.Scheme != "http" && parsedUrl.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme for provider %s: %s", provider, parsedUrl.Scheme)
	}

	lg := logger.With().Str("component", "providerClient").Str("provider", provider).Logger()
	client := &ProviderHttpClient{
		Provider: provider,
		BaseUrl:  parsedUrl,
		logger:   &lg,
		headers:  headers,
	}

	if util.IsTest() {
		client.httpClient = &http.Client{}
	} else {
		// a zero timeout leaves calls unbounded
		client.httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:          256,
				MaxIdleConnsPerHost:   64,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		}
	}

	return client, nil
}

// Do sends the request and decodes a successful JSON answer into out (when not nil).
func (c *ProviderHttpClient) Do(ctx context.Context, req *Request, out interface{}) error {
	chain := strconv.FormatInt(req.ChainId, 10)
	ctx, span := tracing.StartSpan(ctx, "Provider.HttpRequest",
		trace.WithAttributes(
			attribute.String("provider", c.Provider),
			attribute.Int64("chain.id", req.ChainId),
			attribute.String("operation", req.Operation),
		),
	)
	defer span.End()

	telemetry.CounterHandle(telemetry.MetricProviderRequestTotal, c.Provider, chain, req.Operation).Inc()

	err := c.do(ctx, req, out)
	if err != nil {
		tracing.SetError(span, err)
		var throttled *common.ErrProviderThrottled
		if errors.As(err, &throttled) {
			telemetry.CounterHandle(telemetry.MetricProviderThrottledTotal, c.Provider, chain).Inc()
		} else {
			telemetry.CounterHandle(
				telemetry.MetricProviderRequestErrorsTotal,
				c.Provider, chain, req.Operation, errorLabel(err),
			).Inc()
		}
	}
	return err
}

func (c *ProviderHttpClient) do(ctx context.Context, req *Request, out interface{}) error {
	target := c.BaseUrl.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := common.SonicCfg.Marshal(req.Body)
		if err != nil {
			return common.NewErrProviderRequest(c.Provider, 0, fmt.Errorf("cannot encode request body: %w", err), nil)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return common.NewErrProviderRequest(c.Provider, 0, err, nil)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Accept-Encoding", "gzip")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	c.logger.Trace().
		Str("method", method).
		Str("url", util.RedactEndpoint(target.String())).
		Str("operation", req.Operation).
		Msg("sending request to provider")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return common.NewErrProviderRequest(c.Provider, 0, ctx.Err(), nil)
		}
		return common.NewErrProviderRequest(c.Provider, 0, err, nil)
	}
	defer resp.Body.Close()

	respBody, err := readBody(resp)
	if err != nil {
		return common.NewErrProviderRequest(c.Provider, resp.StatusCode, fmt.Errorf("cannot read response body: %w", err), nil)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return c.throttledError(resp, respBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details := util.ExtractUsefulHeaders(resp)
		details["body"] = truncate(string(respBody), maxErrorBodyLength)
		c.logger.Debug().
			Int("statusCode", resp.StatusCode).
			Str("url", util.RedactEndpoint(target.String())).
			Str("body", truncate(string(respBody), maxErrorBodyLength)).
			Msg("provider answered with non-2xx status")
		return common.NewErrProviderRequest(
			c.Provider,
			resp.StatusCode,
			fmt.Errorf("%s", http.StatusText(resp.StatusCode)),
			details,
		)
	}

	if out == nil {
		return nil
	}
	if err := common.SonicCfg.Unmarshal(respBody, out); err != nil {
		return common.NewErrProviderMalformedResponse(c.Provider, err)
	}
	return nil
}

// throttledError takes the delay from the provider's message when present
// ("Request was throttled. Expected available in 30 seconds."), then from
// Retry-After, and falls back to one second.
func (c *ProviderHttpClient) throttledError(resp *http.Response, body []byte) error {
	message := extractErrorMessage(body)
	delay, ok := util.ParseDelaySeconds(message)
	if !ok || delay <= 0 {
		delay = 0
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(ra)); err == nil && n > 0 {
				delay = n
			}
		}
	}
	if delay <= 0 {
		delay = 1
	}
	if message == "" {
		message = http.StatusText(http.StatusTooManyRequests)
	}
	c.logger.Warn().Int("delaySeconds", delay).Str("message", message).Msg("provider throttled request")
	return common.NewErrProviderThrottled(c.Provider, message, delay)
}

// IsNotFound reports whether the provider answered 404, which adapters treat as absence.
func IsNotFound(err error) bool {
	var reqErr *common.ErrProviderRequest
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("cannot create gzip reader: %w", err)
		}
		defer gzReader.Close()
		return io.ReadAll(gzReader)
	}
	return io.ReadAll(resp.Body)
}

func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := common.SonicCfg.Unmarshal(body, &payload); err != nil {
		return truncate(strings.TrimSpace(string(body)), maxErrorBodyLength)
	}
	for _, k := range []string{"detail", "error", "message"} {
		if s, ok := payload[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func errorLabel(err error) string {
	var se common.StandardError
	if errors.As(err, &se) {
		return string(se.Base().Code)
	}
	return "unknown"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
