package nftmeta

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/IGLOU-EU/go-wildcard/v2"
	"github.com/klauspost/compress/gzhttp"
	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/telemetry"
	"github.com/nftmeta/nftmeta/tracing"
	"github.com/nftmeta/nftmeta/util"
	"github.com/rs/zerolog"
)

const (
	RouteToken       = "/api/v4/{network}/metadata/token"
	RouteCollection  = "/api/v4/{network}/metadata/collection"
	RouteHealthcheck = "/healthcheck"
)

type HttpServer struct {
	config   *common.ServerConfig
	server   *http.Server
	nftmeta  *NftMeta
	logger   *zerolog.Logger
	draining atomic.Bool
}

// resolveFunc produces the JSON body of a successful metadata response.
type resolveFunc func(ctx context.Context, r *http.Request) (interface{}, error)

type HealthCheckResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type tokensResponse struct {
	Metadata []*common.TokenMetadata `json:"metadata"`
}

type collectionResponse struct {
	Collection *common.Collection `json:"collection"`
}

func NewHttpServer(ctx context.Context, logger *zerolog.Logger, cfg *common.ServerConfig, nm *NftMeta) *HttpServer {
	addr := fmt.Sprintf("%s:%d", cfg.HttpHost, cfg.HttpPort)

	// zero leaves requests unbounded
	var timeOutDur time.Duration
	if cfg.MaxTimeout != nil && cfg.MaxTimeout.Duration() > 0 {
		timeOutDur = cfg.MaxTimeout.Duration()
	}

	lg := logger.With().Str("component", "httpServer").Logger()
	srv := &HttpServer{
		config:  cfg,
		nftmeta: nm,
		logger:  &lg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+RouteToken, srv.handleRequest(RouteToken, timeOutDur, srv.resolveTokenRequest))
	mux.HandleFunc("OPTIONS "+RouteToken, srv.handleRequest(RouteToken, timeOutDur, nil))
	mux.HandleFunc("GET "+RouteCollection, srv.handleRequest(RouteCollection, timeOutDur, srv.resolveCollectionRequest))
	mux.HandleFunc("OPTIONS "+RouteCollection, srv.handleRequest(RouteCollection, timeOutDur, nil))
	mux.HandleFunc("GET "+RouteHealthcheck, srv.handleHealthCheck)

	srv.server = &http.Server{
		Addr:              addr,
		Handler:           gzhttp.GzipHandler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down http server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx, logger); err != nil {
			logger.Error().Msgf("http server forced to shutdown: %s", err)
		} else {
			logger.Info().Msg("http server stopped")
		}
	}()

	return srv
}

func (s *HttpServer) handleRequest(route string, timeOutDur time.Duration, resolve resolveFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		network := r.PathValue("network")
		method := r.URL.Query().Get("method")

		if s.config.CORS != nil {
			if !s.handleCORS(w, r, s.config.CORS) {
				return
			}
		}
		if r.Method == http.MethodOptions || resolve == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		ctx, span := tracing.StartHTTPServerSpan(r.Context(), r, route)
		defer span.End()

		requestCtx, cancel := context.WithCancel(ctx)
		if timeOutDur > 0 {
			requestCtx, cancel = context.WithTimeout(ctx, timeOutDur)
		}
		defer cancel()

		resultChan := make(chan interface{}, 1)
		errChan := make(chan error, 1)

		go func() {
			defer func() {
				if rec := recover(); rec != nil {
					telemetry.MetricUnexpectedPanicTotal.WithLabelValues("http-request", fmt.Sprintf("%v", rec)).Inc()
					errChan <- fmt.Errorf("unexpected server panic: %v", rec)
				}
			}()

			s.logger.Debug().
				Str("route", route).
				Str("network", network).
				Str("method", method).
				Str("query", r.URL.RawQuery).
				Str("userAgent", r.UserAgent()).
				Msg("received metadata request")

			body, err := resolve(requestCtx, r)
			if err != nil {
				errChan <- err
				return
			}
			resultChan <- body
		}()

		var status int
		var failure error
		select {
		case body := <-resultChan:
			status = http.StatusOK
			s.writeJson(w, status, body)
		case err := <-errChan:
			failure = err
			status = handleErrorResponse(s.logger, err, w)
		case <-requestCtx.Done():
			if errors.Is(requestCtx.Err(), context.DeadlineExceeded) {
				failure = common.NewErrRequestTimeOut(timeOutDur.String())
			} else {
				failure = requestCtx.Err()
			}
			status = handleErrorResponse(s.logger, failure, w)
		}

		tracing.EnrichHTTPServerSpan(ctx, status, failure)
		telemetry.ObserverHandle(
			telemetry.MetricHttpRequestDuration,
			route, network, method, strconv.Itoa(status),
		).Observe(time.Since(startedAt).Seconds())
	}
}

// resolveTokenRequest serves both the contract form (?contract=&continuation=)
// and the token list form (?token=c:id&token=c:id).
func (s *HttpServer) resolveTokenRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	chainId, provider, err := s.nftmeta.Resolve(r.PathValue("network"), query.Get("method"))
	if err != nil {
		return nil, err
	}

	if raw := query.Get("contract"); raw != "" {
		contract, err := common.NormalizeContract(raw)
		if err != nil {
			return nil, common.NewErrInvalidTokenRef(raw, err.Error())
		}
		res, err := s.nftmeta.ResolveContractTokens(ctx, chainId, provider, contract, query.Get("continuation"))
		if err != nil {
			return nil, err
		}
		if res.IsUnsupported() {
			return nil, nil
		}
		return res.Value, nil
	}

	refs, err := parseTokenRefs(query["token"])
	if err != nil {
		return nil, err
	}
	metadata, err := s.nftmeta.ResolveTokens(ctx, chainId, provider, refs)
	if err != nil {
		return nil, err
	}
	return &tokensResponse{Metadata: metadata}, nil
}

func (s *HttpServer) resolveCollectionRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	chainId, provider, err := s.nftmeta.Resolve(r.PathValue("network"), query.Get("method"))
	if err != nil {
		return nil, err
	}
	ref, err := common.ParseCollectionRef(query.Get("token"))
	if err != nil {
		return nil, err
	}
	collection, err := s.nftmeta.ResolveCollection(ctx, chainId, provider, ref)
	if err != nil {
		return nil, err
	}
	return &collectionResponse{Collection: collection}, nil
}

// parseTokenRefs accepts repeated token params as well as comma separated lists.
func parseTokenRefs(values []string) ([]common.TokenRef, error) {
	var refs []common.TokenRef
	for _, v := range values {
		for _, raw := range util.SplitAndTrim(v) {
			ref, err := common.ParseTokenRef(raw)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return nil, common.NewErrMissingToken()
	}
	return refs, nil
}

func (s *HttpServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.draining.Load() {
		s.writeJson(w, http.StatusServiceUnavailable, &HealthCheckResponse{Status: "ERROR", Message: "shutting down"})
		return
	}
	s.writeJson(w, http.StatusOK, &HealthCheckResponse{Status: "OK"})
}

func (s *HttpServer) handleCORS(w http.ResponseWriter, r *http.Request, corsConfig *common.CORSConfig) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := false
	for _, allowedOrigin := range corsConfig.AllowedOrigins {
		if wildcard.Match(allowedOrigin, origin) {
			allowed = true
			break
		}
	}

	if !allowed {
		s.logger.Debug().Str("origin", origin).Msg("CORS request from disallowed origin")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
		} else {
			http.Error(w, "CORS request from disallowed origin", http.StatusForbidden)
		}
		return false
	}

	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", strings.Join(corsConfig.AllowedMethods, ", "))
	w.Header().Set("Access-Control-Allow-Headers", strings.Join(corsConfig.AllowedHeaders, ", "))
	if corsConfig.MaxAge > 0 {
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(corsConfig.MaxAge))
	}

	return true
}

func (s *HttpServer) writeJson(w http.ResponseWriter, status int, body interface{}) {
	writeJson(s.logger, w, status, body)
}

func writeJson(logger *zerolog.Logger, w http.ResponseWriter, status int, body interface{}) {
	buf, err := common.SonicCfg.Marshal(body)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode response body")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf); err != nil {
		logger.Debug().Err(err).Msg("failed to write response body")
	}
}

// handleErrorResponse writes the error envelope and returns the status used.
func handleErrorResponse(logger *zerolog.Logger, err error, hrw http.ResponseWriter) int {
	status := common.StatusCodeOf(err)

	switch {
	case common.IsValidationError(err), common.HasErrorCode(err, common.ErrCodeCollectionNotFound):
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	case common.HasErrorCode(err, common.ErrCodeProviderThrottled):
		logger.Warn().Err(err).Int("status", status).Msg("provider throttled request")
	default:
		logger.Error().Err(err).Int("status", status).Msg("failed to resolve metadata")
	}

	var body interface{}
	var bodyErr common.ErrorWithBody
	if errors.As(err, &bodyErr) {
		body = bodyErr.ErrorResponseBody()
	} else {
		body = map[string]interface{}{
			"error": common.ErrorMessage(err),
		}
	}

	var retryErr common.RetryableError
	if errors.As(err, &retryErr) && retryErr.RetryAfter() > 0 {
		hrw.Header().Set("Retry-After", strconv.Itoa(retryErr.RetryAfter()))
	}

	writeJson(logger, hrw, status, body)
	return status
}

func (s *HttpServer) Start(logger *zerolog.Logger) error {
	logger.Info().Msgf("starting http server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *HttpServer) Shutdown(ctx context.Context, logger *zerolog.Logger) error {
	s.draining.Store(true)
	logger.Info().Msg("shutting down http server")
	return s.server.Shutdown(ctx)
}
