package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/rgehrsitz/ichra/internal/calculation"
	"github.com/rgehrsitz/ichra/internal/config"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/session"
	"github.com/rgehrsitz/ichra/internal/solver"
)

// RequestIDHeader carries the per-request identifier
const RequestIDHeader = "X-Request-ID"

// DefaultRequestTimeout bounds premium lookups and solving for one request
const DefaultRequestTimeout = 30 * time.Second

// handlerFunc computes a route's result inside a request session
type handlerFunc func(ctx context.Context, sess *session.Session, req *Request) (any, error)

// Server answers analysis requests. Each request opens its own session.
type Server struct {
	cfg     *domain.PlanYearConfig
	sources session.Sources
	logger  calculation.Logger
	timeout time.Duration
	routes  map[string]handlerFunc
}

// NewServer creates a server. sources is used for requests that carry no
// premium table; it may be empty.
func NewServer(cfg *domain.PlanYearConfig, sources session.Sources) *Server {
	if cfg == nil {
		cfg = domain.DefaultPlanYearConfig()
	}
	s := &Server{
		cfg:     cfg,
		sources: sources,
		logger:  calculation.NopLogger{},
		timeout: DefaultRequestTimeout,
	}
	s.routes = map[string]handlerFunc{
		"/v1/analyze":   s.analyze,
		"/v1/strategy":  s.strategy,
		"/v1/solve":     s.solve,
		"/v1/compare":   s.compare,
		"/v1/recommend": s.recommend,
		"/v1/patterns":  s.patterns,
		"/v1/subsidy":   s.subsidy,
	}
	return s
}

// SetLogger sets the logger; nil restores the no-op logger
func (s *Server) SetLogger(l calculation.Logger) {
	if l == nil {
		l = calculation.NopLogger{}
	}
	s.logger = l
}

// SetTimeout changes the per-request deadline
func (s *Server) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Handler routes requests
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		requestID := uuid.New().String()
		ctx.Response.Header.Set(RequestIDHeader, requestID)

		path := string(ctx.Path())
		switch route, ok := s.routes[path]; {
		case path == "/healthz":
			if !ctx.IsGet() {
				writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
				break
			}
			writeJSON(ctx, fasthttp.StatusOK, map[string]any{"status": "ok", "plan_year": s.cfg.Metadata.PlanYear})
		case !ok:
			writeError(ctx, fasthttp.StatusNotFound, "not found: "+path)
		case !ctx.IsPost():
			writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		default:
			s.serve(ctx, requestID, route)
		}

		s.logger.Infof("%s %s %d %s request_id=%s",
			ctx.Method(), path, ctx.Response.StatusCode(), time.Since(start).Round(time.Microsecond), requestID)
	}
}

func (s *Server) serve(ctx *fasthttp.RequestCtx, requestID string, route handlerFunc) {
	var req Request
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	sess, err := s.open(reqCtx, &req)
	if err != nil {
		writeError(ctx, statusFor(err), err.Error())
		return
	}
	sess.SetLogger(s.logger)

	result, err := route(reqCtx, sess, &req)
	if err != nil {
		s.logger.Warnf("request %s failed: %v", requestID, err)
		writeError(ctx, statusFor(err), err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, Response{
		RequestID: requestID,
		SessionID: sess.ID,
		PlanYear:  sess.PlanYear(),
		Result:    result,
	})
}

// badRequest marks errors caused by the request body
type badRequest struct{ error }

func (e badRequest) Unwrap() error { return e.error }

func (s *Server) open(ctx context.Context, req *Request) (*session.Session, error) {
	if len(req.Employees) == 0 {
		return nil, badRequest{errors.New("at least one employee is required")}
	}
	records, err := req.records()
	if err != nil {
		return nil, badRequest{err}
	}
	census, err := config.CensusFromRecords(records)
	if err != nil {
		return nil, badRequest{err}
	}

	src := s.sources
	if req.Premiums != nil {
		if err := config.NewInputParser().ValidatePremiumTable(req.Premiums); err != nil {
			return nil, badRequest{err}
		}
		src = session.TableSources(req.Premiums)
	}
	if src.LCSP == nil {
		return nil, badRequest{errors.New("no premium table in request and no premium lookup configured")}
	}

	sess, err := session.New(s.cfg, census, src)
	if err != nil {
		return nil, badRequest{err}
	}
	if err := sess.Prefetch(ctx); err != nil {
		return nil, fmt.Errorf("premium lookup failed: %w", err)
	}
	return sess, nil
}

func statusFor(err error) int {
	var (
		bad      badRequest
		cfgErr   *domain.ConfigError
		solveErr *solver.SolverError
	)
	switch {
	case errors.As(err, &bad), errors.As(err, &cfgErr), errors.As(err, &solveErr):
		return fasthttp.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return fasthttp.StatusGatewayTimeout
	}
	return fasthttp.StatusInternalServerError
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		status = fasthttp.StatusInternalServerError
		data, _ = json.Marshal(ErrorResponse{Status: status, Message: "failed to encode response: " + err.Error()})
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(data)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, ErrorResponse{Status: status, Message: message})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "ichra",
		ReadTimeout:        s.timeout,
		WriteTimeout:       s.timeout,
		MaxRequestBodySize: 16 << 20,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe(addr) }()
	s.logger.Infof("listening on %s (plan year %d)", addr, s.cfg.Metadata.PlanYear)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Infof("shutting down")
		return srv.Shutdown()
	}
}
