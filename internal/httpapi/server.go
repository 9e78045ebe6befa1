// Package httpapi exposes the session operations over HTTP/JSON on fasthttp.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/park285/cheese-gamecore/internal/domain"
	"github.com/park285/cheese-gamecore/internal/metrics"
	"github.com/park285/cheese-gamecore/internal/msgcat"
	"github.com/park285/cheese-gamecore/internal/obslog"
	"github.com/park285/cheese-gamecore/internal/pvpchess"
)

// Historian reads archived games. *pvpchess.Repository implements it.
type Historian interface {
	History(ctx context.Context, playerID string, limit int) ([]domain.ArchivedGame, error)
}

type Option func(*Server)

// WithHistory enables the archive endpoint.
func WithHistory(h Historian) Option {
	return func(s *Server) { s.history = h }
}

// WithMetrics records request counts and serves /metrics.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Server) {
		s.rec = rec
		if rec != nil {
			s.metrics = fasthttpadaptor.NewFastHTTPHandler(rec.Handler())
		}
	}
}

// WithCatalog renders user-facing messages from cat.
func WithCatalog(cat *msgcat.Catalog) Option {
	return func(s *Server) { s.cat = cat }
}

// Server routes requests to the session manager.
type Server struct {
	mgr     *pvpchess.Manager
	history Historian
	cat     *msgcat.Catalog
	rec     *metrics.Recorder
	metrics fasthttp.RequestHandler
	srv     *fasthttp.Server
}

func New(mgr *pvpchess.Manager, opts ...Option) *Server {
	s := &Server{mgr: mgr}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &fasthttp.Server{
		Handler:            s.Handle,
		Name:               "gamecore",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: 64 << 10,
	}
	return s
}

// ListenAndServe blocks until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	obslog.L().Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

// Serve serves requests from ln.
func (s *Server) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.ShutdownWithContext(ctx) }

// Handle is the root request handler.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	route := s.dispatch(ctx)
	status := ctx.Response.StatusCode()
	s.rec.RecordHTTPRequest(route, status)
	obslog.L().Debug("http_request",
		zap.String("method", string(ctx.Method())),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Duration("took", time.Since(start)),
	)
}

// dispatch runs the matching handler and returns the route template for metrics.
func (s *Server) dispatch(ctx *fasthttp.RequestCtx) string {
	parts := strings.Split(strings.Trim(string(ctx.Path()), "/"), "/")
	method := string(ctx.Method())
	get, post := method == fasthttp.MethodGet, method == fasthttp.MethodPost

	switch {
	case len(parts) == 1 && parts[0] == "healthz":
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
		return "/healthz"
	case len(parts) == 1 && parts[0] == "metrics" && s.metrics != nil:
		s.metrics(ctx)
		return "/metrics"
	case len(parts) == 1 && parts[0] == "games" && post:
		s.createGame(ctx)
		return "/games"
	case len(parts) == 2 && parts[0] == "games" && get:
		s.getGame(ctx, parts[1])
		return "/games/{id}"
	case len(parts) == 3 && parts[0] == "games":
		return s.gameAction(ctx, parts[1], parts[2], get, post)
	case len(parts) == 4 && parts[0] == "games" && parts[2] == "draw" && post:
		s.drawAction(ctx, parts[1], parts[3])
		return "/games/{id}/draw/" + parts[3]
	case len(parts) == 3 && parts[0] == "players" && get:
		return s.playerQuery(ctx, parts[1], parts[2])
	}
	s.fail(ctx, fasthttp.StatusNotFound, "not_found", "no such route")
	return "unmatched"
}

func (s *Server) gameAction(ctx *fasthttp.RequestCtx, id, action string, get, post bool) string {
	route := "/games/{id}/" + action
	switch {
	case action == "pgn" && get:
		s.pgn(ctx, id)
	case action == "activate" && post:
		s.activate(ctx, id)
	case action == "moves" && post:
		s.submitMove(ctx, id)
	case action == "timeout" && post:
		s.checkTimeout(ctx, id)
	case action == "ratings" && post:
		s.finalizeRatings(ctx, id)
	case action == "resign" && post:
		s.resign(ctx, id)
	default:
		s.fail(ctx, fasthttp.StatusNotFound, "not_found", "no such route")
		return "unmatched"
	}
	return route
}

func (s *Server) playerQuery(ctx *fasthttp.RequestCtx, playerID, what string) string {
	switch what {
	case "rating":
		s.rating(ctx, playerID)
	case "games":
		s.playerGames(ctx, playerID)
	case "history":
		s.playerHistory(ctx, playerID)
	default:
		s.fail(ctx, fasthttp.StatusNotFound, "not_found", "no such route")
		return "unmatched"
	}
	return "/players/{id}/" + what
}

func decode(ctx *fasthttp.RequestCtx, dst any) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, errorBody("invalid_args", "malformed JSON body", false))
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		obslog.L().Error("http_encode_error", zap.Error(err))
		ctx.Error("encode failure", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// queryInt returns the integer query argument key, or def when absent or malformed.
func queryInt(ctx *fasthttp.RequestCtx, key string, def int) int {
	raw := ctx.QueryArgs().Peek(key)
	if len(raw) == 0 {
		return def
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return def
	}
	return n
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
