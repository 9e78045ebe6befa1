package httpapi

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-gamecore/internal/obslog"
	"github.com/park285/cheese-gamecore/internal/pvpchess"
	"github.com/park285/cheese-gamecore/pkg/chessdto"
)

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case "validation", "invalid_args":
		return fasthttp.StatusBadRequest
	case "not_found":
		return fasthttp.StatusNotFound
	case "unauthorized":
		return fasthttp.StatusForbidden
	case "out_of_turn", "not_active", "not_finished", "no_draw_offer", "conflict":
		return fasthttp.StatusConflict
	case "illegal_move":
		return fasthttp.StatusUnprocessableEntity
	case "already_finished":
		return fasthttp.StatusGone
	case "invariant_violation":
		return fasthttp.StatusInternalServerError
	default:
		return fasthttp.StatusServiceUnavailable
	}
}

func errorBody(code, message string, retryable bool) chessdto.DomainError {
	return chessdto.DomainError{Code: code, Message: message, Retryable: retryable}
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, status int, code, fallback string) {
	msg := s.cat.Text("errors."+code, map[string]any{"Move": ""}, fallback)
	writeJSON(ctx, status, errorBody(code, msg, false))
}

// writeError renders a session error. move fills the message template for
// move rejections.
func (s *Server) writeError(ctx *fasthttp.RequestCtx, err error, move string) {
	code := pvpchess.Code(err)
	status := statusFor(code)
	retryable := code == "conflict" || code == "internal"
	if (code == "internal" || code == "invariant_violation") && !isCanceled(err) {
		obslog.L().Error("http_internal_error",
			zap.String("path", string(ctx.Path())),
			zap.Error(err),
		)
	}
	msg := s.cat.Text("errors."+code, map[string]any{"Move": move}, err.Error())
	writeJSON(ctx, status, errorBody(code, msg, retryable))
}
