package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lostlondon/vicd/internal/classify"
	"github.com/lostlondon/vicd/internal/logging"
	"github.com/lostlondon/vicd/internal/orchestrator"
	"github.com/lostlondon/vicd/internal/stream"
)

// noMessageFallback is spoken when the request carries no user message
// at all; a voice client expects speech, not an error code.
const noMessageFallback = "I didn't quite catch that. Could you say that again?"

// chatRequest is the inbound chat completions body. Only messages
// matter; the rest of the OpenAI request shape is ignored.
type chatRequest struct {
	Messages []classify.Message `json:"messages"`
}

// sseEmitter adapts the response writer to the orchestrator's emitter.
// Headers go out lazily on the first chunk so handlers that emit
// nothing (silence) can still choose their own status code.
type sseEmitter struct {
	c       echo.Context
	w       *stream.Writer
	started bool
}

func (e *sseEmitter) start() {
	h := e.c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	e.c.Response().WriteHeader(http.StatusOK)
	e.w = stream.NewWriter(e.c.Response())
	e.started = true
}

func (e *sseEmitter) Send(chunk stream.Chunk) error {
	if !e.started {
		e.start()
	}
	return e.w.Send(chunk)
}

func (e *sseEmitter) Done() error {
	if !e.started {
		e.start()
	}
	return e.w.Done()
}

// handleChatCompletions runs one turn and streams the response.
func (s *Server) handleChatCompletions(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	sessionID := c.QueryParam("custom_session_id")
	if sessionID == "" {
		// No session continuity without an ID; give the turn its own.
		sessionID = uuid.NewString()
	}

	ctx := logging.WithSessionID(c.Request().Context(), sessionID)
	if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
		ctx = logging.WithTurnID(ctx, requestID)
	}
	turn := orchestrator.Turn{
		SessionID: sessionID,
		Messages:  req.Messages,
		UserName:  c.QueryParam("user_name"),
	}

	out := &sseEmitter{c: c}
	start := time.Now()
	result, err := s.turns.HandleTurn(ctx, turn, out)
	if err != nil {
		if errors.Is(err, classify.ErrNoUserMessage) {
			s.streamFallback(out, sessionID)
			return nil
		}
		s.logger.Error(ctx, "turn failed", zap.Error(err))
		if out.started {
			return nil
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "turn failed")
	}

	s.metrics.RecordTurn(ctx, result, time.Since(start))

	if result.Kind == classify.KindSilence {
		return c.NoContent(http.StatusNoContent)
	}
	return nil
}

// streamFallback speaks a canned line as a complete well-formed stream.
func (s *Server) streamFallback(out *sseEmitter, sessionID string) {
	enc := stream.NewEncoder(sessionID)
	for _, chunk := range enc.Encode(noMessageFallback) {
		if err := out.Send(chunk); err != nil {
			return
		}
	}
	_ = out.Done()
}

// handleRoot serves service info.
func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":      "ok",
		"service":     ServiceName,
		"version":     ServiceVersion,
		"description": "Custom Language Model for Lost London voice assistant",
		"endpoint":    "/chat/completions",
	})
}

// handleHealth is the monitoring health check.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// handleDebugSession dumps one session's state.
func (s *Server) handleDebugSession(c echo.Context) error {
	sess, ok := s.store.Snapshot(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session")
	}
	return c.JSON(http.StatusOK, sess)
}

// handleDebugCache reports embedding cache statistics.
func (s *Server) handleDebugCache(c echo.Context) error {
	if s.cacheStats == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no cache configured")
	}
	return c.JSON(http.StatusOK, s.cacheStats())
}

// handleDebugTrending reports trending topics, globally and optionally
// for one session.
func (s *Server) handleDebugTrending(c echo.Context) error {
	const limit = 20
	resp := map[string]any{
		"global": s.trending.Global(limit),
	}
	if sessionID := c.QueryParam("session_id"); sessionID != "" {
		resp["session"] = s.trending.Session(sessionID, limit)
	}
	return c.JSON(http.StatusOK, resp)
}
