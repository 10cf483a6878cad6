package handler

import (
	"context"
	"time"

	"amanai-be/internal/pkg/logger"
	"amanai-be/internal/service"
	"amanai-be/pkg/analysis"
	"amanai-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	analysisTimeout   = 5 * time.Minute
	analysisReadLimit = 100 << 20
	analysisWriteWait = 10 * time.Second
)

// AnalysisHandler serves the one-shot analysis socket: one binary audio frame
// in, progress frames and one terminal frame out.
type AnalysisHandler struct {
	service service.IAnalysisService
	logger  logger.ILogger
}

func NewAnalysisHandler(service service.IAnalysisService, log logger.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  log,
	}
}

func (h *AnalysisHandler) RegisterRoutes(router fiber.Router) {
	router.Use("/ws/analyze", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws/analyze", websocket.New(h.Serve))
}

func (h *AnalysisHandler) Serve(conn *websocket.Conn) {
	defer conn.Close()
	h.logger.Info("AnalysisHandler", "WebSocket connection accepted for audio analysis", nil)

	conn.SetReadLimit(analysisReadLimit)
	kind, audio, err := conn.ReadMessage()
	if err != nil {
		h.logger.Info("AnalysisHandler", "Client disconnected before sending audio", map[string]interface{}{"error": err.Error()})
		return
	}
	if kind != websocket.BinaryMessage {
		h.send(conn, analysis.Message{Status: analysis.StatusError, Message: "Expected a binary audio frame"})
		return
	}

	h.logger.Info("AnalysisHandler", "Received audio data", map[string]interface{}{"bytes": len(audio)})

	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()

	res, err := h.service.Analyze(ctx, audio, func(stage string) {
		h.send(conn, analysis.Message{Status: analysis.StatusProcessing, Stage: stage})
	})
	if err != nil {
		h.send(conn, analysis.Message{Status: analysis.StatusError, Message: errorMessage(err)})
		return
	}

	h.send(conn, analysis.Message{
		Status:   analysis.StatusCompleted,
		Result:   res.Result,
		Language: res.Language,
	})
	h.logger.Info("AnalysisHandler", "Analysis complete", map[string]interface{}{"language": res.Language})
}

func (h *AnalysisHandler) send(conn *websocket.Conn, msg analysis.Message) {
	_ = conn.SetWriteDeadline(time.Now().Add(analysisWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("AnalysisHandler", "Failed to write frame", map[string]interface{}{
			"status": msg.Status,
			"error":  err.Error(),
		})
	}
}

// errorMessage keeps user-facing messages of known kinds and prefixes anything
// unexpected.
func errorMessage(err error) string {
	if apperror.KindOf(err) == apperror.KindInternal {
		return "Server error: " + err.Error()
	}
	return apperror.MessageOf(err)
}
