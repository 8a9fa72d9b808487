package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

const probeTimeout = 3 * time.Second

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   ServiceName,
		"status":    "running",
		"version":   s.cfg.Version,
		"endpoints": s.Endpoints(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{}
	status := "healthy"
	for _, p := range s.cfg.Probes {
		if p.Check == nil {
			body[p.Name] = "disabled"
			continue
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		err := p.Check(ctx)
		cancel()
		if err != nil {
			body[p.Name] = "unavailable: " + err.Error()
			status = "degraded"
			continue
		}
		body[p.Name] = "ok"
	}
	body["status"] = status
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}
	chatReq, err := req.toDomain()
	if err != nil {
		abortWithError(c, err)
		return
	}

	if !req.streaming() {
		answer, err := s.cfg.Chat.Answer(c.Request.Context(), chatReq)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, answer)
		return
	}

	writeEvents(c, s.cfg.Chat.Chat(c.Request.Context(), chatReq))
}

func (s *Server) handleQueryContext(c *gin.Context) {
	if s.cfg.Context == nil {
		abortWithError(c, fmt.Errorf("%w: context queries are disabled", domain.ErrIndexUnavailable))
		return
	}
	var req contextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	report, err := s.cfg.Context.Query(c.Request.Context(), domain.Owner(req.UserID), req.Query)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contextResponse{ContextReport: report, NResults: len(report.Documents)})
}

func (s *Server) handleIndex(c *gin.Context) {
	if s.cfg.Index == nil {
		abortWithError(c, fmt.Errorf("%w: indexing is disabled", domain.ErrEmbeddingUnavailable))
		return
	}
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	report, err := s.cfg.Index.IndexOwner(c.Request.Context(), domain.Owner(req.UserID))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	if s.cfg.Analysis == nil {
		abortWithError(c, fmt.Errorf("%w: analysis is disabled", domain.ErrLLMUnavailable))
		return
	}
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	if req.GenerateDescription {
		desc, err := s.cfg.Analysis.Describe(c.Request.Context(), req.ImageData)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, describeResponse{Success: true, AssetDescription: *desc})
		return
	}

	writeEvents(c, s.cfg.Analysis.StreamAnalysis(c.Request.Context(), domain.AnalysisRequest{
		Owner:     domain.Owner(req.UserID),
		Image:     req.ImageData,
		Query:     req.Query,
		ProjectID: req.ProjectID,
	}))
}

// writeEvents streams events as SSE data lines. A client disconnect stops
// the iteration, which cancels the upstream generation call.
func writeEvents(c *gin.Context, events iter.Seq[domain.StreamEvent]) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for ev := range events {
		data, err := json.Marshal(eventPayload(ev))
		if err != nil {
			logger.Warn("Dropping unencodable stream event: %v", err)
			continue
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			logger.Debug("Stream write failed, stopping: %v", err)
			return
		}
		c.Writer.Flush()
		if c.Request.Context().Err() != nil {
			return
		}
	}
}

func eventPayload(ev domain.StreamEvent) gin.H {
	switch ev.Kind {
	case domain.StreamDone:
		return gin.H{"done": true}
	case domain.StreamError:
		return gin.H{"error": ev.Text}
	default:
		return gin.H{"chunk": ev.Text}
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Warn("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, errorResponse{
		Success:   false,
		Error:     err.Error(),
		RequestID: c.GetString(requestIDKey),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrDimensionMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrIndexUnavailable),
		errors.Is(err, domain.ErrEntityStoreUnavailable),
		errors.Is(err, domain.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
