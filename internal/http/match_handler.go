package http

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-match/internal/domain"
	"persona-match/internal/service"
)

// MatchReader expone lecturas que no pasan por el motor: historial y estadisticas.
type MatchReader interface {
	ListMatches(ctx context.Context, requesterID string) ([]domain.MatchResult, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

type MatchHandler struct {
	logger  *zap.Logger
	matches *service.MatchService
	quick   *service.QuickMatchService
	reader  MatchReader
}

func NewMatchHandler(logger *zap.Logger, matches *service.MatchService, quick *service.QuickMatchService, reader MatchReader) *MatchHandler {
	return &MatchHandler{logger: logger, matches: matches, quick: quick, reader: reader}
}

// FindMatches maneja POST /matches para el usuario autenticado.
func (h *MatchHandler) FindMatches(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	var req struct {
		GenderFilter         string   `json:"gender_filter"`
		MinimumCompatibility *float64 `json:"minimum_compatibility"`
		Limit                int      `json:"limit"`
	}
	// cuerpo vacio (incluso chunked) usa los valores por defecto
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid match request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	matchReq := h.matches.NewRequest(claims.UserID)
	matchReq.GenderFilter = req.GenderFilter
	if req.MinimumCompatibility != nil {
		matchReq.MinimumCompatibility = *req.MinimumCompatibility
	}
	if req.Limit > 0 {
		matchReq.Limit = req.Limit
	}

	run, err := h.matches.Run(c.Request.Context(), matchReq)
	if err != nil {
		respondError(c, h.logger, err, "could not find matches")
		return
	}

	results := run.Results
	resp := gin.H{"matches": results, "total_matches": len(results)}
	if len(results) == 0 {
		remaining, err := h.matches.CooldownRemaining(c.Request.Context(), claims.UserID, matchReq.Cooldown)
		if err != nil {
			respondError(c, h.logger, err, "could not read cooldown")
			return
		}
		if remaining > 0 {
			resp["retry_after_seconds"] = int64(math.Ceil(remaining.Seconds()))
			resp["message"] = "matching is on cooldown"
		} else if run.SlotDenied {
			resp["retry_after_seconds"] = int64(1)
			resp["message"] = "a match run is already in progress"
		} else {
			resp["message"] = "no compatible matches found"
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListMatches maneja GET /matches: los ultimos resultados guardados.
func (h *MatchHandler) ListMatches(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	results, err := h.reader.ListMatches(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.logger, err, "could not list matches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": results, "total_matches": len(results)})
}

// Cooldown maneja GET /matches/cooldown.
func (h *MatchHandler) Cooldown(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	window := h.matches.Defaults().Cooldown
	remaining, err := h.matches.CooldownRemaining(c.Request.Context(), claims.UserID, window)
	if err != nil {
		respondError(c, h.logger, err, "could not read cooldown")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cooldown_seconds":  int64(window.Seconds()),
		"remaining_seconds": int64(math.Ceil(remaining.Seconds())),
		"can_match":         remaining == 0,
	})
}

// Compatibility maneja GET /compatibility/:a/:b.
func (h *MatchHandler) Compatibility(c *gin.Context) {
	report, err := h.matches.Compatibility(c.Request.Context(), c.Param("a"), c.Param("b"))
	if err != nil {
		respondError(c, h.logger, err, "could not analyze compatibility")
		return
	}
	c.JSON(http.StatusOK, report)
}

// QuickMatch maneja POST /quick-match: registro con respuestas binarias y ranking por similitud.
func (h *MatchHandler) QuickMatch(c *gin.Context) {
	var req struct {
		userRequest
		Answers map[domain.Trait][]int `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid quick match request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.quick.Submit(c.Request.Context(), service.QuickMatchInput{
		User:    req.userRequest.input(nil),
		Answers: req.Answers,
	})
	if err != nil {
		respondError(c, h.logger, err, "could not compute quick match")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user_id":     res.User.User.ID,
		"your_traits": res.Traits,
		"matches":     res.Matches,
	})
}

// Stats maneja GET /stats.
func (h *MatchHandler) Stats(c *gin.Context) {
	stats, err := h.reader.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "failed to retrieve statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats, "status": "active"})
}
