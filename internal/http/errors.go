package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-match/internal/domain"
	"persona-match/internal/service"
)

// respondError traduce errores de servicio a status HTTP. Los 5xx se loguean y no exponen detalle.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	var invalidScore *domain.InvalidScoreError
	var incomplete *domain.IncompleteProfileError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrProfileIncomplete):
		c.JSON(http.StatusBadRequest, gin.H{"error": "complete the personality test first", "detail": err.Error()})
	case errors.As(err, &invalidScore),
		errors.As(err, &incomplete),
		errors.Is(err, domain.ErrUnknownTrait),
		errors.Is(err, service.ErrInvalidUserInput),
		errors.Is(err, service.ErrInvalidMatchRequest),
		errors.Is(err, service.ErrQuestionnaireInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	default:
		logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
