package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-match/internal/service"
)

type QuestionnaireHandler struct {
	logger *zap.Logger
	svc    *service.QuestionnaireService
}

func NewQuestionnaireHandler(logger *zap.Logger, svc *service.QuestionnaireService) *QuestionnaireHandler {
	return &QuestionnaireHandler{logger: logger, svc: svc}
}

// Questions maneja GET /questionnaire.
func (h *QuestionnaireHandler) Questions(c *gin.Context) {
	questions := h.svc.Questions()
	c.JSON(http.StatusOK, gin.H{
		"questions":       questions,
		"total_questions": len(questions),
		"instructions": gin.H{
			"scale":       "1-5 (1=Strongly Disagree, 2=Disagree, 3=Neutral, 4=Agree, 5=Strongly Agree)",
			"description": "Rate each statement based on how well it describes you",
		},
	})
}

// Score maneja POST /questionnaire/score.
func (h *QuestionnaireHandler) Score(c *gin.Context) {
	var req struct {
		Responses map[int]int `json:"responses" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid questionnaire request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	profile, err := h.svc.ScoreLikert(req.Responses)
	if err != nil {
		respondError(c, h.logger, err, "could not score questionnaire")
		return
	}
	details, err := h.svc.Describe(profile)
	if err != nil {
		respondError(c, h.logger, err, "could not describe profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"personality_scores": profile,
		"detailed_results":   details,
	})
}
