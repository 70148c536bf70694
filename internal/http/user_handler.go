package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
	"persona-match/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios y autenticacion.
type UserHandler struct {
	logger        *zap.Logger
	userServ      *service.UserService
	jwtServ       *service.JWTService
	questionnaire *service.QuestionnaireService
}

func NewUserHandler(logger *zap.Logger, userServ *service.UserService, jwtServ *service.JWTService, questionnaire *service.QuestionnaireService) *UserHandler {
	return &UserHandler{
		logger:        logger,
		userServ:      userServ,
		jwtServ:       jwtServ,
		questionnaire: questionnaire,
	}
}

type userRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name" binding:"required"`
	Age      int    `json:"age" binding:"required"`
	Gender   string `json:"gender" binding:"required"`
	Location string `json:"location"`
	Bio      string `json:"bio"`
}

func (r userRequest) input(profile domain.Profile) service.CreateUserInput {
	return service.CreateUserInput{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		Age:      r.Age,
		Gender:   r.Gender,
		Location: r.Location,
		Bio:      r.Bio,
		Profile:  profile,
	}
}

// CreateUser maneja POST /users.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req struct {
		User              userRequest    `json:"user_data" binding:"required"`
		PersonalityScores domain.Profile `json:"personality_scores"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	member, err := h.userServ.CreateUser(c.Request.Context(), req.User.input(req.PersonalityScores))
	if err != nil {
		respondError(c, h.logger, err, "could not create user")
		return
	}

	resp := gin.H{"user": member.User, "personality_scores": member.Profile}
	if member.User.PasswordHash != "" {
		tokens, err := h.jwtServ.GeneratePair(c.Request.Context(), member.User)
		if err != nil {
			h.logger.Error("jwt issue failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
			return
		}
		resp["tokens"] = tokens
	}
	c.JSON(http.StatusCreated, resp)
}

// GetUser maneja GET /users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	member, err := h.userServ.GetMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not load user")
		return
	}
	details, err := h.questionnaire.Describe(member.Profile)
	if err != nil {
		respondError(c, h.logger, err, "could not describe profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":                member.User,
		"personality_scores":  member.Profile,
		"personality_details": details,
		"profile_complete":    member.Profile.Complete(),
	})
}

// UpdateProfile maneja PUT /users/:id/profile. Acepta puntajes directos o respuestas binarias.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		PersonalityScores domain.Profile         `json:"personality_scores"`
		Answers           map[domain.Trait][]int `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	profile := req.PersonalityScores
	var percents matching.TraitPercents
	if len(req.Answers) > 0 {
		if len(profile) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "send either personality_scores or answers"})
			return
		}
		var err error
		profile, percents, err = h.questionnaire.ProfileFromBinary(req.Answers)
		if err != nil {
			respondError(c, h.logger, err, "could not score answers")
			return
		}
	}

	member, err := h.userServ.UpdateProfile(c.Request.Context(), c.Param("id"), profile)
	if err != nil {
		respondError(c, h.logger, err, "could not update profile")
		return
	}
	resp := gin.H{"user": member.User, "personality_scores": member.Profile, "profile_complete": member.Profile.Complete()}
	if percents != nil {
		resp["trait_percents"] = percents
	}
	c.JSON(http.StatusOK, resp)
}

// Login maneja POST /auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "could not login")
		return
	}

	tokens, err := h.jwtServ.GeneratePair(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": tokens})
}

// RefreshToken maneja POST /auth/refresh.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	tokens, err := h.jwtServ.RefreshPair(c.Request.Context(), req.RefreshToken)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, service.ErrJWTExpired) {
			msg = "token expired"
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout maneja POST /auth/logout.
func (h *UserHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.jwtServ.RevokeRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.Debug("logout with unusable refresh token", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}
