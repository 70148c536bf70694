package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-match/internal/service"
)

// Handlers agrupa los handlers que monta el router.
type Handlers struct {
	User          *UserHandler
	Match         *MatchHandler
	Questionnaire *QuestionnaireHandler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, corsOrigins []string, h Handlers, jwtSvc *service.JWTService) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(corsOrigins), jsonContentTypeMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMW := JWTAuthMiddleware(jwtSvc)

	users := r.Group("/users")
	users.POST("", h.User.CreateUser)
	users.GET("/:id", h.User.GetUser)
	users.PUT("/:id/profile", authMW, RequireSelf("id"), h.User.UpdateProfile)

	auth := r.Group("/auth")
	auth.POST("/login", h.User.Login)
	auth.POST("/refresh", h.User.RefreshToken)
	auth.POST("/logout", h.User.Logout)

	q := r.Group("/questionnaire")
	q.GET("", h.Questionnaire.Questions)
	q.POST("/score", h.Questionnaire.Score)

	matches := r.Group("/matches", authMW)
	matches.POST("", h.Match.FindMatches)
	matches.GET("", h.Match.ListMatches)
	matches.GET("/cooldown", h.Match.Cooldown)

	r.GET("/compatibility/:a/:b", h.Match.Compatibility)
	r.POST("/quick-match", h.Match.QuickMatch)
	r.GET("/stats", h.Match.Stats)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
