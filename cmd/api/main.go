package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"persona-match/internal/config"
	"persona-match/internal/db"
	apihttp "persona-match/internal/http"
	"persona-match/internal/matching"
	"persona-match/internal/repository"
	"persona-match/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	tuning, err := cfg.Tuning()
	if err != nil {
		logger.Fatal("match tuning", zap.Error(err))
	}
	engine, err := matching.NewEngine(tuning)
	if err != nil {
		logger.Fatal("match engine", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	userRepo := repository.NewPgUserRepository(pool)
	traitRepo := repository.NewPgTraitRepository(pool)
	matchRepo := repository.NewPgMatchRepository(pool)

	var (
		loginLimiter service.LoginRateLimiter
		tokenStore   service.RefreshTokenStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory auth state", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, cfg.LoginWindow, cfg.LoginMaxAttempts)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	if loginLimiter == nil {
		loginLimiter = service.NewLoginRateLimiter(cfg.LoginWindow, cfg.LoginMaxAttempts)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}
	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, tokenStore)

	userSvc := service.NewUserService(logger, userRepo, traitRepo, engine, loginLimiter)
	questionnaireSvc := service.NewQuestionnaireService(engine, logger)
	matchSvc := service.NewMatchService(engine, matchRepo, service.MatchDefaults{
		MinimumCompatibility: cfg.MinCompatibility,
		Limit:                cfg.MatchLimit,
		Cooldown:             cfg.MatchCooldown,
	}, logger)
	quickSvc := service.NewQuickMatchService(questionnaireSvc, userSvc, matchRepo, engine, cfg.QuickMatchPool, logger)

	router := apihttp.NewRouter(logger, cfg.CORSOrigins, apihttp.Handlers{
		User:          apihttp.NewUserHandler(logger, userSvc, jwtSvc, questionnaireSvc),
		Match:         apihttp.NewMatchHandler(logger, matchSvc, quickSvc, matchRepo),
		Questionnaire: apihttp.NewQuestionnaireHandler(logger, questionnaireSvc),
	}, jwtSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.Int("score_min", tuning.Domain.Min),
		zap.Int("score_max", tuning.Domain.Max),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
