package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
)

// SimilarityRepository preselecciona vecinos por distancia de rasgos (pgvector en Postgres).
type SimilarityRepository interface {
	NearestByTraits(ctx context.Context, target matching.TraitPercents, excludeID string, limit int) ([]matching.SimilarityCandidate, error)
}

const defaultQuickMatchPool = 50

// QuickMatchService registra a alguien a partir de respuestas binarias y devuelve a los
// usuarios con rasgos mas parecidos. No aplica cooldown ni umbral.
type QuickMatchService struct {
	questionnaire *QuestionnaireService
	users         *UserService
	repo          SimilarityRepository
	engine        *matching.Engine
	poolSize      int
	logger        *zap.Logger
}

func NewQuickMatchService(questionnaire *QuestionnaireService, users *UserService, repo SimilarityRepository, engine *matching.Engine, poolSize int, logger *zap.Logger) *QuickMatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if poolSize <= 0 {
		poolSize = defaultQuickMatchPool
	}
	return &QuickMatchService{
		questionnaire: questionnaire,
		users:         users,
		repo:          repo,
		engine:        engine,
		poolSize:      poolSize,
		logger:        logger,
	}
}

type QuickMatchInput struct {
	User    CreateUserInput
	Answers map[domain.Trait][]int
}

type QuickMatchResult struct {
	User    domain.Member              `json:"user"`
	Traits  matching.TraitPercents     `json:"your_traits"`
	Matches []matching.SimilarityMatch `json:"matches"`
}

func (s *QuickMatchService) Submit(ctx context.Context, input QuickMatchInput) (QuickMatchResult, error) {
	profile, percents, err := s.questionnaire.ProfileFromBinary(input.Answers)
	if err != nil {
		return QuickMatchResult{}, err
	}
	input.User.Profile = profile

	member, err := s.users.CreateUser(ctx, input.User)
	if err != nil {
		return QuickMatchResult{}, err
	}

	pool, err := s.repo.NearestByTraits(ctx, percents, member.User.ID, s.poolSize)
	if err != nil {
		return QuickMatchResult{}, fmt.Errorf("nearest by traits: %w", err)
	}
	matches := matching.RankBySimilarity(s.engine.Weights(), percents, pool)

	s.logger.Info("quick match computed",
		zap.String("user_id", member.User.ID),
		zap.Int("pool_size", len(pool)),
	)
	return QuickMatchResult{User: member, Traits: percents, Matches: matches}, nil
}
