package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
)

// MatchRepository es el contrato de persistencia que consume el matching.
// AcquireMatchSlot debe ser atomico por solicitante (check-then-set en una sola operacion)
// y ReplaceMatches debe reemplazar los matches previos y avanzar el cooldown en una transaccion.
type MatchRepository interface {
	GetProfile(ctx context.Context, userID string) (domain.Member, error)
	ListCandidates(ctx context.Context, excludeID, gender string) ([]domain.Member, error)
	ReplaceMatches(ctx context.Context, requesterID string, results []domain.MatchResult, matchedAt time.Time) error
	GetCooldown(ctx context.Context, requesterID string) (time.Time, bool, error)
	AcquireMatchSlot(ctx context.Context, requesterID string, now time.Time, window time.Duration) (bool, error)
	ReleaseMatchSlot(ctx context.Context, requesterID string) error
}

var (
	ErrInvalidMatchRequest = errors.New("invalid match request")
	ErrProfileIncomplete   = errors.New("personality profile incomplete")
)

// MatchDefaults son los valores usados cuando el request no los define.
type MatchDefaults struct {
	MinimumCompatibility float64
	Limit                int
	Cooldown             time.Duration
}

func DefaultMatchDefaults() MatchDefaults {
	return MatchDefaults{
		MinimumCompatibility: 60.0,
		Limit:                10,
		Cooldown:             24 * time.Hour,
	}
}

// MatchRequest describe una corrida de matching. Cooldown en 0 desactiva la compuerta.
type MatchRequest struct {
	RequesterID          string
	GenderFilter         string
	MinimumCompatibility float64
	Limit                int
	Cooldown             time.Duration
}

// MatchService ordena candidatos por compatibilidad y aplica umbral, cooldown y limite.
type MatchService struct {
	engine   *matching.Engine
	repo     MatchRepository
	defaults MatchDefaults
	logger   *zap.Logger
	now      func() time.Time
}

func NewMatchService(engine *matching.Engine, repo MatchRepository, defaults MatchDefaults, logger *zap.Logger) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.Limit <= 0 {
		defaults.Limit = DefaultMatchDefaults().Limit
	}
	return &MatchService{
		engine:   engine,
		repo:     repo,
		defaults: defaults,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewRequest arma un MatchRequest con los valores por defecto configurados.
func (s *MatchService) NewRequest(requesterID string) MatchRequest {
	return MatchRequest{
		RequesterID:          requesterID,
		MinimumCompatibility: s.defaults.MinimumCompatibility,
		Limit:                s.defaults.Limit,
		Cooldown:             s.defaults.Cooldown,
	}
}

func (s *MatchService) Defaults() MatchDefaults {
	return s.defaults
}

// MatchRun es el resultado de una corrida. SlotDenied indica que no se obtuvo el turno
// (cooldown vigente u otra corrida en curso) y por eso Results esta vacio.
type MatchRun struct {
	Results    []domain.MatchResult
	SlotDenied bool
}

// FindMatches ejecuta una corrida completa para el solicitante. Pool vacio, nadie sobre el
// umbral o cooldown activo devuelven una lista vacia sin error.
func (s *MatchService) FindMatches(ctx context.Context, req MatchRequest) ([]domain.MatchResult, error) {
	run, err := s.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return run.Results, nil
}

// Run es FindMatches informando ademas si el turno fue denegado.
func (s *MatchService) Run(ctx context.Context, req MatchRequest) (MatchRun, error) {
	req.RequesterID = strings.TrimSpace(req.RequesterID)
	req.GenderFilter = strings.TrimSpace(req.GenderFilter)
	if req.Limit <= 0 {
		req.Limit = s.defaults.Limit
	}
	if req.RequesterID == "" || req.MinimumCompatibility < 0 || req.MinimumCompatibility > 100 || req.Cooldown < 0 {
		return MatchRun{}, ErrInvalidMatchRequest
	}

	requester, err := s.repo.GetProfile(ctx, req.RequesterID)
	if err != nil {
		return MatchRun{}, fmt.Errorf("get requester %s: %w", req.RequesterID, err)
	}
	if err := requester.Profile.RequireComplete(); err != nil {
		return MatchRun{}, fmt.Errorf("%w: %w", ErrProfileIncomplete, err)
	}
	if err := requester.Profile.Validate(s.engine.Domain()); err != nil {
		return MatchRun{}, fmt.Errorf("requester %s: %w", req.RequesterID, err)
	}

	now := s.now()
	gated := req.Cooldown > 0
	if gated {
		acquired, err := s.repo.AcquireMatchSlot(ctx, req.RequesterID, now, req.Cooldown)
		if err != nil {
			return MatchRun{}, fmt.Errorf("acquire match slot: %w", err)
		}
		if !acquired {
			s.logger.Info("match cooldown active", zap.String("user_id", req.RequesterID))
			return MatchRun{Results: []domain.MatchResult{}, SlotDenied: true}, nil
		}
	}

	pool, err := s.repo.ListCandidates(ctx, req.RequesterID, req.GenderFilter)
	if err != nil {
		s.release(ctx, gated, req.RequesterID)
		return MatchRun{}, fmt.Errorf("list candidates: %w", err)
	}

	results, err := s.Rank(requester, pool, req.MinimumCompatibility, req.Limit, now)
	if err != nil {
		s.release(ctx, gated, req.RequesterID)
		return MatchRun{}, err
	}
	if len(results) == 0 {
		s.release(ctx, gated, req.RequesterID)
		s.logger.Info("no matches above threshold",
			zap.String("user_id", req.RequesterID),
			zap.Int("pool_size", len(pool)),
			zap.Float64("minimum", req.MinimumCompatibility),
		)
		return MatchRun{Results: results}, nil
	}

	if err := s.repo.ReplaceMatches(ctx, req.RequesterID, results, now); err != nil {
		s.release(ctx, gated, req.RequesterID)
		return MatchRun{}, fmt.Errorf("replace matches: %w", err)
	}

	s.logger.Info("matches generated",
		zap.String("user_id", req.RequesterID),
		zap.Int("pool_size", len(pool)),
		zap.Int("matches", len(results)),
	)
	return MatchRun{Results: results}, nil
}

// Rank puntua el pool contra el solicitante sin tocar el repositorio. Omite candidatos con
// perfil incompleto o puntajes invalidos, filtra por minimo, ordena de forma estable
// (los empates conservan el orden del pool) y trunca a limit.
func (s *MatchService) Rank(requester domain.Member, pool []domain.Member, minimum float64, limit int, now time.Time) ([]domain.MatchResult, error) {
	if err := requester.Profile.Validate(s.engine.Domain()); err != nil {
		return nil, fmt.Errorf("requester %s: %w", requester.User.ID, err)
	}
	results := make([]domain.MatchResult, 0, len(pool))
	for _, candidate := range pool {
		if !candidate.Profile.Complete() {
			continue
		}
		score, explanations, err := s.engine.Score(requester.Profile, candidate.Profile)
		if err != nil {
			var invalid *domain.InvalidScoreError
			if errors.As(err, &invalid) && candidate.Profile.Validate(s.engine.Domain()) != nil {
				s.logger.Warn("skipping candidate with invalid scores",
					zap.String("candidate_id", candidate.User.ID),
					zap.Error(err),
				)
				continue
			}
			return nil, fmt.Errorf("score candidate %s: %w", candidate.User.ID, err)
		}
		if score < minimum {
			continue
		}
		results = append(results, domain.MatchResult{
			RequesterID:   requester.User.ID,
			CandidateID:   candidate.User.ID,
			Name:          candidate.User.Name,
			Age:           candidate.User.Age,
			Gender:        candidate.User.Gender,
			Location:      candidate.User.Location,
			Bio:           candidate.User.Bio,
			Compatibility: score,
			Explanations:  explanations,
			Profile:       candidate.Profile.Clone(),
			CreatedAt:     now,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Compatibility > results[j].Compatibility
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	for i := range results {
		chem, err := s.engine.Chemistry(requester.Profile, results[i].Profile)
		if err != nil {
			return nil, fmt.Errorf("chemistry for %s: %w", results[i].CandidateID, err)
		}
		advice, err := s.engine.Advise(requester.Profile, results[i].Profile)
		if err != nil {
			return nil, fmt.Errorf("advice for %s: %w", results[i].CandidateID, err)
		}
		results[i].ID = uuid.NewString()
		results[i].Chemistry = chem
		results[i].Advice = advice
	}
	return results, nil
}

func (s *MatchService) release(ctx context.Context, gated bool, requesterID string) {
	if !gated {
		return
	}
	if err := s.repo.ReleaseMatchSlot(ctx, requesterID); err != nil {
		s.logger.Warn("release match slot failed", zap.String("user_id", requesterID), zap.Error(err))
	}
}

// CompatibilityReport es el analisis dirigido entre dos usuarios guardados.
type CompatibilityReport struct {
	UserA      domain.User         `json:"user1"`
	UserB      domain.User         `json:"user2"`
	Evaluation matching.Evaluation `json:"analysis"`
}

// Compatibility analiza a (solicitante) contra b. Ambos perfiles deben estar completos.
func (s *MatchService) Compatibility(ctx context.Context, userA, userB string) (CompatibilityReport, error) {
	a, err := s.repo.GetProfile(ctx, userA)
	if err != nil {
		return CompatibilityReport{}, fmt.Errorf("get user %s: %w", userA, err)
	}
	b, err := s.repo.GetProfile(ctx, userB)
	if err != nil {
		return CompatibilityReport{}, fmt.Errorf("get user %s: %w", userB, err)
	}
	if err := a.Profile.RequireComplete(); err != nil {
		return CompatibilityReport{}, fmt.Errorf("%w: %w", ErrProfileIncomplete, err)
	}
	if err := b.Profile.RequireComplete(); err != nil {
		return CompatibilityReport{}, fmt.Errorf("%w: %w", ErrProfileIncomplete, err)
	}

	eval, err := s.engine.Evaluate(a.Profile, b.Profile)
	if err != nil {
		return CompatibilityReport{}, err
	}
	return CompatibilityReport{UserA: a.User, UserB: b.User, Evaluation: eval}, nil
}

// CooldownRemaining devuelve cuanto falta para que el usuario pueda volver a buscar matches.
func (s *MatchService) CooldownRemaining(ctx context.Context, userID string, window time.Duration) (time.Duration, error) {
	if window <= 0 {
		return 0, nil
	}
	last, ok, err := s.repo.GetCooldown(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get cooldown: %w", err)
	}
	if !ok {
		return 0, nil
	}
	remaining := last.Add(window).Sub(s.now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
