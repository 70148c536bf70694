package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"persona-match/internal/config"
	"persona-match/internal/domain"
	"persona-match/internal/matching"
	"persona-match/internal/repository"
	"persona-match/internal/service"
)

// Scenario es una verificacion de punta a punta contra un store en memoria.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, env *checkEnv) error
}

type checkEnv struct {
	engine *matching.Engine
	store  *repository.MemoryStore
	users  *service.UserService
	match  *service.MatchService
}

func newCheckEnv(engine *matching.Engine, logger *zap.Logger) *checkEnv {
	store := repository.NewMemoryStore()
	return &checkEnv{
		engine: engine,
		store:  store,
		users:  service.NewUserService(logger, store, store, engine, nil),
		match:  service.NewMatchService(engine, store, service.DefaultMatchDefaults(), logger),
	}
}

func (e *checkEnv) seed(ctx context.Context, name, gender string, p domain.Profile) (string, error) {
	m, err := e.users.CreateUser(ctx, service.CreateUserInput{
		Name:    name,
		Age:     30,
		Gender:  gender,
		Profile: p,
	})
	if err != nil {
		return "", fmt.Errorf("seed %s: %w", name, err)
	}
	return m.User.ID, nil
}

func profileOf(o, c, e, a, n int) domain.Profile {
	return domain.Profile{
		domain.TraitOpenness:          o,
		domain.TraitConscientiousness: c,
		domain.TraitExtraversion:      e,
		domain.TraitAgreeableness:     a,
		domain.TraitNeuroticism:       n,
	}
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	tuning := matching.DefaultTuning()
	if path := os.Getenv("MATCH_TUNING_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read tuning: %v", err)
		}
		if tuning, err = config.ParseTuning(raw, tuning); err != nil {
			log.Fatalf("parse tuning: %v", err)
		}
	}
	engine, err := matching.NewEngine(tuning)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	logger := zap.NewNop()
	if os.Getenv("MATCH_CHECK_VERBOSE") != "" {
		logger, _ = zap.NewDevelopment()
	}

	scenarios := []Scenario{
		{Name: "Compatibilidad dirigida", Run: checkDirectedScore},
		{Name: "Consejo por apertura", Run: checkNoveltyAdvice},
		{Name: "Umbral, orden y limite", Run: checkRanking},
		{Name: "Cooldown", Run: checkCooldown},
		{Name: "Perfiles incompletos fuera del pool", Run: checkIncompleteExcluded},
	}

	passed := 0
	for _, sc := range scenarios {
		fmt.Printf("=== Ejecutando: %s ===\n", sc.Name)
		if err := sc.Run(ctx, newCheckEnv(engine, logger)); err != nil {
			fmt.Printf("FAIL [%s] %v\n\n", sc.Name, err)
			continue
		}
		passed++
		fmt.Printf("PASS [%s]\n\n", sc.Name)
	}

	fmt.Printf("Resultado: %d/%d escenarios OK\n", passed, len(scenarios))
	if passed != len(scenarios) {
		os.Exit(1)
	}
}

func checkDirectedScore(_ context.Context, env *checkEnv) error {
	a := profileOf(17, 16, 18, 14, 8)
	b := profileOf(12, 13, 9, 16, 6)

	ab, explanations, err := env.engine.Score(a, b)
	if err != nil {
		return err
	}
	ba, _, err := env.engine.Score(b, a)
	if err != nil {
		return err
	}
	fmt.Printf("score(A,B)=%.2f score(B,A)=%.2f\n", ab, ba)
	for _, line := range explanations {
		fmt.Println("  " + line)
	}
	if len(explanations) != domain.NumTraits {
		return fmt.Errorf("expected %d explanations, got %d", domain.NumTraits, len(explanations))
	}
	if env.engine.Weights() == matching.DefaultWeights() {
		if want := 4.3 / 5.4 * 100; math.Abs(ab-want) > 1e-9 {
			return fmt.Errorf("expected %.4f, got %.4f", want, ab)
		}
	}
	return nil
}

func checkNoveltyAdvice(_ context.Context, env *checkEnv) error {
	advice, err := env.engine.Advise(profileOf(20, 10, 10, 10, 10), profileOf(6, 10, 10, 10, 10))
	if err != nil {
		return err
	}
	if len(advice) != 1 || advice[0] != matching.AdviceNovelty {
		return fmt.Errorf("expected only the novelty advice, got %v", advice)
	}
	return nil
}

func checkRanking(ctx context.Context, env *checkEnv) error {
	me, err := env.seed(ctx, "Requester", "Male", profileOf(17, 16, 18, 14, 8))
	if err != nil {
		return err
	}
	for i, p := range []domain.Profile{
		profileOf(12, 13, 9, 16, 6),
		profileOf(14, 13, 14, 14, 13),
		profileOf(1, 1, 1, 1, 20),
		profileOf(16, 12, 16, 16, 14),
	} {
		if _, err := env.seed(ctx, fmt.Sprintf("Candidate %d", i+1), "Female", p); err != nil {
			return err
		}
	}

	req := env.match.NewRequest(me)
	req.Limit = 2
	req.Cooldown = 0
	results, err := env.match.FindMatches(ctx, req)
	if err != nil {
		return err
	}
	if len(results) > 2 {
		return fmt.Errorf("limit not applied: %d results", len(results))
	}
	for i, r := range results {
		fmt.Printf("  #%d %s %.2f%%\n", i+1, r.Name, r.Compatibility)
		if r.Compatibility < req.MinimumCompatibility {
			return fmt.Errorf("%s below threshold", r.Name)
		}
		if i > 0 && results[i-1].Compatibility < r.Compatibility {
			return fmt.Errorf("results not sorted")
		}
	}
	return nil
}

func checkCooldown(ctx context.Context, env *checkEnv) error {
	me, err := env.seed(ctx, "Requester", "Male", profileOf(12, 12, 12, 12, 12))
	if err != nil {
		return err
	}
	if _, err := env.seed(ctx, "Twin", "Female", profileOf(12, 12, 12, 12, 12)); err != nil {
		return err
	}

	req := env.match.NewRequest(me)
	req.Cooldown = time.Hour
	first, err := env.match.FindMatches(ctx, req)
	if err != nil {
		return err
	}
	if len(first) == 0 {
		return fmt.Errorf("expected matches on first run")
	}
	second, err := env.match.FindMatches(ctx, req)
	if err != nil {
		return err
	}
	if len(second) != 0 {
		return fmt.Errorf("expected empty result during cooldown, got %d", len(second))
	}
	remaining, err := env.match.CooldownRemaining(ctx, me, req.Cooldown)
	if err != nil {
		return err
	}
	fmt.Printf("  cooldown restante: %s\n", remaining.Round(time.Second))
	if remaining <= 0 {
		return fmt.Errorf("expected remaining cooldown")
	}
	return nil
}

func checkIncompleteExcluded(ctx context.Context, env *checkEnv) error {
	me, err := env.seed(ctx, "Requester", "Male", profileOf(12, 12, 12, 12, 12))
	if err != nil {
		return err
	}
	partial, err := env.seed(ctx, "Partial "+uuid.NewString()[:8], "Female", domain.Profile{domain.TraitOpenness: 12})
	if err != nil {
		return err
	}

	req := env.match.NewRequest(me)
	req.Cooldown = 0
	req.MinimumCompatibility = 0
	results, err := env.match.FindMatches(ctx, req)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.CandidateID == partial {
			return fmt.Errorf("incomplete profile %s was ranked", partial)
		}
	}
	return nil
}
