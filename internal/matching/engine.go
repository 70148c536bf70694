package matching

import (
	"fmt"

	"persona-match/internal/domain"
)

// Tuning son los parametros inyectables del motor. Los campos vacios toman valores por defecto.
type Tuning struct {
	Domain  domain.ScoreDomain       `yaml:"score_domain"`
	Weights map[domain.Trait]float64 `yaml:"weights"`
	Advice  AdviceRules              `yaml:"advice"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Domain: domain.DefaultScoreDomain,
		Advice: DefaultAdviceRules(),
	}
}

// Engine agrupa los componentes puros del matching. Es inmutable y seguro para uso concurrente.
type Engine struct {
	categorizer  Categorizer
	scorer       Scorer
	advisor      Advisor
	weights      Weights
	descriptions Descriptions
}

func NewEngine(t Tuning) (*Engine, error) {
	d := t.Domain
	if d == (domain.ScoreDomain{}) {
		d = domain.DefaultScoreDomain
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	weights, err := NewWeights(t.Weights)
	if err != nil {
		return nil, err
	}
	categorizer := NewCategorizer(d)
	return &Engine{
		categorizer:  categorizer,
		scorer:       NewScorer(categorizer, DefaultMatrix(), weights),
		advisor:      NewAdvisor(t.Advice),
		weights:      weights,
		descriptions: DefaultDescriptions(),
	}, nil
}

// MustEngine es para tests y valores por defecto conocidos.
func MustEngine(t Tuning) *Engine {
	e, err := NewEngine(t)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Engine) Domain() domain.ScoreDomain { return e.categorizer.Domain() }
func (e *Engine) Weights() Weights           { return e.weights }

func (e *Engine) Score(a, b domain.Profile) (float64, []string, error) {
	return e.scorer.Score(a, b)
}

func (e *Engine) Chemistry(a, b domain.Profile) (domain.Chemistry, error) {
	return AnalyzeChemistry(a, b)
}

func (e *Engine) Advise(a, b domain.Profile) ([]string, error) {
	return e.advisor.Advise(a, b)
}

// Evaluation es el analisis completo de un par dirigido (a evalua a b).
type Evaluation struct {
	Compatibility float64             `json:"overall_compatibility"`
	Explanations  []string            `json:"compatibility_explanations"`
	Reasons       domain.MatchReasons `json:"reasons"`
	Chemistry     domain.Chemistry    `json:"chemistry_breakdown"`
	Advice        []string            `json:"relationship_advice"`
}

func (e *Engine) Evaluate(a, b domain.Profile) (Evaluation, error) {
	score, explanations, err := e.scorer.Score(a, b)
	if err != nil {
		return Evaluation{}, err
	}
	chemistry, err := AnalyzeChemistry(a, b)
	if err != nil {
		return Evaluation{}, err
	}
	advice, err := e.advisor.Advise(a, b)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{
		Compatibility: score,
		Explanations:  explanations,
		Reasons:       SplitReasons(explanations),
		Chemistry:     chemistry,
		Advice:        advice,
	}, nil
}

type TraitDetail struct {
	Trait       domain.Trait         `json:"trait"`
	Score       int                  `json:"score"`
	Category    domain.TraitCategory `json:"category"`
	Description string               `json:"description"`
}

// Describe devuelve categoria y texto para cada rasgo presente, en orden canonico.
func (e *Engine) Describe(p domain.Profile) ([]TraitDetail, error) {
	details := make([]TraitDetail, 0, len(p))
	for _, t := range domain.Traits() {
		score, ok := p[t]
		if !ok {
			continue
		}
		cat, err := e.categorizer.categorizeTrait(t, score)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", t, err)
		}
		details = append(details, TraitDetail{
			Trait:       t,
			Score:       score,
			Category:    cat,
			Description: e.descriptions.Describe(t, cat),
		})
	}
	return details, nil
}
