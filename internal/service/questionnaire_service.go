package service

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
)

// Question es un item del test Big Five. Positive=false indica un item invertido.
type Question struct {
	ID       int          `json:"id"`
	Trait    domain.Trait `json:"trait"`
	Text     string       `json:"question"`
	Positive bool         `json:"is_positive"`
}

const (
	LikertMin = 1
	LikertMax = 5
)

var questionBank = func() []Question {
	items := []struct {
		trait    domain.Trait
		text     string
		positive bool
	}{
		{domain.TraitOpenness, "I enjoy trying new and unusual experiences", true},
		{domain.TraitOpenness, "I prefer routine and familiar activities", false},
		{domain.TraitOpenness, "I love exploring new ideas and concepts", true},
		{domain.TraitOpenness, "I'm curious about how things work", true},
		{domain.TraitConscientiousness, "I always complete tasks on time", true},
		{domain.TraitConscientiousness, "I keep my workspace organized", true},
		{domain.TraitConscientiousness, "I often procrastinate on important tasks", false},
		{domain.TraitConscientiousness, "I pay attention to details", true},
		{domain.TraitExtraversion, "I enjoy being the center of attention", true},
		{domain.TraitExtraversion, "I feel energized after social gatherings", true},
		{domain.TraitExtraversion, "I prefer quiet, solitary activities", false},
		{domain.TraitExtraversion, "I find it easy to start conversations", true},
		{domain.TraitAgreeableness, "I try to help others when I can", true},
		{domain.TraitAgreeableness, "I trust people easily", true},
		{domain.TraitAgreeableness, "I often get into arguments with others", false},
		{domain.TraitAgreeableness, "I'm sympathetic to others' problems", true},
		{domain.TraitNeuroticism, "I often worry about things", true},
		{domain.TraitNeuroticism, "I get stressed easily", true},
		{domain.TraitNeuroticism, "I remain calm under pressure", false},
		{domain.TraitNeuroticism, "I rarely feel anxious or nervous", false},
	}
	out := make([]Question, 0, len(items))
	for i, it := range items {
		out = append(out, Question{ID: i + 1, Trait: it.trait, Text: it.text, Positive: it.positive})
	}
	return out
}()

var ErrQuestionnaireInvalidInput = errors.New("questionnaire invalid input")

// QuestionnaireService convierte respuestas del test en perfiles enteros.
type QuestionnaireService struct {
	engine *matching.Engine
	logger *zap.Logger
}

func NewQuestionnaireService(engine *matching.Engine, logger *zap.Logger) *QuestionnaireService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionnaireService{engine: engine, logger: logger}
}

// Questions devuelve una copia del banco de preguntas.
func (s *QuestionnaireService) Questions() []Question {
	out := make([]Question, len(questionBank))
	copy(out, questionBank)
	return out
}

func questionCount(t domain.Trait) int {
	n := 0
	for _, q := range questionBank {
		if q.Trait == t {
			n++
		}
	}
	return n
}

// ScoreLikert suma respuestas 1-5 por rasgo invirtiendo los items negativos (6 - r).
// Con cuatro items por rasgo el resultado cae en el dominio 4-20. Todas las preguntas son obligatorias.
func (s *QuestionnaireService) ScoreLikert(responses map[int]int) (domain.Profile, error) {
	if len(responses) != len(questionBank) {
		return nil, fmt.Errorf("%w: expected %d answers, got %d", ErrQuestionnaireInvalidInput, len(questionBank), len(responses))
	}
	profile := domain.Profile{}
	for _, q := range questionBank {
		answer, ok := responses[q.ID]
		if !ok {
			return nil, fmt.Errorf("%w: missing answer for question %d", ErrQuestionnaireInvalidInput, q.ID)
		}
		if answer < LikertMin || answer > LikertMax {
			return nil, fmt.Errorf("%w: answer %d for question %d out of range", ErrQuestionnaireInvalidInput, answer, q.ID)
		}
		if !q.Positive {
			answer = LikertMin + LikertMax - answer
		}
		profile[q.Trait] += answer
	}
	s.logger.Debug("likert questionnaire scored", zap.Int("answers", len(responses)))
	return profile, nil
}

// PercentFromBinary calcula 100 * sum(answers) / preguntas por rasgo, redondeado a 2 decimales.
// Cada respuesta debe ser 0 o 1; rasgos sin respuestas quedan en 0.
func PercentFromBinary(answers map[domain.Trait][]int) (matching.TraitPercents, error) {
	for t := range answers {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %w: %q", ErrQuestionnaireInvalidInput, domain.ErrUnknownTrait, string(t))
		}
	}
	out := make(matching.TraitPercents, domain.NumTraits)
	for _, t := range domain.Traits() {
		total := questionCount(t)
		given := answers[t]
		if len(given) > total {
			return nil, fmt.Errorf("%w: %s has %d answers for %d questions", ErrQuestionnaireInvalidInput, t, len(given), total)
		}
		sum := 0
		for _, a := range given {
			if a != 0 && a != 1 {
				return nil, fmt.Errorf("%w: %s answers must be 0 or 1", ErrQuestionnaireInvalidInput, t)
			}
			sum += a
		}
		out[t] = math.Round(float64(sum)/float64(total)*100*100) / 100
	}
	return out, nil
}

// ProfileFromPercents lleva porcentajes 0-100 al dominio entero: clamp(round(p/5), min, max).
// El redondeo es half-to-even.
func ProfileFromPercents(percents matching.TraitPercents, d domain.ScoreDomain) domain.Profile {
	profile := make(domain.Profile, len(percents))
	for t, p := range percents {
		profile[t] = d.Clamp(int(math.RoundToEven(p / 5)))
	}
	return profile
}

// ProfileFromBinary combina PercentFromBinary y ProfileFromPercents con el dominio del motor.
func (s *QuestionnaireService) ProfileFromBinary(answers map[domain.Trait][]int) (domain.Profile, matching.TraitPercents, error) {
	percents, err := PercentFromBinary(answers)
	if err != nil {
		return nil, nil, err
	}
	return ProfileFromPercents(percents, s.engine.Domain()), percents, nil
}

func (s *QuestionnaireService) Describe(profile domain.Profile) ([]matching.TraitDetail, error) {
	return s.engine.Describe(profile)
}
