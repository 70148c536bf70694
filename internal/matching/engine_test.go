package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-match/internal/domain"
)

func TestNewEngineValidatesTuning(t *testing.T) {
	_, err := NewEngine(Tuning{Domain: domain.ScoreDomain{Min: 0, Max: 20}})
	assert.Error(t, err)

	_, err = NewEngine(Tuning{Domain: domain.ScoreDomain{Min: 10, Max: 5}})
	assert.Error(t, err)

	_, err = NewEngine(Tuning{Weights: map[domain.Trait]float64{domain.TraitNeuroticism: -1}})
	assert.Error(t, err)

	e, err := NewEngine(Tuning{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultScoreDomain, e.Domain())
}

func TestEngineEvaluateScenario(t *testing.T) {
	e := MustEngine(DefaultTuning())
	a, b := scenarioProfiles()

	eval, err := e.Evaluate(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 4.3/5.4*100, eval.Compatibility, 1e-9)
	assert.Len(t, eval.Explanations, 5)
	assert.Len(t, eval.Reasons.Negative, 1)
	assert.Equal(t, []string{AdviceSocialEnergy}, eval.Advice)
	assert.InDelta(t, 65.0, eval.Chemistry.Communication, 1e-9)
}

func TestEngineEvaluateNeedsCompleteProfiles(t *testing.T) {
	e := MustEngine(DefaultTuning())
	a, _ := scenarioProfiles()
	_, err := e.Evaluate(a, domain.Profile{domain.TraitOpenness: 12})
	assert.Error(t, err)
}

func TestEngineDescribe(t *testing.T) {
	e := MustEngine(DefaultTuning())
	details, err := e.Describe(domain.Profile{domain.TraitNeuroticism: 19, domain.TraitOpenness: 12})
	require.NoError(t, err)
	require.Len(t, details, 2)

	assert.Equal(t, domain.TraitOpenness, details[0].Trait)
	assert.Equal(t, domain.CategoryModerate, details[0].Category)
	assert.Equal(t, "You balance creativity with practicality", details[0].Description)
	assert.Equal(t, domain.TraitNeuroticism, details[1].Trait)
	assert.Equal(t, domain.CategoryVeryHigh, details[1].Category)

	_, err = e.Describe(domain.Profile{domain.TraitOpenness: 0})
	assert.Error(t, err)
}
