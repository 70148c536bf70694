package matching

import (
	"fmt"

	"persona-match/internal/domain"
)

// Weights es el multiplicador de importancia de cada rasgo en el puntaje agregado.
type Weights struct {
	values [domain.NumTraits]float64
}

var defaultWeightTable = map[domain.Trait]float64{
	domain.TraitOpenness:          1.0,
	domain.TraitConscientiousness: 1.1,
	domain.TraitExtraversion:      1.0,
	domain.TraitAgreeableness:     1.2,
	domain.TraitNeuroticism:       1.1,
}

func DefaultWeights() Weights {
	w, _ := NewWeights(nil)
	return w
}

// NewWeights parte de los pesos por defecto y aplica overrides; cada peso debe ser positivo.
func NewWeights(overrides map[domain.Trait]float64) (Weights, error) {
	var w Weights
	for t, v := range defaultWeightTable {
		w.values[t.Index()] = v
	}
	for t, v := range overrides {
		if !t.Valid() {
			return Weights{}, fmt.Errorf("trait weights: %w: %q", domain.ErrUnknownTrait, string(t))
		}
		if v <= 0 {
			return Weights{}, fmt.Errorf("trait weights: %s must be positive, got %v", t, v)
		}
		w.values[t.Index()] = v
	}
	return w, nil
}

func (w Weights) Of(t domain.Trait) float64 {
	i := t.Index()
	if i < 0 {
		return 0
	}
	return w.values[i]
}

func (w Weights) Map() map[domain.Trait]float64 {
	out := make(map[domain.Trait]float64, domain.NumTraits)
	for _, t := range domain.Traits() {
		out[t] = w.Of(t)
	}
	return out
}
