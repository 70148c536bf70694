package matching

import (
	"fmt"

	"persona-match/internal/domain"
)

const (
	verdictCompatible = "Compatible"
	verdictConflict   = "May conflict"
)

// Scorer combina la matriz de compatibilidad con los pesos de cada rasgo.
type Scorer struct {
	categorizer Categorizer
	matrix      Matrix
	weights     Weights
}

func NewScorer(categorizer Categorizer, matrix Matrix, weights Weights) Scorer {
	return Scorer{categorizer: categorizer, matrix: matrix, weights: weights}
}

// Score devuelve el porcentaje ponderado de rasgos compatibles y una explicacion por rasgo.
// Solo se evaluan los rasgos presentes en ambos perfiles; los ausentes no suman ni restan.
// La direccion importa: la categoria de a es la clave de la matriz, por lo que
// Score(a, b) puede diferir de Score(b, a).
func (s Scorer) Score(a, b domain.Profile) (float64, []string, error) {
	var totalWeight, matchedWeight float64
	explanations := make([]string, 0, domain.NumTraits)

	for _, t := range domain.Traits() {
		scoreA, okA := a[t]
		scoreB, okB := b[t]
		if !okA || !okB {
			continue
		}
		catA, err := s.categorizer.categorizeTrait(t, scoreA)
		if err != nil {
			return 0, nil, err
		}
		catB, err := s.categorizer.categorizeTrait(t, scoreB)
		if err != nil {
			return 0, nil, err
		}

		weight := s.weights.Of(t)
		totalWeight += weight
		verdict := verdictConflict
		if s.matrix.IsCompatible(t, catA, catB) {
			matchedWeight += weight
			verdict = verdictCompatible
		}
		explanations = append(explanations, fmt.Sprintf("%s: %s (%s + %s)", t.Title(), verdict, catA, catB))
	}

	if totalWeight == 0 {
		return 0, explanations, nil
	}
	return matchedWeight / totalWeight * 100, explanations, nil
}
