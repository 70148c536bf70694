package matching

import (
	"math"
	"sort"

	"persona-match/internal/domain"
)

// TraitPercents expresa rasgos en escala 0-100, la salida del cuestionario binario.
type TraitPercents map[domain.Trait]float64

// PercentsFromProfile lleva un perfil entero a escala 0-100 (inverso de la conversion /5).
func PercentsFromProfile(p domain.Profile) TraitPercents {
	out := make(TraitPercents, len(p))
	for t, v := range p {
		out[t] = float64(v) * 5
	}
	return out
}

type SimilarityCandidate struct {
	ID     string
	Name   string
	Traits TraitPercents
}

type SimilarityMatch struct {
	ID            string  `json:"user_id"`
	Name          string  `json:"name"`
	Compatibility float64 `json:"compatibility"`
}

// Distance es la distancia L1 ponderada sobre los rasgos presentes en ambos mapas.
func (w Weights) Distance(a, b TraitPercents) float64 {
	var total float64
	for _, t := range domain.Traits() {
		va, okA := a[t]
		vb, okB := b[t]
		if !okA || !okB {
			continue
		}
		total += w.Of(t) * math.Abs(va-vb)
	}
	return total
}

// RankBySimilarity puntua cada candidato como 100 - distancia (redondeado a 2 decimales)
// y ordena de mayor a menor conservando el orden de entrada en empates.
func RankBySimilarity(w Weights, target TraitPercents, pool []SimilarityCandidate) []SimilarityMatch {
	matches := make([]SimilarityMatch, 0, len(pool))
	for _, c := range pool {
		score := 100 - w.Distance(target, c.Traits)
		matches = append(matches, SimilarityMatch{
			ID:            c.ID,
			Name:          c.Name,
			Compatibility: math.Round(score*100) / 100,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Compatibility > matches[j].Compatibility
	})
	return matches
}
