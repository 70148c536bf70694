package matching

import (
	"strings"

	"persona-match/internal/domain"
)

// SplitReasons separa las explicaciones de Scorer.Score en puntos a favor y desafios.
func SplitReasons(explanations []string) domain.MatchReasons {
	reasons := domain.MatchReasons{Positive: []string{}, Negative: []string{}}
	for _, e := range explanations {
		switch {
		case strings.Contains(e, verdictConflict):
			reasons.Negative = append(reasons.Negative, strings.Replace(e, verdictConflict, "Potential challenge", 1))
		case strings.Contains(e, verdictCompatible):
			reasons.Positive = append(reasons.Positive, strings.Replace(e, verdictCompatible, "Good match", 1))
		}
	}
	return reasons
}
