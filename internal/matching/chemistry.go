package matching

import (
	"math"

	"persona-match/internal/domain"
)

// chemistryPivot invierte el neuroticismo (20 - n) para que mayor estabilidad sume.
const chemistryPivot = 20.0

// chemistryScale convierte la diferencia de promedios en puntos porcentuales.
const chemistryScale = 5.0

// AnalyzeChemistry calcula comunicacion, estilo de vida y afinidad emocional.
// A diferencia de Scorer.Score, exige ambos perfiles completos.
func AnalyzeChemistry(a, b domain.Profile) (domain.Chemistry, error) {
	if err := a.RequireComplete(); err != nil {
		return domain.Chemistry{}, err
	}
	if err := b.RequireComplete(); err != nil {
		return domain.Chemistry{}, err
	}

	communication := func(p domain.Profile) float64 {
		return avg(p[domain.TraitExtraversion], p[domain.TraitOpenness])
	}
	lifestyle := func(p domain.Profile) float64 {
		return (float64(p[domain.TraitConscientiousness]) + chemistryPivot - float64(p[domain.TraitNeuroticism])) / 2
	}
	emotional := func(p domain.Profile) float64 {
		return (float64(p[domain.TraitAgreeableness]) + chemistryPivot - float64(p[domain.TraitNeuroticism])) / 2
	}

	return domain.Chemistry{
		Communication: closeness(communication(a), communication(b)),
		Lifestyle:     closeness(lifestyle(a), lifestyle(b)),
		Emotional:     closeness(emotional(a), emotional(b)),
	}, nil
}

func avg(x, y int) float64 {
	return (float64(x) + float64(y)) / 2
}

func closeness(x, y float64) float64 {
	return clamp(100-math.Abs(x-y)*chemistryScale, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
