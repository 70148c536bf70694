package matching

import (
	"errors"

	"persona-match/internal/domain"
)

// bandUpper guarda el limite superior inclusivo de cada categoria, indexado por TraitCategory.
var bandUpper = [domain.NumCategories]int{7, 11, 15, 18, 20}

// Categorizer traduce puntajes crudos a categorias ordinales dentro de un dominio configurado.
type Categorizer struct {
	domain domain.ScoreDomain
}

func NewCategorizer(d domain.ScoreDomain) Categorizer {
	return Categorizer{domain: d}
}

func (c Categorizer) Domain() domain.ScoreDomain {
	return c.domain
}

// Categorize aplica las bandas fijas <=7, 8-11, 12-15, 16-18, 19-20.
func (c Categorizer) Categorize(score int) (domain.TraitCategory, error) {
	if !c.domain.Contains(score) || score < domain.BandMin || score > domain.BandMax {
		return 0, &domain.InvalidScoreError{Score: score, Min: c.domain.Min, Max: c.domain.Max}
	}
	for i, upper := range bandUpper {
		if score <= upper {
			return domain.TraitCategory(i), nil
		}
	}
	return domain.CategoryVeryHigh, nil
}

func (c Categorizer) categorizeTrait(t domain.Trait, score int) (domain.TraitCategory, error) {
	cat, err := c.Categorize(score)
	if err != nil {
		var invalid *domain.InvalidScoreError
		if errors.As(err, &invalid) {
			invalid.Trait = t
		}
		return 0, err
	}
	return cat, nil
}
