package matching

import (
	"fmt"

	"persona-match/internal/domain"
)

type categorySet uint8

func setOf(cats ...domain.TraitCategory) categorySet {
	var s categorySet
	for _, c := range cats {
		s |= 1 << uint(c)
	}
	return s
}

func (s categorySet) has(c domain.TraitCategory) bool {
	return c.Valid() && s&(1<<uint(c)) != 0
}

// Matrix es una adyacencia dirigida por rasgo: la fila es la categoria del solicitante
// y el conjunto contiene las categorias de candidato consideradas compatibles.
// No es simetrica: IsCompatible(t, x, y) no implica IsCompatible(t, y, x).
// Es un valor (arrays, sin mapas), asi que no puede mutarse despues de construirse.
type Matrix struct {
	rows [domain.NumTraits][domain.NumCategories]categorySet
}

// MatrixTable es la forma declarativa usada para construir una Matrix.
type MatrixTable map[domain.Trait]map[domain.TraitCategory][]domain.TraitCategory

// NewMatrix exige una entrada para cada par (rasgo, categoria) del espacio 5x5.
func NewMatrix(table MatrixTable) (Matrix, error) {
	var m Matrix
	for _, t := range domain.Traits() {
		rows, ok := table[t]
		if !ok {
			return Matrix{}, fmt.Errorf("compatibility matrix: missing trait %s", t)
		}
		for c := domain.CategoryVeryLow; c <= domain.CategoryVeryHigh; c++ {
			targets, ok := rows[c]
			if !ok {
				return Matrix{}, fmt.Errorf("compatibility matrix: missing %s/%s", t, c)
			}
			for _, target := range targets {
				if !target.Valid() {
					return Matrix{}, fmt.Errorf("compatibility matrix: invalid target in %s/%s", t, c)
				}
			}
			m.rows[t.Index()][c] = setOf(targets...)
		}
	}
	for t := range table {
		if !t.Valid() {
			return Matrix{}, fmt.Errorf("compatibility matrix: %w: %q", domain.ErrUnknownTrait, string(t))
		}
	}
	return m, nil
}

// IsCompatible usa source (categoria del solicitante) como clave de la fila.
func (m Matrix) IsCompatible(t domain.Trait, source, target domain.TraitCategory) bool {
	i := t.Index()
	if i < 0 || !source.Valid() {
		return false
	}
	return m.rows[i][source].has(target)
}

// Targets devuelve una copia ordenada del conjunto compatible para (t, source).
func (m Matrix) Targets(t domain.Trait, source domain.TraitCategory) []domain.TraitCategory {
	i := t.Index()
	if i < 0 || !source.Valid() {
		return nil
	}
	var out []domain.TraitCategory
	for c := domain.CategoryVeryLow; c <= domain.CategoryVeryHigh; c++ {
		if m.rows[i][source].has(c) {
			out = append(out, c)
		}
	}
	return out
}

const (
	vl = domain.CategoryVeryLow
	lo = domain.CategoryLow
	md = domain.CategoryModerate
	hi = domain.CategoryHigh
	vh = domain.CategoryVeryHigh
)

var defaultMatrix = mustMatrix(MatrixTable{
	domain.TraitOpenness: {
		vl: {lo, md},
		lo: {vl, md, hi},
		md: {lo, md, hi},
		hi: {lo, md, hi},
		vh: {md, hi},
	},
	domain.TraitConscientiousness: {
		vl: {md, hi},
		lo: {md, hi},
		md: {lo, md, hi},
		hi: {vl, lo, md},
		vh: {lo, md},
	},
	domain.TraitExtraversion: {
		vl: {lo, md},
		lo: {vl, md, hi},
		md: {lo, md, hi},
		hi: {lo, md, hi},
		vh: {md, hi},
	},
	domain.TraitAgreeableness: {
		vl: {hi, vh},
		lo: {md, hi},
		md: {md, hi},
		hi: {vl, lo, md, hi},
		vh: {vl, lo, md},
	},
	domain.TraitNeuroticism: {
		vl: {md, hi, vh},
		lo: {md, hi},
		md: {vl, lo, md},
		hi: {vl, lo},
		vh: {vl, lo},
	},
})

// DefaultMatrix devuelve la tabla de compatibilidad de produccion.
func DefaultMatrix() Matrix {
	return defaultMatrix
}

func mustMatrix(table MatrixTable) Matrix {
	m, err := NewMatrix(table)
	if err != nil {
		panic(err)
	}
	return m
}
