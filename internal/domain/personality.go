package domain

import "fmt"

// Profile asocia cada rasgo Big Five con su puntaje entero.
type Profile map[Trait]int

// Score devuelve el puntaje del rasgo y si esta presente.
func (p Profile) Score(t Trait) (int, bool) {
	v, ok := p[t]
	return v, ok
}

// Missing lista los rasgos ausentes en orden canonico.
func (p Profile) Missing() []Trait {
	var missing []Trait
	for _, t := range traitOrder {
		if _, ok := p[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// Complete es true cuando los cinco rasgos estan presentes.
func (p Profile) Complete() bool {
	return len(p.Missing()) == 0
}

// RequireComplete devuelve *IncompleteProfileError si faltan rasgos.
func (p Profile) RequireComplete() error {
	if missing := p.Missing(); len(missing) > 0 {
		return &IncompleteProfileError{Missing: missing}
	}
	return nil
}

// Validate revisa nombres de rasgos y rango de cada puntaje presente.
func (p Profile) Validate(d ScoreDomain) error {
	for t := range p {
		if !t.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownTrait, string(t))
		}
	}
	for _, t := range traitOrder {
		v, ok := p[t]
		if !ok {
			continue
		}
		if !d.Contains(v) {
			return &InvalidScoreError{Trait: t, Score: v, Min: d.Min, Max: d.Max}
		}
	}
	return nil
}

func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// BandMin y BandMax acotan cualquier dominio: las bandas de categoria solo estan definidas en [1,20].
const (
	BandMin = 1
	BandMax = 20
)

// ScoreDomain es el rango valido de puntajes. Existen dos variantes (1-20 por respuestas
// binarias y 4-20 por escala Likert); comparar perfiles de dominios distintos no esta definido.
type ScoreDomain struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

var (
	DefaultScoreDomain = ScoreDomain{Min: 1, Max: 20}
	LikertScoreDomain  = ScoreDomain{Min: 4, Max: 20}
)

func (d ScoreDomain) Contains(score int) bool {
	return score >= d.Min && score <= d.Max
}

func (d ScoreDomain) Clamp(score int) int {
	if score < d.Min {
		return d.Min
	}
	if score > d.Max {
		return d.Max
	}
	return score
}

func (d ScoreDomain) Validate() error {
	if d.Min < BandMin || d.Max > BandMax || d.Min > d.Max {
		return fmt.Errorf("invalid score domain %d-%d: must lie within %d-%d", d.Min, d.Max, BandMin, BandMax)
	}
	return nil
}

func (d ScoreDomain) String() string {
	return fmt.Sprintf("%d-%d", d.Min, d.Max)
}
