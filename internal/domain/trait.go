package domain

import (
	"fmt"
	"strings"
)

// Trait identifica uno de los cinco rasgos Big Five.
type Trait string

const (
	TraitOpenness          Trait = "openness"
	TraitConscientiousness Trait = "conscientiousness"
	TraitExtraversion      Trait = "extraversion"
	TraitAgreeableness     Trait = "agreeableness"
	TraitNeuroticism       Trait = "neuroticism"
)

// traitOrder es el orden canonico usado en explicaciones, consultas y vectores.
var traitOrder = [...]Trait{
	TraitOpenness,
	TraitConscientiousness,
	TraitExtraversion,
	TraitAgreeableness,
	TraitNeuroticism,
}

// Traits devuelve los cinco rasgos en orden canonico.
func Traits() []Trait {
	out := make([]Trait, len(traitOrder))
	copy(out, traitOrder[:])
	return out
}

// Index devuelve la posicion canonica del rasgo o -1 si no es un rasgo Big Five.
func (t Trait) Index() int {
	for i, known := range traitOrder {
		if known == t {
			return i
		}
	}
	return -1
}

func (t Trait) Valid() bool {
	return t.Index() >= 0
}

// Title devuelve el nombre capitalizado, ej: "Openness".
func (t Trait) Title() string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseTrait normaliza y valida un nombre de rasgo.
func ParseTrait(raw string) (Trait, error) {
	t := Trait(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTrait, raw)
	}
	return t, nil
}

// TraitCategory es la banda ordinal derivada de un puntaje.
type TraitCategory int

const (
	CategoryVeryLow TraitCategory = iota
	CategoryLow
	CategoryModerate
	CategoryHigh
	CategoryVeryHigh
)

// NumCategories es la cantidad de bandas; sirve para dimensionar tablas indexadas por categoria.
const NumCategories = int(CategoryVeryHigh) + 1

// NumTraits es la cantidad de rasgos del modelo.
const NumTraits = len(traitOrder)

var categoryNames = [NumCategories]string{"very_low", "low", "moderate", "high", "very_high"}

func (c TraitCategory) Valid() bool {
	return c >= CategoryVeryLow && c <= CategoryVeryHigh
}

func (c TraitCategory) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

func (c TraitCategory) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid trait category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *TraitCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory convierte "very_low".."very_high" en TraitCategory.
func ParseCategory(raw string) (TraitCategory, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for i, known := range categoryNames {
		if known == name {
			return TraitCategory(i), nil
		}
	}
	return 0, fmt.Errorf("unknown trait category %q", raw)
}
