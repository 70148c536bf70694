package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnknownTrait  = errors.New("unknown trait")
)

// InvalidScoreError indica un puntaje fuera del dominio configurado. Nunca se recorta en silencio.
type InvalidScoreError struct {
	Trait Trait
	Score int
	Min   int
	Max   int
}

func (e *InvalidScoreError) Error() string {
	if e.Trait == "" {
		return fmt.Sprintf("invalid score %d: must be between %d and %d", e.Score, e.Min, e.Max)
	}
	return fmt.Sprintf("invalid score for %s: %d (must be %d-%d)", e.Trait, e.Score, e.Min, e.Max)
}

// IncompleteProfileError indica que faltan rasgos requeridos.
type IncompleteProfileError struct {
	Missing []Trait
}

func (e *IncompleteProfileError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, t := range e.Missing {
		names = append(names, string(t))
	}
	return "incomplete profile: missing " + strings.Join(names, ", ")
}
