package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
)

// Tuning arma los parametros del motor: dominio desde env y, si MATCH_TUNING_FILE existe,
// pesos, reglas de consejos y dominio desde el YAML (el archivo gana sobre env).
func (c *Config) Tuning() (matching.Tuning, error) {
	base := matching.DefaultTuning()
	base.Domain = c.ScoreDomain()
	if c.MatchTuningFile == "" {
		return base, base.Domain.Validate()
	}
	raw, err := os.ReadFile(c.MatchTuningFile)
	if err != nil {
		return matching.Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	return ParseTuning(raw, base)
}

// ParseTuning decodifica YAML sobre base: solo cambian las claves presentes, incluso con valor 0.
// Claves desconocidas son error.
func ParseTuning(raw []byte, base matching.Tuning) (matching.Tuning, error) {
	out := base
	if out.Advice == (matching.AdviceRules{}) {
		out.Advice = matching.DefaultAdviceRules()
	}
	if base.Weights != nil {
		out.Weights = make(map[domain.Trait]float64, len(base.Weights))
		for t, w := range base.Weights {
			out.Weights[t] = w
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return matching.Tuning{}, fmt.Errorf("parse tuning: %w", err)
	}

	if err := out.Domain.Validate(); err != nil {
		return matching.Tuning{}, fmt.Errorf("tuning score_domain: %w", err)
	}
	if _, err := matching.NewWeights(out.Weights); err != nil {
		return matching.Tuning{}, err
	}
	return out, nil
}
