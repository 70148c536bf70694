package domain

import "time"

// Chemistry resume la compatibilidad en tres ejes de comportamiento, cada uno en [0,100].
type Chemistry struct {
	Communication float64 `json:"communication"`
	Lifestyle     float64 `json:"lifestyle"`
	Emotional     float64 `json:"emotional"`
}

// MatchResult es inmutable una vez creado; el repositorio lo reemplaza en la siguiente corrida exitosa.
type MatchResult struct {
	ID            string    `json:"id"`
	RequesterID   string    `json:"requester_id"`
	CandidateID   string    `json:"user_id"`
	Name          string    `json:"name"`
	Age           int       `json:"age"`
	Gender        string    `json:"gender"`
	Location      string    `json:"location,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	Compatibility float64   `json:"compatibility_score"`
	Explanations  []string  `json:"explanations"`
	Chemistry     Chemistry `json:"chemistry_breakdown"`
	Advice        []string  `json:"relationship_tips"`
	Profile       Profile   `json:"personality_scores"`
	CreatedAt     time.Time `json:"created_at"`
}

// MatchReasons separa las explicaciones en puntos a favor y posibles desafios.
type MatchReasons struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

type Stats struct {
	TotalUsers      int            `json:"total_users"`
	GenderBreakdown map[string]int `json:"gender_breakdown"`
	TotalMatches    int            `json:"total_matches_generated"`
}
