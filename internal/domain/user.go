package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"`
	Location     string    `json:"location,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Generos aceptados al registrar usuarios.
var Genders = []string{"Male", "Female", "Non-binary", "Other"}

const (
	MinAge = 18
	MaxAge = 100
)

func ValidGender(g string) bool {
	for _, known := range Genders {
		if known == g {
			return true
		}
	}
	return false
}

// Member es un usuario junto con su perfil de personalidad (posiblemente incompleto).
type Member struct {
	User    User    `json:"user"`
	Profile Profile `json:"personality_scores"`
}
