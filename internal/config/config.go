package config

import (
	"time"

	"github.com/caarlos0/env/v10"

	"persona-match/internal/domain"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string   `env:"HTTP_PORT" envDefault:"8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret        string        `env:"JWT_SECRET"`
	JWTAccessTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	JWTRefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW" envDefault:"10m"`
	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`

	MinCompatibility float64       `env:"MIN_COMPATIBILITY" envDefault:"60"`
	MatchLimit       int           `env:"MATCH_LIMIT" envDefault:"10"`
	MatchCooldown    time.Duration `env:"MATCH_COOLDOWN" envDefault:"24h"`
	QuickMatchPool   int           `env:"QUICK_MATCH_POOL" envDefault:"50"`
	ScoreMin         int           `env:"SCORE_MIN" envDefault:"1"`
	ScoreMax         int           `env:"SCORE_MAX" envDefault:"20"`
	MatchTuningFile  string        `env:"MATCH_TUNING_FILE"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ScoreDomain() domain.ScoreDomain {
	return domain.ScoreDomain{Min: c.ScoreMin, Max: c.ScoreMax}
}
