package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrMigrationFailed = errors.New("migration failed")

// Migration es un paso de esquema versionado. Se aplica una sola vez, dentro de una transaccion.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

const migration001Users = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email TEXT UNIQUE,
    password_hash TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    age INTEGER NOT NULL,
    gender TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    trait_vector vector(5),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_age CHECK (age BETWEEN 18 AND 100)
);

CREATE INDEX IF NOT EXISTS idx_users_gender ON users(gender);
CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);

CREATE TABLE IF NOT EXISTS personality_traits (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    trait TEXT NOT NULL,
    score INTEGER NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, trait),

    CONSTRAINT valid_trait CHECK (trait IN ('openness', 'conscientiousness', 'extraversion', 'agreeableness', 'neuroticism')),
    CONSTRAINT valid_score CHECK (score BETWEEN 1 AND 20)
);
`

const migration002Matches = `
CREATE TABLE IF NOT EXISTS matches (
    id UUID PRIMARY KEY,
    requester_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    candidate_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    compatibility DOUBLE PRECISION NOT NULL,
    explanations JSONB NOT NULL DEFAULT '[]'::jsonb,
    chemistry JSONB NOT NULL DEFAULT '{}'::jsonb,
    advice JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_matches_requester ON matches(requester_id, compatibility DESC);

CREATE TABLE IF NOT EXISTS match_cooldowns (
    user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    last_matched_at TIMESTAMP WITH TIME ZONE,
    claimed_at TIMESTAMP WITH TIME ZONE
);
`

// migration003MatchRank guarda la posicion dentro de la corrida y el perfil del candidato
// para que el historial respete el orden estable y muestre los puntajes.
const migration003MatchRank = `
ALTER TABLE matches ADD COLUMN IF NOT EXISTS rank INTEGER NOT NULL DEFAULT 0;
ALTER TABLE matches ADD COLUMN IF NOT EXISTS personality_scores JSONB NOT NULL DEFAULT '{}'::jsonb;

DROP INDEX IF EXISTS idx_matches_requester;
CREATE INDEX IF NOT EXISTS idx_matches_requester_rank ON matches(requester_id, rank);
`

func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users_and_traits", UpSQL: migration001Users},
		{Version: 2, Name: "create_matches_and_cooldowns", UpSQL: migration002Matches},
		{Version: 3, Name: "add_match_rank_and_scores", UpSQL: migration003MatchRank},
	}
}

// Migrate aplica las migraciones pendientes en orden y registra cada version en schema_migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const ensure = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, ensure); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return err
	}

	for _, mig := range Migrations() {
		if applied[mig.Version] {
			continue
		}
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d (%s): %w", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
	}
	return nil
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[int]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
