package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"persona-match/internal/domain"
)

// TraitRepository guarda un puntaje por fila (user_id, trait).
type TraitRepository interface {
	SaveProfile(ctx context.Context, userID string, profile domain.Profile) error
	FindByUserID(ctx context.Context, userID string) (domain.Profile, error)
}

type PgTraitRepository struct {
	pool *pgxpool.Pool
}

func NewPgTraitRepository(pool *pgxpool.Pool) *PgTraitRepository {
	return &PgTraitRepository{pool: pool}
}

// SaveProfile hace upsert de los rasgos recibidos y, si el perfil queda completo,
// recalcula users.trait_vector en la misma transaccion.
func (r *PgTraitRepository) SaveProfile(ctx context.Context, userID string, profile domain.Profile) error {
	const upsert = `
		INSERT INTO personality_traits (user_id, trait, score, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, trait)
		DO UPDATE SET
			score = EXCLUDED.score,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now().UTC()
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range domain.Traits() {
			if score, ok := profile[t]; ok {
				batch.Queue(upsert, userID, string(t), score, now)
			}
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}

		merged, err := findProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !merged.Complete() {
			return nil
		}
		_, err = tx.Exec(ctx, `UPDATE users SET trait_vector = $2 WHERE id = $1`, userID, TraitVector(merged))
		return err
	})
	if err != nil {
		return fmt.Errorf("save traits for %s: %w", userID, mapPgError(err))
	}
	return nil
}

func (r *PgTraitRepository) FindByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	return findProfile(ctx, r.pool, userID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func findProfile(ctx context.Context, q querier, userID string) (domain.Profile, error) {
	const query = `
		SELECT trait, score
		FROM personality_traits
		WHERE user_id = $1
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profile := domain.Profile{}
	for rows.Next() {
		var trait string
		var score int
		if err := rows.Scan(&trait, &score); err != nil {
			return nil, err
		}
		profile[domain.Trait(trait)] = score
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profile, nil
}

// TraitVector ordena el perfil en orden canonico y lo lleva a escala 0-100,
// la misma escala que usa el ranking por similitud.
func TraitVector(p domain.Profile) pgvector.Vector {
	values := make([]float32, 0, domain.NumTraits)
	for _, t := range domain.Traits() {
		values = append(values, float32(p[t]*5))
	}
	return pgvector.NewVector(values)
}
