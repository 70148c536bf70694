package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
)

// DefaultClaimTTL acota cuanto vive un claim de AcquireMatchSlot si el proceso muere
// antes de ReplaceMatches o ReleaseMatchSlot.
const DefaultClaimTTL = 2 * time.Minute

// PgMatchRepository implementa el contrato de matching, stats y vecinos por pgvector.
type PgMatchRepository struct {
	pool     *pgxpool.Pool
	claimTTL time.Duration
}

func NewPgMatchRepository(pool *pgxpool.Pool) *PgMatchRepository {
	return &PgMatchRepository{pool: pool, claimTTL: DefaultClaimTTL}
}

func (r *PgMatchRepository) GetProfile(ctx context.Context, userID string) (domain.Member, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		return domain.Member{}, err
	}
	profile, err := findProfile(ctx, r.pool, userID)
	if err != nil {
		return domain.Member{}, err
	}
	return domain.Member{User: user, Profile: profile}, nil
}

// ListCandidates devuelve todos los usuarios menos excludeID, en orden de alta, con sus
// rasgos (perfil vacio si no tienen). gender vacio no filtra.
func (r *PgMatchRepository) ListCandidates(ctx context.Context, excludeID, gender string) ([]domain.Member, error) {
	const query = `
		SELECT u.id, COALESCE(u.email, ''), u.password_hash, u.name, u.age, u.gender, u.location, u.bio, u.created_at,
		       t.trait, t.score
		FROM users u
		LEFT JOIN personality_traits t ON t.user_id = u.id
		WHERE u.id <> $1 AND ($2 = '' OR u.gender = $2)
		ORDER BY u.created_at, u.id
	`
	rows, err := r.pool.Query(ctx, query, excludeID, gender)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	index := make(map[string]int)
	for rows.Next() {
		var u domain.User
		var trait *string
		var score *int
		if err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.Name,
			&u.Age,
			&u.Gender,
			&u.Location,
			&u.Bio,
			&u.CreatedAt,
			&trait,
			&score,
		); err != nil {
			return nil, err
		}
		i, ok := index[u.ID]
		if !ok {
			u.PasswordHash = ""
			members = append(members, domain.Member{User: u, Profile: domain.Profile{}})
			i = len(members) - 1
			index[u.ID] = i
		}
		if trait != nil && score != nil {
			members[i].Profile[domain.Trait(*trait)] = *score
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// ReplaceMatches borra los matches previos del solicitante, inserta los nuevos y avanza
// last_matched_at liberando el claim, todo en una transaccion.
func (r *PgMatchRepository) ReplaceMatches(ctx context.Context, requesterID string, results []domain.MatchResult, matchedAt time.Time) error {
	const insert = `
		INSERT INTO matches (id, requester_id, candidate_id, rank, compatibility, explanations, chemistry, advice, personality_scores, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	const cooldown = `
		INSERT INTO match_cooldowns (user_id, last_matched_at, claimed_at)
		VALUES ($1, $2, NULL)
		ON CONFLICT (user_id)
		DO UPDATE SET last_matched_at = EXCLUDED.last_matched_at, claimed_at = NULL
	`
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM matches WHERE requester_id = $1`, requesterID); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, m := range results {
			cols, err := encodeMatchColumns(m)
			if err != nil {
				return err
			}
			batch.Queue(insert, m.ID, requesterID, m.CandidateID, i, m.Compatibility,
				cols.explanations, cols.chemistry, cols.advice, cols.profile, m.CreatedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, cooldown, requesterID, matchedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("replace matches for %s: %w", requesterID, mapPgError(err))
	}
	return nil
}

// ListMatches devuelve los matches vigentes del solicitante en el orden de la corrida.
func (r *PgMatchRepository) ListMatches(ctx context.Context, requesterID string) ([]domain.MatchResult, error) {
	const query = `
		SELECT m.id, m.requester_id, m.candidate_id, u.name, u.age, u.gender, u.location, u.bio,
		       m.compatibility, m.explanations, m.chemistry, m.advice, m.personality_scores, m.created_at
		FROM matches m
		JOIN users u ON u.id = m.candidate_id
		WHERE m.requester_id = $1
		ORDER BY m.rank
	`
	rows, err := r.pool.Query(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.MatchResult{}
	for rows.Next() {
		var m domain.MatchResult
		var cols matchColumns
		if err := rows.Scan(
			&m.ID,
			&m.RequesterID,
			&m.CandidateID,
			&m.Name,
			&m.Age,
			&m.Gender,
			&m.Location,
			&m.Bio,
			&m.Compatibility,
			&cols.explanations,
			&cols.chemistry,
			&cols.advice,
			&cols.profile,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := cols.decode(&m); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// matchColumns son las columnas JSONB de una fila de matches.
type matchColumns struct {
	explanations []byte
	chemistry    []byte
	advice       []byte
	profile      []byte
}

func encodeMatchColumns(m domain.MatchResult) (matchColumns, error) {
	var cols matchColumns
	var err error
	if cols.explanations, err = json.Marshal(m.Explanations); err != nil {
		return matchColumns{}, fmt.Errorf("encode explanations: %w", err)
	}
	if cols.chemistry, err = json.Marshal(m.Chemistry); err != nil {
		return matchColumns{}, fmt.Errorf("encode chemistry: %w", err)
	}
	if cols.advice, err = json.Marshal(m.Advice); err != nil {
		return matchColumns{}, fmt.Errorf("encode advice: %w", err)
	}
	if cols.profile, err = json.Marshal(m.Profile); err != nil {
		return matchColumns{}, fmt.Errorf("encode personality scores: %w", err)
	}
	return cols, nil
}

func (c matchColumns) decode(m *domain.MatchResult) error {
	if err := json.Unmarshal(c.explanations, &m.Explanations); err != nil {
		return fmt.Errorf("decode explanations: %w", err)
	}
	if err := json.Unmarshal(c.chemistry, &m.Chemistry); err != nil {
		return fmt.Errorf("decode chemistry: %w", err)
	}
	if err := json.Unmarshal(c.advice, &m.Advice); err != nil {
		return fmt.Errorf("decode advice: %w", err)
	}
	if err := json.Unmarshal(c.profile, &m.Profile); err != nil {
		return fmt.Errorf("decode personality scores: %w", err)
	}
	return nil
}

func (r *PgMatchRepository) GetCooldown(ctx context.Context, requesterID string) (time.Time, bool, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx, `SELECT last_matched_at FROM match_cooldowns WHERE user_id = $1`, requesterID).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	if last == nil {
		return time.Time{}, false, nil
	}
	return last.UTC(), true, nil
}

// AcquireMatchSlot es un upsert condicional: solo toma el slot si el cooldown vencio y no
// hay otro claim vivo. Dos llamadas concurrentes nunca obtienen true a la vez.
func (r *PgMatchRepository) AcquireMatchSlot(ctx context.Context, requesterID string, now time.Time, window time.Duration) (bool, error) {
	const query = `
		INSERT INTO match_cooldowns (user_id, last_matched_at, claimed_at)
		VALUES ($1, NULL, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET claimed_at = EXCLUDED.claimed_at
		WHERE (match_cooldowns.last_matched_at IS NULL OR match_cooldowns.last_matched_at <= $3)
		  AND (match_cooldowns.claimed_at IS NULL OR match_cooldowns.claimed_at <= $4)
		RETURNING user_id
	`
	var id string
	err := r.pool.QueryRow(ctx, query, requesterID, now, now.Add(-window), now.Add(-r.claimTTL)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapPgError(err)
	}
	return true, nil
}

func (r *PgMatchRepository) ReleaseMatchSlot(ctx context.Context, requesterID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE match_cooldowns SET claimed_at = NULL WHERE user_id = $1`, requesterID)
	return err
}

func (r *PgMatchRepository) Stats(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{GenderBreakdown: map[string]int{}}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return domain.Stats{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT gender, COUNT(*) FROM users GROUP BY gender`)
	if err != nil {
		return domain.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var gender string
		var n int
		if err := rows.Scan(&gender, &n); err != nil {
			return domain.Stats{}, err
		}
		stats.GenderBreakdown[gender] = n
	}
	if err := rows.Err(); err != nil {
		return domain.Stats{}, err
	}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM matches`).Scan(&stats.TotalMatches); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

// NearestByTraits preselecciona por distancia euclidiana en pgvector; el orden final
// (L1 ponderada) lo decide matching.RankBySimilarity.
func (r *PgMatchRepository) NearestByTraits(ctx context.Context, target matching.TraitPercents, excludeID string, limit int) ([]matching.SimilarityCandidate, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, name, trait_vector
		FROM users
		WHERE trait_vector IS NOT NULL AND id <> $2
		ORDER BY trait_vector <-> $1
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, percentVector(target), excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []matching.SimilarityCandidate
	for rows.Next() {
		var c matching.SimilarityCandidate
		var vec pgvector.Vector
		if err := rows.Scan(&c.ID, &c.Name, &vec); err != nil {
			return nil, err
		}
		c.Traits = percentsFromVector(vec)
		out = append(out, c)
	}
	return out, rows.Err()
}

func percentVector(p matching.TraitPercents) pgvector.Vector {
	values := make([]float32, 0, domain.NumTraits)
	for _, t := range domain.Traits() {
		values = append(values, float32(p[t]))
	}
	return pgvector.NewVector(values)
}

func percentsFromVector(v pgvector.Vector) matching.TraitPercents {
	out := make(matching.TraitPercents, domain.NumTraits)
	values := v.Slice()
	for i, t := range domain.Traits() {
		if i < len(values) {
			out[t] = float64(values[i])
		}
	}
	return out
}
