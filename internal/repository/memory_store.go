package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
)

// MemoryStore es un repositorio en proceso con la misma semantica que los Pg*Repository.
// Se usa en tests y en cmd/match_check. Todas las operaciones toman el mismo mutex.
type MemoryStore struct {
	mu       sync.Mutex
	order    []string
	users    map[string]domain.User
	profiles map[string]domain.Profile
	matches  map[string][]domain.MatchResult
	last     map[string]time.Time
	claims   map[string]time.Time
	claimTTL time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		profiles: make(map[string]domain.Profile),
		matches:  make(map[string][]domain.MatchResult),
		last:     make(map[string]time.Time),
		claims:   make(map[string]time.Time),
		claimTTL: DefaultClaimTTL,
	}
}

func (s *MemoryStore) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if user.Email != "" {
		for _, u := range s.users {
			if u.Email == user.Email {
				return domain.ErrAlreadyExists
			}
		}
	}
	s.users[user.ID] = user
	s.order = append(s.order, user.ID)
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email == "" {
		return domain.User{}, domain.ErrNotFound
	}
	for _, id := range s.order {
		if s.users[id].Email == email {
			return s.users[id], nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *MemoryStore) SaveProfile(_ context.Context, userID string, profile domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return domain.ErrNotFound
	}
	current := s.profiles[userID]
	if current == nil {
		current = domain.Profile{}
	}
	for t, v := range profile {
		current[t] = v
	}
	s.profiles[userID] = current
	return nil
}

func (s *MemoryStore) FindByUserID(_ context.Context, userID string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profiles[userID].Clone()
	if p == nil {
		p = domain.Profile{}
	}
	return p, nil
}

func (s *MemoryStore) GetProfile(_ context.Context, userID string) (domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.Member{}, domain.ErrNotFound
	}
	return s.memberLocked(u), nil
}

func (s *MemoryStore) memberLocked(u domain.User) domain.Member {
	p := s.profiles[u.ID].Clone()
	if p == nil {
		p = domain.Profile{}
	}
	return domain.Member{User: u, Profile: p}
}

func (s *MemoryStore) ListCandidates(_ context.Context, excludeID, gender string) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Member
	for _, id := range s.order {
		if id == excludeID {
			continue
		}
		u := s.users[id]
		if gender != "" && u.Gender != gender {
			continue
		}
		u.PasswordHash = ""
		out = append(out, s.memberLocked(u))
	}
	return out, nil
}

func (s *MemoryStore) ReplaceMatches(_ context.Context, requesterID string, results []domain.MatchResult, matchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[requesterID]; !ok {
		return domain.ErrNotFound
	}
	stored := make([]domain.MatchResult, len(results))
	copy(stored, results)
	s.matches[requesterID] = stored
	s.last[requesterID] = matchedAt
	delete(s.claims, requesterID)
	return nil
}

func (s *MemoryStore) ListMatches(_ context.Context, requesterID string) ([]domain.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MatchResult, len(s.matches[requesterID]))
	copy(out, s.matches[requesterID])
	return out, nil
}

func (s *MemoryStore) GetCooldown(_ context.Context, requesterID string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.last[requesterID]
	return t, ok, nil
}

func (s *MemoryStore) AcquireMatchSlot(_ context.Context, requesterID string, now time.Time, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.last[requesterID]; ok && last.After(now.Add(-window)) {
		return false, nil
	}
	if claimed, ok := s.claims[requesterID]; ok && claimed.After(now.Add(-s.claimTTL)) {
		return false, nil
	}
	s.claims[requesterID] = now
	return true, nil
}

func (s *MemoryStore) ReleaseMatchSlot(_ context.Context, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, requesterID)
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := domain.Stats{TotalUsers: len(s.users), GenderBreakdown: map[string]int{}}
	for _, u := range s.users {
		stats.GenderBreakdown[u.Gender]++
	}
	for _, m := range s.matches {
		stats.TotalMatches += len(m)
	}
	return stats, nil
}

// NearestByTraits ordena por distancia euclidiana sin ponderar, como el operador <-> de pgvector.
func (s *MemoryStore) NearestByTraits(_ context.Context, target matching.TraitPercents, excludeID string, limit int) ([]matching.SimilarityCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type scored struct {
		candidate matching.SimilarityCandidate
		dist      float64
	}
	var pool []scored
	for _, id := range s.order {
		p := s.profiles[id]
		if id == excludeID || !p.Complete() {
			continue
		}
		traits := matching.PercentsFromProfile(p)
		var d float64
		for _, t := range domain.Traits() {
			diff := traits[t] - target[t]
			d += diff * diff
		}
		pool = append(pool, scored{
			candidate: matching.SimilarityCandidate{ID: id, Name: s.users[id].Name, Traits: traits},
			dist:      d,
		})
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].dist < pool[j].dist })
	if limit > 0 && len(pool) > limit {
		pool = pool[:limit]
	}
	out := make([]matching.SimilarityCandidate, 0, len(pool))
	for _, p := range pool {
		out = append(out, p.candidate)
	}
	return out, nil
}
