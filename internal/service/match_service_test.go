package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
)

type mockMatchRepo struct {
	members      map[string]domain.Member
	order        []string
	lastMatched  map[string]time.Time
	claimed      map[string]bool
	replaced     map[string][]domain.MatchResult
	listCalls    int
	releaseCalls int
	listErr      error
	replaceErr   error
}

func newMockMatchRepo(members ...domain.Member) *mockMatchRepo {
	m := &mockMatchRepo{
		members:     make(map[string]domain.Member),
		lastMatched: make(map[string]time.Time),
		claimed:     make(map[string]bool),
		replaced:    make(map[string][]domain.MatchResult),
	}
	for _, member := range members {
		m.members[member.User.ID] = member
		m.order = append(m.order, member.User.ID)
	}
	return m
}

func (m *mockMatchRepo) GetProfile(_ context.Context, userID string) (domain.Member, error) {
	member, ok := m.members[userID]
	if !ok {
		return domain.Member{}, domain.ErrNotFound
	}
	return member, nil
}

func (m *mockMatchRepo) ListCandidates(_ context.Context, excludeID, gender string) ([]domain.Member, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Member
	for _, id := range m.order {
		member := m.members[id]
		if id == excludeID {
			continue
		}
		if gender != "" && member.User.Gender != gender {
			continue
		}
		out = append(out, member)
	}
	return out, nil
}

func (m *mockMatchRepo) ReplaceMatches(_ context.Context, requesterID string, results []domain.MatchResult, matchedAt time.Time) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaced[requesterID] = results
	m.lastMatched[requesterID] = matchedAt
	m.claimed[requesterID] = false
	return nil
}

func (m *mockMatchRepo) GetCooldown(_ context.Context, requesterID string) (time.Time, bool, error) {
	last, ok := m.lastMatched[requesterID]
	return last, ok, nil
}

func (m *mockMatchRepo) AcquireMatchSlot(_ context.Context, requesterID string, now time.Time, window time.Duration) (bool, error) {
	if m.claimed[requesterID] {
		return false, nil
	}
	if last, ok := m.lastMatched[requesterID]; ok && now.Sub(last) < window {
		return false, nil
	}
	m.claimed[requesterID] = true
	return true, nil
}

func (m *mockMatchRepo) ReleaseMatchSlot(_ context.Context, requesterID string) error {
	m.releaseCalls++
	m.claimed[requesterID] = false
	return nil
}

func member(id, gender string, p domain.Profile) domain.Member {
	return domain.Member{
		User:    domain.User{ID: id, Name: id, Age: 30, Gender: gender},
		Profile: p,
	}
}

func bigFive(o, c, e, a, n int) domain.Profile {
	return domain.Profile{
		domain.TraitOpenness:          o,
		domain.TraitConscientiousness: c,
		domain.TraitExtraversion:      e,
		domain.TraitAgreeableness:     a,
		domain.TraitNeuroticism:       n,
	}
}

var (
	requesterProfile = bigFive(17, 16, 18, 14, 8)
	scenarioProfile  = bigFive(12, 13, 9, 16, 6)
	perfectProfile   = bigFive(12, 10, 12, 16, 13)
)

func newTestMatchService(repo MatchRepository, now time.Time) *MatchService {
	svc := NewMatchService(matching.MustEngine(matching.DefaultTuning()), repo, DefaultMatchDefaults(), zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func candidateIDs(results []domain.MatchResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.CandidateID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFindMatches_RanksFiltersAndPersists(t *testing.T) {
	partial := bigFive(12, 13, 9, 16, 6)
	delete(partial, domain.TraitNeuroticism)

	repo := newMockMatchRepo(
		member("me", "Female", requesterProfile),
		member("b1", "Male", scenarioProfile),
		member("perfect", "Male", perfectProfile),
		member("b2", "Male", scenarioProfile),
		member("twin", "Male", requesterProfile),
		member("partial", "Male", partial),
	)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestMatchService(repo, now)

	results, err := svc.FindMatches(context.Background(), svc.NewRequest("me"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := candidateIDs(results); !equalIDs(got, []string{"perfect", "b1", "b2"}) {
		t.Fatalf("unexpected order: %v", got)
	}
	if results[0].Compatibility != 100 {
		t.Fatalf("expected perfect score, got %v", results[0].Compatibility)
	}
	for _, r := range results {
		if r.ID == "" || r.RequesterID != "me" || !r.CreatedAt.Equal(now) {
			t.Fatalf("unexpected result metadata: %+v", r)
		}
		if len(r.Advice) == 0 || len(r.Explanations) != domain.NumTraits {
			t.Fatalf("expected advice and explanations, got %+v", r)
		}
	}
	if len(repo.replaced["me"]) != 3 {
		t.Fatalf("expected matches persisted, got %d", len(repo.replaced["me"]))
	}
	if !repo.lastMatched["me"].Equal(now) {
		t.Fatalf("expected cooldown advanced to %v", now)
	}
}

func TestFindMatches_StableOrderForTies(t *testing.T) {
	repo := newMockMatchRepo(
		member("me", "Female", requesterProfile),
		member("z-first", "Male", scenarioProfile),
		member("a-second", "Male", scenarioProfile),
		member("m-third", "Male", scenarioProfile),
	)
	svc := newTestMatchService(repo, time.Now().UTC())
	req := svc.NewRequest("me")
	req.Cooldown = 0

	results, err := svc.FindMatches(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := candidateIDs(results); !equalIDs(got, []string{"z-first", "a-second", "m-third"}) {
		t.Fatalf("expected input order preserved for ties, got %v", got)
	}
}

func TestFindMatches_LimitAndGenderFilter(t *testing.T) {
	repo := newMockMatchRepo(
		member("me", "Female", requesterProfile),
		member("b1", "Male", scenarioProfile),
		member("perfect", "Female", perfectProfile),
		member("b2", "Male", scenarioProfile),
	)
	svc := newTestMatchService(repo, time.Now().UTC())

	req := svc.NewRequest("me")
	req.Cooldown = 0
	req.Limit = 2
	results, err := svc.FindMatches(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := candidateIDs(results); !equalIDs(got, []string{"perfect", "b1"}) {
		t.Fatalf("unexpected limited result: %v", got)
	}

	req.Limit = 10
	req.GenderFilter = "Male"
	results, err = svc.FindMatches(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := candidateIDs(results); !equalIDs(got, []string{"b1", "b2"}) {
		t.Fatalf("unexpected filtered result: %v", got)
	}
}

func TestFindMatches_Cooldown(t *testing.T) {
	repo := newMockMatchRepo(
		member("me", "Female", requesterProfile),
		member("b1", "Male", scenarioProfile),
	)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestMatchService(repo, start)
	req := svc.NewRequest("me")

	first, err := svc.FindMatches(context.Background(), req)
	if err != nil || len(first) != 1 {
		t.Fatalf("expected first run to match, got %v (err=%v)", first, err)
	}

	svc.now = func() time.Time { return start.Add(time.Hour) }
	listCalls := repo.listCalls
	second, err := svc.FindMatches(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second == nil || len(second) != 0 {
		t.Fatalf("expected empty non-nil result during cooldown, got %v", second)
	}
	if repo.listCalls != listCalls {
		t.Fatalf("expected no scoring during cooldown")
	}

	remaining, err := svc.CooldownRemaining(context.Background(), "me", req.Cooldown)
	if err != nil || remaining != 23*time.Hour {
		t.Fatalf("expected 23h remaining, got %v (err=%v)", remaining, err)
	}

	svc.now = func() time.Time { return start.Add(25 * time.Hour) }
	third, err := svc.FindMatches(context.Background(), req)
	if err != nil || len(third) != 1 {
		t.Fatalf("expected run after cooldown to match, got %v (err=%v)", third, err)
	}
}

func TestFindMatches_EmptyResultsReleaseSlot(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		repo := newMockMatchRepo(member("me", "Female", requesterProfile))
		svc := newTestMatchService(repo, time.Now().UTC())

		results, err := svc.FindMatches(context.Background(), svc.NewRequest("me"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results == nil || len(results) != 0 {
			t.Fatalf("expected empty result, got %v", results)
		}
		if repo.releaseCalls != 1 {
			t.Fatalf("expected slot release, got %d", repo.releaseCalls)
		}
		if _, ok := repo.lastMatched["me"]; ok {
			t.Fatalf("did not expect cooldown to advance")
		}
	})

	t.Run("nobody above threshold", func(t *testing.T) {
		repo := newMockMatchRepo(
			member("me", "Female", requesterProfile),
			member("twin", "Male", requesterProfile),
		)
		svc := newTestMatchService(repo, time.Now().UTC())

		results, err := svc.FindMatches(context.Background(), svc.NewRequest("me"))
		if err != nil || len(results) != 0 {
			t.Fatalf("expected empty result, got %v (err=%v)", results, err)
		}
		if _, ok := repo.replaced["me"]; ok {
			t.Fatalf("did not expect matches to be persisted")
		}
	})
}

func TestFindMatches_Errors(t *testing.T) {
	t.Run("unknown requester", func(t *testing.T) {
		svc := newTestMatchService(newMockMatchRepo(), time.Now().UTC())
		_, err := svc.FindMatches(context.Background(), svc.NewRequest("ghost"))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("incomplete requester", func(t *testing.T) {
		repo := newMockMatchRepo(member("me", "Female", domain.Profile{domain.TraitOpenness: 10}))
		svc := newTestMatchService(repo, time.Now().UTC())
		_, err := svc.FindMatches(context.Background(), svc.NewRequest("me"))
		if !errors.Is(err, ErrProfileIncomplete) {
			t.Fatalf("expected ErrProfileIncomplete, got %v", err)
		}
		var incomplete *domain.IncompleteProfileError
		if !errors.As(err, &incomplete) {
			t.Fatalf("expected IncompleteProfileError in chain, got %v", err)
		}
	})

	t.Run("invalid threshold", func(t *testing.T) {
		svc := newTestMatchService(newMockMatchRepo(), time.Now().UTC())
		req := svc.NewRequest("me")
		req.MinimumCompatibility = 120
		if _, err := svc.FindMatches(context.Background(), req); !errors.Is(err, ErrInvalidMatchRequest) {
			t.Fatalf("expected ErrInvalidMatchRequest, got %v", err)
		}
	})

	t.Run("repository failure propagates", func(t *testing.T) {
		repo := newMockMatchRepo(member("me", "Female", requesterProfile))
		repo.listErr = errors.New("db down")
		svc := newTestMatchService(repo, time.Now().UTC())
		_, err := svc.FindMatches(context.Background(), svc.NewRequest("me"))
		if err == nil || !errors.Is(err, repo.listErr) {
			t.Fatalf("expected wrapped repository error, got %v", err)
		}
		if repo.releaseCalls != 1 {
			t.Fatalf("expected slot release after failure")
		}
	})
}

func TestRank_SkipsCandidatesWithInvalidScores(t *testing.T) {
	svc := newTestMatchService(newMockMatchRepo(), time.Now().UTC())
	pool := []domain.Member{
		member("broken", "Male", bigFive(12, 13, 9, 16, 40)),
		member("b1", "Male", scenarioProfile),
	}
	results, err := svc.Rank(member("me", "Female", requesterProfile), pool, 0, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := candidateIDs(results); !equalIDs(got, []string{"b1"}) {
		t.Fatalf("expected broken candidate skipped, got %v", got)
	}
}

func TestCompatibility(t *testing.T) {
	repo := newMockMatchRepo(
		member("a", "Female", requesterProfile),
		member("b", "Male", scenarioProfile),
		member("c", "Male", domain.Profile{domain.TraitOpenness: 4}),
	)
	svc := newTestMatchService(repo, time.Now().UTC())

	report, err := svc.Compatibility(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 4.3 / 5.4 * 100
	if diff := report.Evaluation.Compatibility - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected %v, got %v", want, report.Evaluation.Compatibility)
	}
	if report.UserA.ID != "a" || report.UserB.ID != "b" {
		t.Fatalf("unexpected users in report: %+v", report)
	}

	if _, err := svc.Compatibility(context.Background(), "a", "c"); !errors.Is(err, ErrProfileIncomplete) {
		t.Fatalf("expected ErrProfileIncomplete, got %v", err)
	}
	if _, err := svc.Compatibility(context.Background(), "a", "zzz"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindMatches_InvalidRequesterScoresSurface(t *testing.T) {
	tuning := matching.DefaultTuning()
	tuning.Domain = domain.LikertScoreDomain
	repo := newMockMatchRepo(
		member("me", "Female", bigFive(3, 12, 12, 12, 12)),
		member("b1", "Male", bigFive(3, 12, 12, 12, 12)),
	)
	svc := NewMatchService(matching.MustEngine(tuning), repo, DefaultMatchDefaults(), zap.NewNop())

	results, err := svc.FindMatches(context.Background(), svc.NewRequest("me"))
	var invalid *domain.InvalidScoreError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidScoreError, got results=%v err=%v", results, err)
	}
	if invalid.Trait != domain.TraitOpenness || invalid.Score != 3 {
		t.Fatalf("unexpected error detail: %+v", invalid)
	}
	if repo.claimed["me"] || repo.listCalls != 0 {
		t.Fatalf("expected no slot claim and no candidate listing")
	}

	if _, err := svc.Rank(member("me", "Female", bigFive(3, 12, 12, 12, 12)), nil, 0, 10, time.Now().UTC()); !errors.As(err, &invalid) {
		t.Fatalf("expected Rank to reject invalid requester, got %v", err)
	}
}

func TestRun_ReportsDeniedSlot(t *testing.T) {
	repo := newMockMatchRepo(
		member("me", "Female", requesterProfile),
		member("b1", "Male", scenarioProfile),
	)
	svc := newTestMatchService(repo, time.Now().UTC())
	repo.claimed["me"] = true

	run, err := svc.Run(context.Background(), svc.NewRequest("me"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !run.SlotDenied || len(run.Results) != 0 {
		t.Fatalf("expected denied slot with no results, got %+v", run)
	}
	remaining, err := svc.CooldownRemaining(context.Background(), "me", time.Hour)
	if err != nil || remaining != 0 {
		t.Fatalf("expected no recorded cooldown for an in-flight claim, got %v (err=%v)", remaining, err)
	}

	repo.claimed["me"] = false
	run, err = svc.Run(context.Background(), svc.NewRequest("me"))
	if err != nil || run.SlotDenied || len(run.Results) != 1 {
		t.Fatalf("expected a normal run, got %+v (err=%v)", run, err)
	}
}
