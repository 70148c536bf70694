package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	createErr    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.usersByEmail[user.Email]; ok && user.Email != "" {
		return domain.ErrAlreadyExists
	}
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

type mockTraitRepo struct {
	profiles map[string]domain.Profile
	saveErr  error
}

func newMockTraitRepo() *mockTraitRepo {
	return &mockTraitRepo{profiles: make(map[string]domain.Profile)}
}

func (m *mockTraitRepo) SaveProfile(_ context.Context, userID string, profile domain.Profile) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	current := m.profiles[userID]
	if current == nil {
		current = domain.Profile{}
	}
	for t, v := range profile {
		current[t] = v
	}
	m.profiles[userID] = current
	return nil
}

func (m *mockTraitRepo) FindByUserID(_ context.Context, userID string) (domain.Profile, error) {
	return m.profiles[userID].Clone(), nil
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func newTestUserService(users *mockUserRepo, traits *mockTraitRepo, limiter LoginRateLimiter) *UserService {
	return NewUserService(zap.NewNop(), users, traits, matching.MustEngine(matching.DefaultTuning()), limiter)
}

func validInput() CreateUserInput {
	return CreateUserInput{
		Email:    " Alice@Example.com ",
		Password: "correct-horse",
		Name:     "Alice",
		Age:      28,
		Gender:   "Female",
		Location: "Lisbon",
		Profile:  bigFive(12, 16, 18, 16, 6),
	}
}

func TestUserServiceCreateUser(t *testing.T) {
	users, traits := newMockUserRepo(), newMockTraitRepo()
	svc := newTestUserService(users, traits, nil)

	member, err := svc.CreateUser(context.Background(), validInput())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if member.User.ID == "" || member.User.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", member.User)
	}
	if member.User.PasswordHash == "" || member.User.PasswordHash == "correct-horse" {
		t.Fatalf("expected bcrypt hash to be stored")
	}
	if !member.Profile.Complete() {
		t.Fatalf("expected complete profile, got %v", member.Profile)
	}
	if traits.profiles[member.User.ID][domain.TraitExtraversion] != 18 {
		t.Fatalf("expected profile persisted, got %v", traits.profiles[member.User.ID])
	}

	if _, err := svc.CreateUser(context.Background(), validInput()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken on duplicate email, got %v", err)
	}
}

func TestUserServiceCreateUserValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateUserInput)
	}{
		{"missing name", func(in *CreateUserInput) { in.Name = " " }},
		{"too young", func(in *CreateUserInput) { in.Age = 17 }},
		{"too old", func(in *CreateUserInput) { in.Age = 101 }},
		{"unknown gender", func(in *CreateUserInput) { in.Gender = "robot" }},
		{"bad email", func(in *CreateUserInput) { in.Email = "not-an-email" }},
		{"short password", func(in *CreateUserInput) { in.Password = "short" }},
		{"password without email", func(in *CreateUserInput) { in.Email = "" }},
		{"score out of domain", func(in *CreateUserInput) { in.Profile = bigFive(12, 16, 18, 16, 21) }},
		{"unknown trait", func(in *CreateUserInput) { in.Profile = domain.Profile{"humor": 10} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserRepo()
			svc := newTestUserService(users, newMockTraitRepo(), nil)
			in := validInput()
			tt.mutate(&in)
			if _, err := svc.CreateUser(context.Background(), in); !errors.Is(err, ErrInvalidUserInput) {
				t.Fatalf("expected ErrInvalidUserInput, got %v", err)
			}
			if len(users.usersByID) != 0 {
				t.Fatalf("expected nothing stored on invalid input")
			}
		})
	}
}

func TestUserServiceCreateUserWithoutProfile(t *testing.T) {
	svc := newTestUserService(newMockUserRepo(), newMockTraitRepo(), nil)
	in := validInput()
	in.Profile = nil
	in.Password = ""
	member, err := svc.CreateUser(context.Background(), in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if member.Profile == nil || member.Profile.Complete() {
		t.Fatalf("expected empty non-nil profile, got %v", member.Profile)
	}
}

func TestUserServiceAuthenticate(t *testing.T) {
	ctx := context.Background()
	users := newMockUserRepo()
	svc := newTestUserService(users, newMockTraitRepo(), nil)
	if _, err := svc.CreateUser(ctx, validInput()); err != nil {
		t.Fatalf("create user: %v", err)
	}

	user, err := svc.Authenticate(ctx, "ALICE@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if user.Name != "Alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if _, err := svc.Authenticate(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty input, got %v", err)
	}

	limited := newTestUserService(users, newMockTraitRepo(), denyAllLimiter{})
	if _, err := limited.Authenticate(ctx, "alice@example.com", "correct-horse"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestUserServiceUpdateProfile(t *testing.T) {
	ctx := context.Background()
	users, traits := newMockUserRepo(), newMockTraitRepo()
	svc := newTestUserService(users, traits, nil)
	in := validInput()
	in.Profile = domain.Profile{domain.TraitOpenness: 10}
	created, err := svc.CreateUser(ctx, in)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Profile.Complete() {
		t.Fatalf("expected partial profile")
	}

	updated, err := svc.UpdateProfile(ctx, created.User.ID, bigFive(12, 16, 18, 16, 6))
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if !updated.Profile.Complete() || updated.Profile[domain.TraitOpenness] != 12 {
		t.Fatalf("unexpected profile after update: %v", updated.Profile)
	}

	if _, err := svc.UpdateProfile(ctx, created.User.ID, bigFive(0, 16, 18, 16, 6)); !errors.Is(err, ErrInvalidUserInput) {
		t.Fatalf("expected ErrInvalidUserInput, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, "missing", bigFive(12, 16, 18, 16, 6)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	traits.saveErr = errors.New("db down")
	if _, err := svc.UpdateProfile(ctx, created.User.ID, bigFive(12, 16, 18, 16, 6)); !errors.Is(err, traits.saveErr) {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
}
