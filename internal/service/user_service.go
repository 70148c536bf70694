package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
	"persona-match/internal/repository"
)

// UserService coordina registro, login y perfiles de personalidad.
type UserService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	traits  repository.TraitRepository
	engine  *matching.Engine
	limiter LoginRateLimiter
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, traits repository.TraitRepository, engine *matching.Engine, limiter LoginRateLimiter) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewLoginRateLimiter(loginWindow, loginMaxAttempts)
	}
	return &UserService{
		logger:  logger,
		users:   users,
		traits:  traits,
		engine:  engine,
		limiter: limiter,
	}
}

type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Age      int
	Gender   string
	Location string
	Bio      string
	Profile  domain.Profile
}

var (
	ErrInvalidUserInput   = errors.New("invalid user input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRateLimited        = errors.New("rate limited")
)

const (
	loginWindow       = 10 * time.Minute
	loginMaxAttempts  = 5
	minPasswordLength = 8
)

// CreateUser valida y guarda el usuario. Si trae perfil, se valida contra el dominio del motor
// y se persiste en la misma llamada; un perfil parcial se acepta pero no participa del matching.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (domain.Member, error) {
	if s.users == nil || s.traits == nil {
		return domain.Member{}, errors.New("user service not configured")
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Email:     normalizeEmail(input.Email),
		Name:      strings.TrimSpace(input.Name),
		Age:       input.Age,
		Gender:    strings.TrimSpace(input.Gender),
		Location:  strings.TrimSpace(input.Location),
		Bio:       strings.TrimSpace(input.Bio),
		CreatedAt: time.Now().UTC(),
	}
	if err := validateUser(user); err != nil {
		return domain.Member{}, err
	}

	password := strings.TrimSpace(input.Password)
	if password != "" {
		if user.Email == "" {
			return domain.Member{}, fmt.Errorf("%w: email required to set a password", ErrInvalidUserInput)
		}
		if len(password) < minPasswordLength {
			return domain.Member{}, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidUserInput, minPasswordLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return domain.Member{}, err
		}
		user.PasswordHash = string(hash)
	}

	if len(input.Profile) > 0 {
		if err := input.Profile.Validate(s.engine.Domain()); err != nil {
			return domain.Member{}, fmt.Errorf("%w: %w", ErrInvalidUserInput, err)
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.Member{}, ErrEmailTaken
		}
		return domain.Member{}, err
	}

	member := domain.Member{User: user, Profile: domain.Profile{}}
	if len(input.Profile) > 0 {
		if err := s.traits.SaveProfile(ctx, user.ID, input.Profile); err != nil {
			return domain.Member{}, fmt.Errorf("save profile: %w", err)
		}
		member.Profile = input.Profile.Clone()
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID),
		zap.Bool("profile_complete", member.Profile.Complete()),
	)
	return member, nil
}

func validateUser(u domain.User) error {
	if u.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUserInput)
	}
	if u.Age < domain.MinAge || u.Age > domain.MaxAge {
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidUserInput, domain.MinAge, domain.MaxAge)
	}
	if !domain.ValidGender(u.Gender) {
		return fmt.Errorf("%w: gender must be one of %s", ErrInvalidUserInput, strings.Join(domain.Genders, ", "))
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return fmt.Errorf("%w: invalid email", ErrInvalidUserInput)
		}
	}
	return nil
}

func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if !s.limiter.Allow(emailAddr) {
		s.logger.Warn("login rate limited", zap.String("email", emailAddr))
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetMember devuelve el usuario con su perfil (vacio si nunca respondio el test).
func (s *UserService) GetMember(ctx context.Context, userID string) (domain.Member, error) {
	user, err := s.users.GetByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return domain.Member{}, err
	}
	profile, err := s.traits.FindByUserID(ctx, user.ID)
	if err != nil {
		return domain.Member{}, fmt.Errorf("load profile: %w", err)
	}
	return domain.Member{User: user, Profile: profile}, nil
}

// UpdateProfile reemplaza los puntajes presentes en profile. Rasgos ausentes no se tocan.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (domain.Member, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || len(profile) == 0 {
		return domain.Member{}, ErrInvalidUserInput
	}
	if err := profile.Validate(s.engine.Domain()); err != nil {
		return domain.Member{}, fmt.Errorf("%w: %w", ErrInvalidUserInput, err)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return domain.Member{}, err
	}
	if err := s.traits.SaveProfile(ctx, userID, profile); err != nil {
		return domain.Member{}, fmt.Errorf("save profile: %w", err)
	}
	s.logger.Info("personality profile updated", zap.String("user_id", userID), zap.Int("traits", len(profile)))
	return s.GetMember(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
