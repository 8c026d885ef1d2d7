package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/sweets-api/internal/core/domain"
	"github.com/sweetshop/sweets-api/internal/core/ports"
	"github.com/sweetshop/sweets-api/internal/pkg/token"
)

var discardLogger = zerolog.Nop()

type stubUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	seq     int

	findErr   error // if set, FindByEmail returns this error
	createErr error // if set, Create returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.byEmail[user.Email]; exists {
		return nil, domain.ErrEmailTaken
	}
	r.seq++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("user-%d", r.seq)
	r.byEmail[stored.Email] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u, ok := r.byEmail[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func newTestAuthService(repo ports.UserRepository) (*AuthService, *token.Issuer) {
	issuer := token.NewIssuer("secret", time.Hour)
	return NewAuthService(repo, issuer, discardLogger), issuer
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, issuer := newTestAuthService(repo)

	tok, user, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "pass123",
		Address:  "123 Main St",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role %q, got %q", domain.RoleUser, user.Role)
	}
	if user.Address != "123 Main St" {
		t.Fatalf("unexpected address: %q", user.Address)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != domain.RoleUser {
		t.Fatalf("token bound to %s/%s, want %s/%s", claims.UserID, claims.Role, user.ID, domain.RoleUser)
	}
}

func TestAuthService_Register_TokenCarriesDeclaredRole(t *testing.T) {
	svc, issuer := newTestAuthService(newStubUserRepo())

	for i, role := range []string{domain.RoleUser, domain.RoleAdmin, "ADMIN"} {
		tok, user, err := svc.Register(context.Background(), ports.RegisterInput{
			Username: "u",
			Email:    fmt.Sprintf("u%d@example.com", i),
			Password: "pw",
			Role:     role,
		})
		if err != nil {
			t.Fatalf("register %q: %v", role, err)
		}
		claims, err := issuer.Verify(tok)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if claims.UserID != user.ID || claims.Role != user.Role {
			t.Fatalf("claims %+v do not match user %+v", claims, user)
		}
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	missing := []ports.RegisterInput{
		{Email: "a@example.com", Password: "pw"},
		{Username: "a", Password: "pw"},
		{Username: "a", Email: "a@example.com"},
		{Username: "   ", Email: "a@example.com", Password: "pw"},
	}
	for _, in := range missing {
		if _, _, err := svc.Register(context.Background(), in); err != domain.ErrMissingRegistrationFields {
			t.Fatalf("expected ErrMissingRegistrationFields for %+v, got %v", in, err)
		}
	}

	_, _, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "pw", Role: "superuser",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for bad role, got %v", err)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	first := ports.RegisterInput{Username: "bob", Email: "bob@example.com", Password: "pass"}
	if _, _, err := svc.Register(context.Background(), first); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	variants := []ports.RegisterInput{
		{Username: "bob", Email: "bob@example.com", Password: "pass"},
		{Username: "other", Email: "bob@example.com", Password: "different", Role: domain.RoleAdmin},
		{Username: "third", Email: "bob@example.com", Password: "x", Address: "Elsewhere"},
	}
	for _, in := range variants {
		if _, _, err := svc.Register(context.Background(), in); err != domain.ErrEmailTaken {
			t.Fatalf("expected ErrEmailTaken for %+v, got %v", in, err)
		}
	}
}

func TestAuthService_Register_StoreRaceMapsToConflict(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = domain.ErrEmailTaken
	svc, _ := newTestAuthService(repo)

	_, _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "a", Email: "a@example.com", Password: "pw"})
	if err != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Register_StoreError(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = errors.New("DB error")
	svc, _ := newTestAuthService(repo)

	_, _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "a", Email: "a@example.com", Password: "pw"})
	if err == nil || errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected unclassified store error, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, issuer := newTestAuthService(newStubUserRepo())

	_, registered, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "carol", Email: "carol@example.com", Password: "s3cret", Role: domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tok, user, err := svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Username != "carol" || user.ID != registered.ID {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Role != domain.RoleAdmin {
		t.Fatalf("expected role %s, got %v", domain.RoleAdmin, claims.Role)
	}
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	if _, _, err := svc.Login(context.Background(), "", "pw"); err != domain.ErrMissingLoginFields {
		t.Fatalf("expected ErrMissingLoginFields, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "a@example.com", ""); err != domain.ErrMissingLoginFields {
		t.Fatalf("expected ErrMissingLoginFields, got %v", err)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	_, _, _ = svc.Register(context.Background(), ports.RegisterInput{Username: "dave", Email: "dave@example.com", Password: "goodpass"})

	_, _, wrongPassword := svc.Login(context.Background(), "dave@example.com", "badpass")
	_, _, unknownEmail := svc.Login(context.Background(), "ghost@example.com", "goodpass")

	if wrongPassword != domain.ErrInvalidCredentials || unknownEmail != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword.Error(), unknownEmail.Error())
	}
}

func TestAuthService_Login_StoreError(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("DB error")
	svc, _ := newTestAuthService(repo)

	_, _, err := svc.Login(context.Background(), "a@example.com", "pw")
	if err == nil || errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected unclassified store error, got %v", err)
	}
}

func TestAuthService_Profile(t *testing.T) {
	svc, _ := newTestAuthService(newStubUserRepo())

	_, user, err := svc.Register(context.Background(), ports.RegisterInput{Username: "erin", Email: "erin@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.Profile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if got.Email != "erin@example.com" {
		t.Fatalf("unexpected profile: %+v", got)
	}

	if _, err := svc.Profile(context.Background(), "missing"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
