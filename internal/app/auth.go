package app

import (
	"context"
	"errors"

	"healthdir/internal/domain"
)

type LoginResult struct {
	Success bool              `json:"success"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
}

// AuthService checks admin credentials. Unknown usernames and wrong passwords
// fail with the same ErrInvalidCredentials.
type AuthService struct {
	repo   domain.Repository
	hasher domain.PasswordHasher
	tokens domain.TokenIssuer
}

func NewAuthService(r domain.Repository, h domain.PasswordHasher, t domain.TokenIssuer) *AuthService {
	return &AuthService{repo: r, hasher: h, tokens: t}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	u, err := s.repo.GetAdminByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Success: true, Token: tok, User: u.Public()}, nil
}

// Authenticate returns the username a bearer token belongs to.
func (s *AuthService) Authenticate(token string) (string, error) {
	if token == "" {
		return "", domain.ErrInvalidCredentials
	}
	username, err := s.tokens.Verify(token)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return username, nil
}

// EnsureAdmin creates the given admin account when no admin exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	u := domain.AdminUser{Username: username, PasswordHash: hash, Role: domain.DefaultAdminRole}
	if err := s.repo.CreateAdmin(ctx, &u); err != nil {
		return false, err
	}
	return true, nil
}
