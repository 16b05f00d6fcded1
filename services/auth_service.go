package services

import (
	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/repositories"
	"context"
	"fmt"
)

// AuthService is the server side of authentication: it checks passwords against
// the user store and issues tokens.
type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.Tokens
}

func NewAuthService(repo repositories.IUserRepository, tokens *auth.Tokens) *AuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(_ context.Context, email, password string) (domain.Identity, string, error) {
	valReq := auth.RegisterRequest{
		Email:    email,
		Password: password,
	}

	// 1. Validate business rules (email format, password complexity)
	// We check this before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return domain.Identity{}, "", err
	}

	// 2. Hash the password using Argon2id
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.Identity{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash
	user, err := s.userRepository.CreateUser(email, hashedPassword, "")
	if err != nil {
		return domain.Identity{}, "", err // ErrUserAlreadyExists if email is taken
	}

	// 4. Generate the initial session token
	token, err := s.tokens.GenerateToken(user.ID, user.Roles)
	if err != nil {
		return domain.Identity{}, "", errors.ErrTokenGeneration
	}
	return user.Identity(), token, nil
}

func (s *AuthService) Login(_ context.Context, email, password string) (domain.Identity, string, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if errors.Is(err, errors.ErrUserNotFound) {
		// Generic error to prevent user enumeration attacks
		return domain.Identity{}, "", errors.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Identity{}, "", errors.Network("load user", err)
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.Identity{}, "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Roles)
	if err != nil {
		return domain.Identity{}, "", errors.ErrTokenGeneration
	}
	return user.Identity(), token, nil
}

// Resume returns the identity a still valid token was issued for.
func (s *AuthService) Resume(_ context.Context, token string) (domain.Identity, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return domain.Identity{}, errors.ErrInvalidCredentials
	}
	user, err := s.userRepository.GetUserByEmail(claims.UserID)
	if errors.Is(err, errors.ErrUserNotFound) {
		return domain.Identity{}, errors.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Identity{}, errors.Network("load user", err)
	}
	return user.Identity(), nil
}
