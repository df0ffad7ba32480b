package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/Mielola/api-photobooth/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// BootstrapAdmin makes sure the given admin account exists. Called at
// startup so a fresh install can log in without any manual seeding.
func (s *BoothService) BootstrapAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.store.CreateUser(ctx, domain.User{Email: email, PasswordHash: hash}); err != nil {
		return err
	}
	s.log.Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}

// Login verifies credentials and issues a fresh API token. Only the
// sha256 hash is stored; the plaintext goes back to the caller once.
func (s *BoothService) Login(ctx context.Context, email, password, tokenName string) (domain.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	plain, hash, err := newTokenPair()
	if err != nil {
		return domain.User{}, "", err
	}
	if strings.TrimSpace(tokenName) == "" {
		tokenName = "booth"
	}
	if _, err := s.store.CreateAPIToken(ctx, domain.APIToken{
		UserID:    user.ID,
		Name:      tokenName,
		TokenHash: hash,
	}); err != nil {
		return domain.User{}, "", err
	}
	return user, plain, nil
}

func (s *BoothService) AuthenticateToken(ctx context.Context, token string) (domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	apit, err := s.store.GetAPITokenByHash(ctx, hashToken(token))
	if err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	user, err := s.store.GetUserByID(ctx, apit.UserID)
	if err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *BoothService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.store.DeleteAPITokenByHash(ctx, hashToken(token))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}
