package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/redblue/internal/dependencies/clock"
	"github.com/mcoot/redblue/internal/model"
)

// RoleAdmin is the role claim carried by admin tokens
const RoleAdmin = "admin"

// Claims is the payload of every token the service issues
type Claims struct {
	GameID     model.GameID `json:"game_id,omitempty"`
	Role       string       `json:"role"`
	PlayerName string       `json:"player_name,omitempty"`
	jwt.RegisteredClaims
}

// PlayerIdentity is a validated player token
type PlayerIdentity struct {
	GameID     model.GameID
	Role       model.PlayerRole
	PlayerName string
}

// Config holds configuration for the auth service
type Config struct {
	Secret        string
	TokenDuration time.Duration
	AdminPassword string
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenDuration: 24 * time.Hour,
	}
}

// Service issues and validates player and admin tokens
type Service struct {
	clock         clock.Clock
	secret        []byte
	tokenDuration time.Duration
	adminHash     []byte
}

// New creates a new auth Service. The admin password is hashed immediately and never kept.
func New(clock clock.Clock, cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = DefaultConfig().TokenDuration
	}

	s := &Service{
		clock:         clock,
		secret:        []byte(cfg.Secret),
		tokenDuration: cfg.TokenDuration,
	}
	if cfg.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		s.adminHash = hash
	}
	return s, nil
}

// IssuePlayerToken creates a token scoped to one seat of one game
func (s *Service) IssuePlayerToken(gameID model.GameID, role model.PlayerRole, name string) (string, error) {
	return s.sign(Claims{
		GameID:     gameID,
		Role:       string(role),
		PlayerName: name,
	})
}

// ValidatePlayerToken checks a player token and that it belongs to the given game
func (s *Service) ValidatePlayerToken(tokenString string, gameID model.GameID) (*PlayerIdentity, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	role := model.PlayerRole(claims.Role)
	if !role.Valid() {
		return nil, model.ErrUnauthorized
	}
	if claims.GameID != gameID {
		return nil, model.ErrForbidden
	}
	return &PlayerIdentity{
		GameID:     claims.GameID,
		Role:       role,
		PlayerName: claims.PlayerName,
	}, nil
}

// AdminLogin exchanges the admin password for an admin token
func (s *Service) AdminLogin(password string) (string, error) {
	if s.adminHash == nil {
		return "", model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		return "", model.ErrInvalidCredentials
	}
	return s.sign(Claims{Role: RoleAdmin})
}

// ValidateAdminToken checks that a token carries the admin role
func (s *Service) ValidateAdminToken(tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if claims.Role != RoleAdmin {
		return model.ErrForbidden
	}
	return nil
}

func (s *Service) sign(claims Claims) (string, error) {
	now := s.clock.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.tokenDuration))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, model.ErrUnauthorized
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, model.ErrUnauthorized
	}
	return claims, nil
}
