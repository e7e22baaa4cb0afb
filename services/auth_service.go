package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fogna/football-stats/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtClaimRole      = "role"
	jwtClaimSessionID = "sid"
)

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	ParseToken(token string) (*models.Session, error)
}

type LoginInput struct {
	Role     models.UserRole `json:"role"`
	Password string          `json:"password"`
}

type LoginResult struct {
	Token   string         `json:"token"`
	Session models.Session `json:"session"`
}

// AuthConfig: пароли в открытом виде хешируются при старте, *Hash используются как есть.
type AuthConfig struct {
	Secret             string
	TTL                time.Duration
	AdminPassword      string
	AdminPasswordHash  string
	ViewerPassword     string
	ViewerPasswordHash string
	BcryptCost         int
}

type authService struct {
	secret []byte
	ttl    time.Duration
	hashes map[models.UserRole][]byte
	now    func() time.Time
}

func NewAuthService(cfg AuthConfig) (AuthService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	admin, err := resolveHash(cfg.AdminPassword, cfg.AdminPasswordHash, cost)
	if err != nil {
		return nil, fmt.Errorf("admin password: %w", err)
	}
	viewer, err := resolveHash(cfg.ViewerPassword, cfg.ViewerPasswordHash, cost)
	if err != nil {
		return nil, fmt.Errorf("viewer password: %w", err)
	}

	return &authService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		hashes: map[models.UserRole][]byte{
			models.RoleAdmin:  admin,
			models.RoleViewer: viewer,
		},
		now: time.Now,
	}, nil
}

func resolveHash(plain, hash string, cost int) ([]byte, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
		}
		return []byte(hash), nil
	}
	if plain == "" {
		return nil, errors.New("password or hash is required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return hashed, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	role := models.UserRole(strings.ToLower(strings.TrimSpace(string(input.Role))))
	hash, ok := s.hashes[role]
	if !ok || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	issued := s.now().UTC().Truncate(time.Second)
	session := models.Session{
		ID:            uuid.NewString(),
		Role:          role,
		Authenticated: true,
		IssuedAt:      issued,
		ExpiresAt:     issued.Add(s.ttl),
	}

	claims := jwt.MapClaims{
		jwtClaimRole:      string(session.Role),
		jwtClaimSessionID: session.ID,
		"iat":             session.IssuedAt.Unix(),
		"exp":             session.ExpiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &LoginResult{Token: token, Session: session}, nil
}

func (s *authService) ParseToken(tokenString string) (*models.Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrAuthenticationFailed)
	}
	// токен без exp не принимаем
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return nil, fmt.Errorf("%w: token has no valid expiry", ErrAuthenticationFailed)
	}

	roleStr, _ := claims[jwtClaimRole].(string)
	role := models.UserRole(roleStr)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role claim %q", ErrAuthenticationFailed, roleStr)
	}
	sid, _ := claims[jwtClaimSessionID].(string)
	if sid == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrAuthenticationFailed)
	}

	session := &models.Session{ID: sid, Role: role, Authenticated: true}
	if iat, ok := claims["iat"].(float64); ok {
		session.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := claims["exp"].(float64); ok {
		session.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return session, nil
}
