package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"dieselhub/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin is the only role issued today
const RoleAdmin = "admin"

const issuer = "dieselhub"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginDisabled      = errors.New("admin login is disabled: JWT_SECRET is not set")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service checks admin credentials and issues admin session tokens
type Service struct {
	adminToken     string
	adminTokenHash string
	jwtSecret      []byte
	accessDuration time.Duration
	now            func() time.Time
}

// NewService creates a new auth service
func NewService(cfg *config.Config) *Service {
	return &Service{
		adminToken:     cfg.AdminToken,
		adminTokenHash: cfg.AdminTokenHash,
		jwtSecret:      []byte(cfg.JWTSecret),
		accessDuration: cfg.JWTDuration,
		now:            time.Now,
	}
}

// LoginRequest represents login request data
type LoginRequest struct {
	Token string `json:"token" validate:"required,max=512"`
}

// LoginResponse represents login response data
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	Role string `json:"role"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// CheckAdminToken compares token with ADMIN_TOKEN_HASH (bcrypt) when set, else with ADMIN_TOKEN.
// With neither configured every token is rejected.
func (s *Service) CheckAdminToken(token string) bool {
	if token == "" {
		return false
	}
	if s.adminTokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.adminTokenHash), []byte(token)) == nil
	}
	if s.adminToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) == 1
}

// Login exchanges the admin token for a signed access token
func (s *Service) Login(req LoginRequest) (*LoginResponse, error) {
	if len(s.jwtSecret) == 0 {
		return nil, ErrLoginDisabled
	}
	if !s.CheckAdminToken(req.Token) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.generateAccessToken()
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.accessDuration.Seconds()),
	}, nil
}

// ValidateToken validates and parses an access token
func (s *Service) ValidateToken(tokenString string) (*TokenClaims, error) {
	if len(s.jwtSecret) == 0 {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.Type != "access" || claims.Role != RoleAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashToken returns a bcrypt hash suitable for ADMIN_TOKEN_HASH
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) generateAccessToken() (string, error) {
	now := s.now()
	claims := TokenClaims{
		Role: RoleAdmin,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   RoleAdmin,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
