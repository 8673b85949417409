package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	tokenIssuer = "workflow-platform"

	useAccess  = "access"
	useRefresh = "refresh"
)

// Claims carried by platform tokens. Access tokens embed the user's profile
// fields so holders can be identified without a log read; refresh tokens carry
// only the subject. TokenUse keeps the two kinds from being swapped.
type Claims struct {
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	DefaultDomain string `json:"default_domain,omitempty"`
	TokenUse      string `json:"token_use"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies the platform's HS256 token pairs
type JWTService struct {
	secretKey     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewJWTService(secretKey string, accessExpiry, refreshExpiry time.Duration) *JWTService {
	return &JWTService{
		secretKey:     []byte(secretKey),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// GenerateAccessToken issues a short-lived token identifying the user
func (s *JWTService) GenerateAccessToken(userID, email, defaultDomain string) (string, time.Time, error) {
	return s.sign(Claims{
		UserID:        userID,
		Email:         email,
		DefaultDomain: defaultDomain,
		TokenUse:      useAccess,
	}, userID, s.accessExpiry)
}

// GenerateRefreshToken issues a long-lived token carrying only the user id
func (s *JWTService) GenerateRefreshToken(userID string) (string, time.Time, error) {
	return s.sign(Claims{TokenUse: useRefresh}, userID, s.refreshExpiry)
}

func (s *JWTService) sign(claims Claims, subject string, expiry time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(expiry)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies the signature, expiry, issuer, and use of an
// access token and returns its claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.parse(tokenString, useAccess)
}

// ValidateRefreshToken verifies a refresh token and returns the user id
func (s *JWTService) ValidateRefreshToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString, useRefresh)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *JWTService) parse(tokenString, use string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secretKey, nil
		},
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenUse != use {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
