package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nutrihub/server/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrDevDisabled  = errors.New("dev auth disabled")
)

// Service — сервис авторизации
type Service struct {
	config *config.Config
	now    func() time.Time
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		now:    time.Now,
	}
}

// SignInDev — dev-авторизация, выдает JWT на 30 дней
func (s *Service) SignInDev(ctx context.Context, req *DevTokenRequest) (*DevAuthResponse, error) {
	_ = ctx

	if s.config.AuthMode != "dev" {
		return nil, ErrDevDisabled
	}

	const devTTL = 30 * 24 * time.Hour

	userID := "dev-user"
	if req != nil {
		if trimmed := strings.TrimSpace(req.UserID); trimmed != "" {
			userID = trimmed
		}
	}

	accessToken, err := s.generateJWTWithTTL(userID, devTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev JWT: %w", err)
	}

	return &DevAuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(devTTL.Seconds()),
		UserID:      userID,
	}, nil
}

// GenerateJWT — генерация JWT токена со стандартным TTL
func (s *Service) GenerateJWT(userID string) (string, error) {
	return s.generateJWTWithTTL(userID, time.Duration(s.config.JWTTTLMinutes)*time.Minute)
}

func (s *Service) generateJWTWithTTL(userID string, ttl time.Duration) (string, error) {
	now := s.now()
	exp := now.Add(ttl)

	claims := jwt.MapClaims{
		"sub": userID,
		"iss": s.config.JWTIssuer,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT — проверка JWT токена
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})

	if err != nil {
		return "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok {
			return "", ErrInvalidToken
		}
		return sub, nil
	}

	return "", ErrInvalidToken
}
