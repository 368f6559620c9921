package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"artmarket/internal/models"
	"artmarket/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

// ErrInvalidToken is returned for any token that does not identify a known user.
var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService verifies bearer tokens and resolves them to an identity.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
		logger:     logger,
	}
}

// IssueToken signs a token for user. Production tokens come from the
// identity service; this is used for seeded demo accounts.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// ResolveIdentity validates the token and loads the user it names.
func (s *AuthService) ResolveIdentity(ctx context.Context, tokenString string) (models.Identity, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return models.Identity{}, err
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return models.Identity{}, fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			s.logger.Warn("token for unknown user", zap.String("user_id", userID))
			return models.Identity{}, fmt.Errorf("%w: unknown user", ErrInvalidToken)
		}
		return models.Identity{}, err
	}
	return models.IdentityOf(user), nil
}
