package service

import (
	"errors"
	"time"

	"impostorparty/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService consumes verified player identity tokens. It can also
// mint guest identities so the server is usable without an upstream
// identity provider.
type AuthService struct {
	jwtSecret []byte
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{jwtSecret: []byte(secret)}
}

// IssueGuestIdentity mints an identity token for an anonymous player.
func (s *AuthService) IssueGuestIdentity(name, avatarURL string) (*model.TokenResponse, error) {
	playerID := "p_" + uuid.New().String()[:8]

	claims := &model.IdentityClaims{
		PlayerID:  playerID,
		Name:      name,
		AvatarURL: avatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{Token: tokenString, PlayerID: playerID}, nil
}

// ValidateIdentityToken validates an identity JWT and returns claims.
func (s *AuthService) ValidateIdentityToken(tokenString string) (*model.IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.IdentityClaims)
	if !ok || !token.Valid || claims.PlayerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Identity converts validated claims into the player identity the
// game layer works with.
func (s *AuthService) Identity(claims *model.IdentityClaims) model.PlayerIdentity {
	return model.PlayerIdentity{
		ID:        claims.PlayerID,
		Name:      claims.Name,
		AvatarURL: claims.AvatarURL,
	}
}
