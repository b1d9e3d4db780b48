package model

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims is the verified player identity token payload. Who
// issues it is out of scope here; the server only consumes it.
type IdentityClaims struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	jwt.RegisteredClaims
}

// TokenResponse is returned by the guest-identity endpoint.
type TokenResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
}
