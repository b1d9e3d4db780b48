package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all runtime settings for the server.
type Config struct {
	Bind        string
	Port        int
	JoinBaseURL string

	MongoURI  string
	MongoDB   string
	RedisAddr string

	JWTSecret string
	AdminKey  string

	Verbose bool

	MinPlayers     int
	MaxPlayers     int
	MaxRounds      int
	ScoreThreshold int
	ClueTimeout    time.Duration
	RoomGrace      time.Duration
	Language       string
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret must not be empty")
	}
	if c.MinPlayers < 3 {
		return fmt.Errorf("min players must be at least 3, got %d", c.MinPlayers)
	}
	if c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("max players (%d) must not be less than min players (%d)", c.MaxPlayers, c.MinPlayers)
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("max rounds must be at least 1, got %d", c.MaxRounds)
	}
	return nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
