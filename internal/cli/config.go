package cli

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL      string
	Token          string
	TokenFile      string
	AdminToken     string
	AdminTokenFile string
	Output         string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      getEnvOrDefault("REDBLUE_SERVER", "http://localhost:8000"),
		Token:          os.Getenv("REDBLUE_TOKEN"),
		TokenFile:      getEnvOrDefault("REDBLUE_TOKEN_FILE", defaultFile("token")),
		AdminToken:     os.Getenv("REDBLUE_ADMIN_TOKEN"),
		AdminTokenFile: getEnvOrDefault("REDBLUE_ADMIN_TOKEN_FILE", defaultFile("admin_token")),
		Output:         "text",
	}
}

// LoadTokens loads the player and admin tokens from their files if not already set
func (c *Config) LoadTokens() error {
	var err error
	if c.Token == "" {
		if c.Token, err = readToken(c.TokenFile); err != nil {
			return err
		}
	}
	if c.AdminToken == "" {
		if c.AdminToken, err = readToken(c.AdminTokenFile); err != nil {
			return err
		}
	}
	return nil
}

// SaveToken saves the player token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token
	return writeToken(c.TokenFile, token)
}

// SaveAdminToken saves the admin token to the admin token file
func (c *Config) SaveAdminToken(token string) error {
	c.AdminToken = token
	return writeToken(c.AdminTokenFile, token)
}

func readToken(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil // No token file is fine
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func writeToken(path, token string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(token), 0600)
}

func defaultFile(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".redblue", name)
	}
	return filepath.Join(home, ".redblue", name)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
