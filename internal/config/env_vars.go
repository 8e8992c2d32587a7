package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	apiBaseURLVar  = "API_BASE_URL"
	appNameVar     = "APP_NAME"
	credentialsVar = "CREDENTIALS_FILE"
	httpTimeoutVar = "HTTP_TIMEOUT"

	// Where the API lives when no override is set. The local default is a
	// development server; anything other than DEV points at the hosted
	// deployment.
	localBaseURL  = "http://localhost:8000"
	hostedBaseURL = "https://api.parishhub.org"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetAPIBaseURL returns the base URL all API requests are built against.
// API_BASE_URL overrides the environment-selected default.
func (e EnvVars) GetAPIBaseURL() string {
	if override := os.Getenv(apiBaseURLVar); override != "" {
		return override
	}
	if e.GetEnv() == "DEV" {
		return localBaseURL
	}
	return hostedBaseURL
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Parish Client")
}

// GetHTTPTimeout returns the per-request timeout for the gateway.
func (EnvVars) GetHTTPTimeout() time.Duration {
	raw := GetEnv(httpTimeoutVar, "30s")
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return 30 * time.Second
	}
	return timeout
}

// GetCredentialsPath returns where the file-backed credential store lives.
func (EnvVars) GetCredentialsPath() string {
	if path := os.Getenv(credentialsVar); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parish-client/credentials.json"
	}
	return filepath.Join(home, ".parish-client", "credentials.json")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
