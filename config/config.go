package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port string

	ContentApiURL  string // Base URL of the content service (signed playback URLs)
	ContentApiKey  string
	ProgressApiURL string // Base URL of the learning API (completion mutations)

	HttpTimeoutSec int // Timeout for outbound resolver/mutation calls

	ControlsHideDelayMs  int // Inactivity window before player controls auto-hide
	ProgressThrottleMs   int // Minimum interval between accepted progress updates
	SessionIdleTTLMin    int // Idle minutes before the reaper closes a session
	SourceExpirySlackSec int // Slack subtracted from signed URL expiry checks
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	// Initialize AppConfig with values from environment variables
	AppConfig = &Config{
		Port: getEnv("PORT", "3000"),

		ContentApiURL:  getEnv("CONTENT_API_URL", "https://api.learn.example.com/content"),
		ContentApiKey:  getEnv("CONTENT_API_KEY", "defaultSecret"),
		ProgressApiURL: getEnv("PROGRESS_API_URL", "https://api.learn.example.com/learning"),

		HttpTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 15),

		ControlsHideDelayMs:  getEnvInt("CONTROLS_HIDE_DELAY_MS", 2000),
		ProgressThrottleMs:   getEnvInt("PROGRESS_THROTTLE_MS", 100),
		SessionIdleTTLMin:    getEnvInt("SESSION_IDLE_TTL_MIN", 30),
		SourceExpirySlackSec: getEnvInt("SOURCE_EXPIRY_SLACK_SEC", 30),
	}

	// Validate critical configuration
	if AppConfig.ContentApiKey == "defaultSecret" {
		log.Println("Warning: Using default CONTENT_API_KEY. Update it in your environment.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
