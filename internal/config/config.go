package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full set of environment-driven settings for the server.
type Config struct {
	ListenAddr string

	MongoURI string
	DBName   string

	ShodanAPIKey string
	GeminiAPIKey string
	GroqAPIKey   string

	CTLogTimeout     time.Duration
	DNSTimeout       time.Duration
	ExposureTimeout  time.Duration
	LLMTimeout       time.Duration
	DBSelectTimeout  time.Duration
	MaxSubdomains    int
	ResolverWorkers  int
	ExposureWorkers  int
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load reads process environment variables, optionally sourced from a
// .env file. A missing .env file is not an error — only Docker/CI
// deployments rely on it; production exports real environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return &Config{
		ListenAddr: getEnvOrDefault("LISTEN_ADDR", ":8080"),

		MongoURI: os.Getenv("MONGO_URI"),
		DBName:   getEnvOrDefault("DB_NAME", "attack_surface_db"),

		ShodanAPIKey: os.Getenv("SHODAN_API_KEY"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),

		CTLogTimeout:    20 * time.Second,
		DNSTimeout:      5 * time.Second,
		ExposureTimeout: 10 * time.Second,
		LLMTimeout:      45 * time.Second,
		DBSelectTimeout: 5 * time.Second,
		MaxSubdomains:   15,
		ResolverWorkers: 10,
		ExposureWorkers: 5,
	}, nil
}
