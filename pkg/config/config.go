package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the immutable application configuration, read once at
// startup from the environment.
type Config struct {
	Port string

	// LLM
	LLMProvider   string // "openai", "gemini", "mock"
	LLMModel      string
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string

	// Providers
	PlacesKey       string
	OverpassBaseURL string
	UserAgent       string

	// Timeouts & caching
	HTTPTimeout time.Duration
	LLMTimeout  time.Duration
	GeoCacheTTL time.Duration

	// Pipeline tuning
	RadiusSteps       []int
	MaxPOIDistanceM   float64
	MaxCandidates     int
	MinFacts          int
	MinYearAnchors    int
	MaxFacts          int
	MinScoreToSpeak   float64 // boost-minus-distance threshold; 0 disables
	DistanceStepM     int
	MinWords          int
	MaxWords          int
	CORSAllowOrigins  []string

	// Storage & logging
	DBPath   string
	LogLevel string
	LogFile  string

	Denylists Denylists
}

// Load reads configuration from the environment. Missing values fall back
// to defaults; only malformed numeric values fail.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            envStr("PORT", "8080"),
		LLMProvider:     envStr("LLM_PROVIDER", "openai"),
		LLMModel:        envStr("LLM_MODEL", ""),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   envStr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiKey:       os.Getenv("GEMINI_API_KEY"),
		PlacesKey:       os.Getenv("GOOGLE_PLACES_API_KEY"),
		OverpassBaseURL: envStr("OVERPASS_BASE_URL", "https://overpass-api.de/api/interpreter"),
		UserAgent:       envStr("OSM_USER_AGENT", "geotale/0.4 (contact: ops@geotale.app)"),
		DBPath:          os.Getenv("DB_PATH"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		LogFile:         os.Getenv("LOG_FILE"),
	}

	var err error
	if cfg.HTTPTimeout, err = envMs("HTTP_TIMEOUT_MS", 6500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = envMs("LLM_TIMEOUT_MS", 14*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeoCacheTTL, err = envMs("GEO_CACHE_TTL_MS", 6*time.Hour); err != nil {
		return nil, err
	}

	if cfg.MaxCandidates, err = envInt("POI_MAX_CANDIDATES", 18); err != nil {
		return nil, err
	}
	if cfg.MinWords, err = envInt("BTW_MIN_WORDS", 180); err != nil {
		return nil, err
	}
	if cfg.MaxWords, err = envInt("BTW_MAX_WORDS", 340); err != nil {
		return nil, err
	}
	if cfg.MinScoreToSpeak, err = envFloat("MIN_POI_SCORE_TO_SPEAK", 0); err != nil {
		return nil, err
	}

	maxRadius, err := envInt("POI_RADIUS_METERS", 2400)
	if err != nil {
		return nil, err
	}
	if maxRadius > 2500 {
		maxRadius = 2500
	}
	cfg.RadiusSteps = radiusSteps(maxRadius)

	cfg.MaxPOIDistanceM = 2200
	cfg.MinFacts = 10
	cfg.MinYearAnchors = 2
	cfg.MaxFacts = 22
	cfg.DistanceStepM = 50

	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, o)
			}
		}
	} else {
		cfg.CORSAllowOrigins = []string{"*"}
	}

	cfg.Denylists = DefaultDenylists()
	if path := os.Getenv("DENYLIST_FILE"); path != "" {
		if err := cfg.Denylists.LoadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load denylist file: %w", err)
		}
	}

	return cfg, nil
}

// radiusSteps returns the expanding-radius schedule capped at maxRadius.
// The sequence is strictly increasing and never exceeds 2500m.
func radiusSteps(maxRadius int) []int {
	base := []int{500, 900, 1500, 2400}
	var steps []int
	for _, r := range base {
		if r <= maxRadius {
			steps = append(steps, r)
		}
	}
	if len(steps) == 0 {
		steps = []int{maxRadius}
	}
	return steps
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func envMs(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(n) * time.Millisecond, nil
}
