package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// ServerDocumentKey names the server's post collection in SQL backends.
	ServerDocumentKey = "posts"
	// ClientDocumentKey names the client's local cache.
	ClientDocumentKey = "ed_blog_posts_v1"

	defaultPort           = 4000
	defaultDataURL        = "file://data/posts.json"
	defaultCommentsPerMin = 20
	defaultClientTimeout  = 5 * time.Second
	defaultPortAttempts   = 10
)

// Logging holds settings shared by every binary.
type Logging struct {
	Environment string
	Level       string
}

// Server configures cmd/server.
type Server struct {
	Port           int
	PortAttempts   int
	DataURL        string
	AdminToken     string
	CORSOrigin     string
	CommentsPerMin int
	Logging        Logging
}

// Client configures the command line client.
type Client struct {
	RemoteURL  string
	AdminToken string
	LocalURL   string
	Timeout    time.Duration
	Logging    Logging
}

// LoadDotEnv reads a .env file into the environment if one exists. It
// reports whether a file was found.
func LoadDotEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// LoadServer reads server settings from the environment.
func LoadServer() Server {
	return Server{
		Port:           getInt("PORT", defaultPort),
		PortAttempts:   getInt("PORT_ATTEMPTS", defaultPortAttempts),
		DataURL:        getString("DATA_URL", defaultDataURL),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		CORSOrigin:     getString("CORS_ORIGIN", "*"),
		CommentsPerMin: getInt("COMMENT_RATE_PER_MIN", defaultCommentsPerMin),
		Logging:        loadLogging(),
	}
}

// Validate fails closed: a server without an admin token would reject every
// admin request, so it refuses to start instead.
func (s Server) Validate() error {
	var errs []error
	if s.AdminToken == "" {
		errs = append(errs, errors.New("ADMIN_TOKEN must be set"))
	}
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, errors.New("PORT must be between 1 and 65535"))
	}
	if s.PortAttempts < 1 {
		errs = append(errs, errors.New("PORT_ATTEMPTS must be at least 1"))
	}
	if s.DataURL == "" {
		errs = append(errs, errors.New("DATA_URL must not be empty"))
	}
	if s.CommentsPerMin <= 0 {
		errs = append(errs, errors.New("COMMENT_RATE_PER_MIN must be positive"))
	}
	return errors.Join(errs...)
}

// LoadClient reads client settings from the environment. An empty RemoteURL
// means the client works against its local store only.
func LoadClient() Client {
	return Client{
		RemoteURL:  os.Getenv("THREADLINE_REMOTE_URL"),
		AdminToken: os.Getenv("THREADLINE_ADMIN_TOKEN"),
		LocalURL:   getString("THREADLINE_LOCAL_URL", defaultLocalURL()),
		Timeout:    getDuration("THREADLINE_TIMEOUT", defaultClientTimeout),
		Logging:    loadLogging(),
	}
}

func (c Client) Validate() error {
	var errs []error
	if c.LocalURL == "" {
		errs = append(errs, errors.New("THREADLINE_LOCAL_URL must not be empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("THREADLINE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// RemoteConfigured reports whether the client should try the remote store.
func (c Client) RemoteConfigured() bool {
	return c.RemoteURL != ""
}

func loadLogging() Logging {
	return Logging{
		Environment: getString("APP_ENV", "development"),
		Level:       getString("LOG_LEVEL", "info"),
	}
}

func defaultLocalURL() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "file://.threadline/posts.json"
	}
	return "file://" + filepath.Join(home, ".threadline", "posts.json")
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
