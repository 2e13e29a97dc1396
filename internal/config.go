package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/protweight/internal/boundcache"
	"github.com/starford/protweight/internal/bounds"
	"github.com/starford/protweight/internal/queryservice"
	"github.com/starford/protweight/internal/search"
	"github.com/starford/protweight/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Graphs GraphsConfig      `yaml:"graphs"`
	Cache  CacheConfig       `yaml:"cache"`
	Query  QueryConfig       `yaml:"query"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Graphs.Validate(); err != nil {
		return fmt.Errorf("graphs: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Query.Validate(); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel        slog.Level    `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	HTTP            HTTPConfig    `yaml:"http"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// EventThrottle is the minimum gap between coalesced SSE events.
	EventThrottle time.Duration `yaml:"event_throttle"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.EventThrottle, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// GraphsConfig locates the protein graph directory.
type GraphsConfig struct {
	Path   string `yaml:"path"`
	Layout string `yaml:"layout"`
	// Watch invalidates cached bounds when graph files change.
	Watch bool `yaml:"watch"`
}

// Validate validates the graph directory configuration.
func (c *GraphsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Layout, validation.Required, validation.In(string(storage.Nested), string(storage.Flat))),
	)
}

// Bound store drivers.
const (
	CacheDriverSQLite = "sqlite"
	CacheDriverBadger = "badger"
	CacheDriverMemory = "memory"
)

// CacheConfig configures the bound cache and its persistent store.
type CacheConfig struct {
	Driver     string `yaml:"driver"`
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// Validate validates the cache configuration. A badger store without a path
// runs fully in memory; sqlite always needs one.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(CacheDriverSQLite, CacheDriverBadger, CacheDriverMemory)),
		validation.Field(&c.Path, validation.When(c.Driver == CacheDriverSQLite, validation.Required)),
		validation.Field(&c.MaxEntries, validation.Min(0)),
	)
}

// QueryConfig holds the weight query defaults.
type QueryConfig struct {
	// WeightFactor scales daltons into the units of graph edge weights.
	WeightFactor     float64       `yaml:"weight_factor"`
	DefaultK         int           `yaml:"default_k"`
	DefaultTimeout   time.Duration `yaml:"default_timeout"`
	MaxTimeout       time.Duration `yaml:"max_timeout"`
	DefaultAlgorithm string        `yaml:"default_algorithm"`
	VariantType      string        `yaml:"variant_type"`
	VariantLimit     int           `yaml:"variant_limit"`
}

func knownAlgorithm(value any) error {
	s, _ := value.(string)
	if _, err := search.Parse(s); err != nil {
		return errors.New("unknown algorithm")
	}
	return nil
}

// Validate validates the query configuration.
func (c *QueryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.WeightFactor, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.DefaultK, validation.Required, validation.Min(1)),
		validation.Field(&c.DefaultTimeout, validation.Required, validation.Min(time.Duration(0)).Exclusive()),
		validation.Field(&c.MaxTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.DefaultAlgorithm, validation.Required, validation.By(knownAlgorithm)),
		validation.Field(&c.VariantType, validation.Required),
		validation.Field(&c.VariantLimit, validation.Min(0)),
	)
}

// Settings converts the section into query service settings.
func (c *QueryConfig) Settings() queryservice.Settings {
	return queryservice.Settings{
		WeightFactor:     c.WeightFactor,
		DefaultK:         c.DefaultK,
		DefaultTimeout:   c.DefaultTimeout,
		MaxTimeout:       c.MaxTimeout,
		DefaultAlgorithm: search.Strategy(c.DefaultAlgorithm),
		VariantType:      c.VariantType,
		VariantLimit:     c.VariantLimit,
	}
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8000,
			},
			ShutdownTimeout: 10 * time.Second,
			EventThrottle:   2 * time.Second,
		},
		Graphs: GraphsConfig{
			Path:   "./graphs",
			Layout: string(storage.Nested),
			Watch:  true,
		},
		Cache: CacheConfig{
			Driver:     CacheDriverSQLite,
			Path:       "./protweight.db",
			MaxEntries: boundcache.DefaultMaxEntries,
		},
		Query: QueryConfig{
			WeightFactor:     1,
			DefaultK:         bounds.DefaultK,
			DefaultTimeout:   10000 * time.Second,
			DefaultAlgorithm: string(search.TopSort),
			VariantType:      search.DefaultVariantType,
			VariantLimit:     search.DefaultVariantLimit,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
