package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Env is the runtime configuration. Keys are the lower-cased environment
// variable names, so APP_ADDR and "app_addr" in the YAML file are the same key.
type Env struct {
	Port    string `koanf:"port"`
	AppAddr string `koanf:"app_addr"`
	GinMode string `koanf:"gin_mode"`

	DatabaseURL string `koanf:"database_url"`
	DBDriver    string `koanf:"db_driver"`
	AutoMigrate bool   `koanf:"auto_migrate"`

	SupabaseURL            string `koanf:"supabase_url"`
	SupabaseServiceRoleKey string `koanf:"supabase_service_role_key"`
	SupabaseAnonKey        string `koanf:"supabase_anon_key"`
	SupabaseJWTSecret      string `koanf:"supabase_jwt_secret"`
	StorageBucket          string `koanf:"storage_bucket"`

	OpenAIAPIKey      string        `koanf:"openai_api_key"`
	AnthropicAPIKey   string        `koanf:"anthropic_api_key"`
	LLMProvider       string        `koanf:"llm_provider"`
	LLMModel          string        `koanf:"llm_model"`
	LLMTimeout        time.Duration `koanf:"llm_timeout"`
	LLMMaxTokens      int           `koanf:"llm_max_tokens"`
	GenerationWorkers int           `koanf:"generation_workers"`
	AIRatePerMinute   int           `koanf:"ai_rate_per_minute"`

	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
	LogLevel           string `koanf:"log_level"`
	LogFormat          string `koanf:"log_format"`
}

const configFileEnvVar = "CONFIG_FILE"

func defaultEnv() Env {
	return Env{
		Port:              "5000",
		DBDriver:          "pgx",
		StorageBucket:     "atlas-images",
		LLMProvider:       "openai",
		LLMTimeout:        90 * time.Second,
		LLMMaxTokens:      4096,
		GenerationWorkers: 2,
		AIRatePerMinute:   20,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// LoadEnv layers defaults, the optional CONFIG_FILE and the process environment.
func LoadEnv() (Env, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultEnv(), "koanf"), nil); err != nil {
		return Env{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := strings.TrimSpace(os.Getenv(configFileEnvVar)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Env{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Empty variables are skipped so they do not blank out defaults or file values.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Env{}, fmt.Errorf("load environment: %w", err)
	}

	var out Env
	if err := k.Unmarshal("", &out); err != nil {
		return Env{}, fmt.Errorf("unmarshal config: %w", err)
	}
	out.normalize()
	if err := out.Validate(); err != nil {
		return Env{}, err
	}
	return out, nil
}

func (e *Env) normalize() {
	e.AppAddr = strings.TrimSpace(e.AppAddr)
	if e.AppAddr == "" {
		port := strings.TrimSpace(e.Port)
		if port == "" {
			port = "5000"
		}
		e.AppAddr = ":" + strings.TrimPrefix(port, ":")
	}
	e.DBDriver = strings.ToLower(strings.TrimSpace(e.DBDriver))
	if e.DBDriver == "postgres" || e.DBDriver == "postgresql" {
		e.DBDriver = "pgx"
	}
	e.LLMProvider = strings.ToLower(strings.TrimSpace(e.LLMProvider))
	e.SupabaseURL = strings.TrimRight(strings.TrimSpace(e.SupabaseURL), "/")
	if e.GenerationWorkers < 1 {
		e.GenerationWorkers = 1
	}
	if e.LLMTimeout <= 0 {
		e.LLMTimeout = 90 * time.Second
	}
}

// Validate rejects combinations the server cannot start with.
func (e Env) Validate() error {
	switch e.DBDriver {
	case "pgx", "mysql":
	default:
		return fmt.Errorf("db_driver %q not supported (pgx, mysql)", e.DBDriver)
	}
	switch e.LLMProvider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm_provider %q not supported (openai, anthropic)", e.LLMProvider)
	}
	return nil
}

// LLMAPIKey returns the key of the configured provider.
func (e Env) LLMAPIKey() string {
	if e.LLMProvider == "anthropic" {
		return e.AnthropicAPIKey
	}
	return e.OpenAIAPIKey
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS, falling back to the local dev servers.
func (e Env) AllowedOrigins() []string {
	if strings.TrimSpace(e.CORSAllowedOrigins) == "" {
		return []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}
	}
	out := []string{}
	for _, o := range strings.Split(e.CORSAllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// PublicObjectURL resolves a storage object path to its public bucket URL.
// Absolute URLs and empty paths are returned unchanged.
func (e Env) PublicObjectURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if e.SupabaseURL == "" {
		return path
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", e.SupabaseURL, e.StorageBucket, strings.TrimLeft(path, "/"))
}
