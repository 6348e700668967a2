package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret   string   `mapstructure:"JWT_SECRET"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Heatmap pipeline sources.
	BaseJSONDir    string `mapstructure:"APP_BASE_JSON_DIR"`
	CSVPointsPath  string `mapstructure:"APP_CSV_POINTS_PATH"`
	CSVStateCol    string `mapstructure:"APP_CSV_STATE_COL"`
	CSVDistrictCol string `mapstructure:"APP_CSV_DISTRICT_COL"`
	CSVLatCol      string `mapstructure:"APP_CSV_LAT_COL"`
	CSVLonCol      string `mapstructure:"APP_CSV_LON_COL"`

	// Hugging Face inference.
	HFAPIURL           string `mapstructure:"HF_API_URL"`
	HFAPIToken         string `mapstructure:"HF_API_TOKEN"`
	HFChatbotModel     string `mapstructure:"HF_CHATBOT_MODEL_ID"`
	HFTranslationModel string `mapstructure:"HF_TRANSLATION_MODEL_ID"`
	LanguageMapFile    string `mapstructure:"APP_LANGUAGE_MAP_FILE"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
}

// DefaultCSVPointsURL is the published district point dataset used when no
// local CSV is configured.
const DefaultCSVPointsURL = "https://github.com/Ved-Dixit/GoMedCamp/releases/download/coordinates/Ind_adm2_Points.csv"

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5001")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("APP_BASE_JSON_DIR", "json/")
	v.SetDefault("APP_CSV_POINTS_PATH", DefaultCSVPointsURL)
	v.SetDefault("HF_API_URL", "https://api-inference.huggingface.co")
	v.SetDefault("HF_CHATBOT_MODEL_ID", "gpt2")
	v.SetDefault("HF_TRANSLATION_MODEL_ID", "facebook/nllb-200-distilled-600M")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("METRICS_ENABLED", true)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("APP_BASE_JSON_DIR")
	v.BindEnv("APP_CSV_POINTS_PATH")
	v.BindEnv("APP_CSV_STATE_COL")
	v.BindEnv("APP_CSV_DISTRICT_COL")
	v.BindEnv("APP_CSV_LAT_COL")
	v.BindEnv("APP_CSV_LON_COL")
	v.BindEnv("HF_API_URL")
	v.BindEnv("HF_API_TOKEN")
	v.BindEnv("HF_CHATBOT_MODEL_ID")
	v.BindEnv("HF_TRANSLATION_MODEL_ID")
	v.BindEnv("APP_LANGUAGE_MAP_FILE")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("METRICS_ENABLED")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: X-User-Id header identity is accepted without a token.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure JWT_SECRET for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Production requires a
// real JWT secret; development falls back to a fixed local-only secret.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production " +
			"(development mode uses a fixed local-only secret)")
	}
	if c.BaseJSONDir == "" {
		return fmt.Errorf("APP_BASE_JSON_DIR must not be empty")
	}
	if c.CSVPointsPath == "" {
		return fmt.Errorf("APP_CSV_POINTS_PATH must not be empty")
	}
	return nil
}

// EffectiveJWTSecret returns the configured secret, or the development
// fallback when unset outside production.
func (c *Config) EffectiveJWTSecret() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	return "medcamp-dev-secret"
}
