package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string // postgres://... in deployed envs, sqlite://pettie.db for local runs
	RedisURL            string
	SupabaseURL         string // storage host, e.g. https://<project>.supabase.co
	SupabaseSecretKey   string // service_role key; the anon key cannot write to storage
	ListingImagesBucket string
	ProfilePhotosBucket string
	SendinblueAPIKey    string // Brevo key for welcome and password reset emails
	MailFrom            string
	ResetBaseURL        string // link target for password reset emails
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	LogLevel            string
	LogFormat           string // console | json
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_URL", "sqlite://pettie.db")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("LISTING_IMAGES_BUCKET", "listing-images")
	viper.SetDefault("PROFILE_PHOTOS_BUCKET", "profile-photos")
	viper.SetDefault("MAIL_FROM", "noreply@pettie.app")
	viper.SetDefault("LOG_LEVEL", "info")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}
	logFormat := viper.GetString("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
		if env == "production" {
			logFormat = "json"
		}
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		RedisURL:            viper.GetString("REDIS_URL"),
		SupabaseURL:         viper.GetString("SUPABASE_URL"),
		SupabaseSecretKey:   viper.GetString("SUPABASE_SECRET_KEY"),
		ListingImagesBucket: viper.GetString("LISTING_IMAGES_BUCKET"),
		ProfilePhotosBucket: viper.GetString("PROFILE_PHOTOS_BUCKET"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		ResetBaseURL:        resetBaseURL(viper.GetString("RESET_BASE_URL")),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		LogFormat:           strings.ToLower(logFormat),
	}, nil
}

// IsProduction reports whether cookies and logs should use production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func resetBaseURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "https://pettie.app/reset-password"
	}
	return strings.TrimRight(s, "/")
}
