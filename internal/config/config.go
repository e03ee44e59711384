package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	// DefaultJWTSecret only exists so development works without setup.
	// Load refuses it in production.
	DefaultJWTSecret = "leadsite-dev-secret-change-me"

	FunnelStoreSQLite = "sqlite"
	FunnelStoreMemory = "memory"
)

var ErrInsecureJWTSecret = errors.New("config: jwt_secret must be set to a non-default value in production")

type Config struct {
	HTTPAddr         string
	Env              string
	PublicBaseURL    string
	IntakeURL        string
	BodyLimit        int64
	DiagnosticPath   string
	DestinationPhone string
	SQLiteDSN        string
	JWTSecret        string
	AdminEmail       string
	AdminPassHash    string
	GelfAddr         string
	OTLPEndpoint     string
	SessionTTL       time.Duration
	FunnelStore      string

	Dispatcher DispatcherConfig
	Storage    StorageConfig
	Email      EmailConfig
	Messaging  MessagingConfig
}

type DispatcherConfig struct {
	Workers        int
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxElapsed     time.Duration
}

// StorageConfig selects the sheet-storage sink backend: "sheets", "oxidb" or
// empty for the log-only stub.
type StorageConfig struct {
	Backend               string
	SheetsSpreadsheetID   string
	SheetsRange           string
	SheetsCredentialsFile string
	OxiDBHost             string
	OxiDBPort             int
	PoolSize              int
}

type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
	To       string
}

// MessagingConfig selects the messaging sink provider: "whatsapp", "telegram"
// or empty for the log-only stub.
type MessagingConfig struct {
	Provider              string
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppAPIBase       string
	TelegramToken         string
	TelegramChatID        int64
}

var defaults = map[string]any{
	"addr":              ":8080",
	"env":               EnvDevelopment,
	"public_base_url":   "http://127.0.0.1:8080",
	"intake_url":        "",
	"body_limit":        int64(1 << 20),
	"diagnostic_path":   "leads-debug.jsonl",
	"destination_phone": "5571999999999",
	"sqlite_dsn":        "leadsite.db",
	"jwt_secret":        DefaultJWTSecret,
	"admin_email":       "admin@leadsite.local",
	"admin_pass_hash":   "",
	"gelf_addr":         "",
	"otlp_endpoint":     "",
	"session_ttl":       30 * time.Minute,
	"funnel_store":      FunnelStoreSQLite,

	"dispatcher.workers":         4,
	"dispatcher.queue_size":      256,
	"dispatcher.max_attempts":    3,
	"dispatcher.initial_backoff": 500 * time.Millisecond,
	"dispatcher.max_elapsed":     30 * time.Second,

	"storage.backend":                 "",
	"storage.sheets_spreadsheet_id":   "",
	"storage.sheets_range":            "Leads!A1",
	"storage.sheets_credentials_file": "",
	"storage.oxidb_host":              "127.0.0.1",
	"storage.oxidb_port":              4444,
	"storage.pool_size":               2,

	"email.smtp_host": "",
	"email.smtp_port": 587,
	"email.username":  "",
	"email.password":  "",
	"email.from":      "",
	"email.to":        "",

	"messaging.provider":                 "",
	"messaging.whatsapp_token":           "",
	"messaging.whatsapp_phone_number_id": "",
	"messaging.whatsapp_api_base":        "https://graph.facebook.com/v20.0",
	"messaging.telegram_token":           "",
	"messaging.telegram_chat_id":         int64(0),
}

// Load reads configuration from the environment (LEADSITE_*) and, when
// configFile is set, from that YAML file. Environment wins over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("LEADSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}
	cfg := fromViper(v)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && (strings.TrimSpace(c.JWTSecret) == "" || c.JWTSecret == DefaultJWTSecret) {
		return ErrInsecureJWTSecret
	}
	switch c.FunnelStore {
	case FunnelStoreSQLite, FunnelStoreMemory:
	default:
		return fmt.Errorf("config: unknown funnel_store %q", c.FunnelStore)
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		HTTPAddr:         v.GetString("addr"),
		Env:              strings.ToLower(v.GetString("env")),
		PublicBaseURL:    strings.TrimRight(v.GetString("public_base_url"), "/"),
		IntakeURL:        strings.TrimRight(v.GetString("intake_url"), "/"),
		BodyLimit:        v.GetInt64("body_limit"),
		DiagnosticPath:   v.GetString("diagnostic_path"),
		DestinationPhone: v.GetString("destination_phone"),
		SQLiteDSN:        v.GetString("sqlite_dsn"),
		JWTSecret:        v.GetString("jwt_secret"),
		AdminEmail:       v.GetString("admin_email"),
		AdminPassHash:    v.GetString("admin_pass_hash"),
		GelfAddr:         v.GetString("gelf_addr"),
		OTLPEndpoint:     v.GetString("otlp_endpoint"),
		SessionTTL:       v.GetDuration("session_ttl"),
		FunnelStore:      strings.ToLower(v.GetString("funnel_store")),
		Dispatcher: DispatcherConfig{
			Workers:        v.GetInt("dispatcher.workers"),
			QueueSize:      v.GetInt("dispatcher.queue_size"),
			MaxAttempts:    v.GetInt("dispatcher.max_attempts"),
			InitialBackoff: v.GetDuration("dispatcher.initial_backoff"),
			MaxElapsed:     v.GetDuration("dispatcher.max_elapsed"),
		},
		Storage: StorageConfig{
			Backend:               strings.ToLower(v.GetString("storage.backend")),
			SheetsSpreadsheetID:   v.GetString("storage.sheets_spreadsheet_id"),
			SheetsRange:           v.GetString("storage.sheets_range"),
			SheetsCredentialsFile: v.GetString("storage.sheets_credentials_file"),
			OxiDBHost:             v.GetString("storage.oxidb_host"),
			OxiDBPort:             v.GetInt("storage.oxidb_port"),
			PoolSize:              v.GetInt("storage.pool_size"),
		},
		Email: EmailConfig{
			SMTPHost: v.GetString("email.smtp_host"),
			SMTPPort: v.GetInt("email.smtp_port"),
			Username: v.GetString("email.username"),
			Password: v.GetString("email.password"),
			From:     v.GetString("email.from"),
			To:       v.GetString("email.to"),
		},
		Messaging: MessagingConfig{
			Provider:              strings.ToLower(v.GetString("messaging.provider")),
			WhatsAppToken:         v.GetString("messaging.whatsapp_token"),
			WhatsAppPhoneNumberID: v.GetString("messaging.whatsapp_phone_number_id"),
			WhatsAppAPIBase:       strings.TrimRight(v.GetString("messaging.whatsapp_api_base"), "/"),
			TelegramToken:         v.GetString("messaging.telegram_token"),
			TelegramChatID:        v.GetInt64("messaging.telegram_chat_id"),
		},
	}
}

// IsProduction reports whether diagnostics and error details must be suppressed.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IntakeBaseURL is where the CLI clients (submit, wizard) post leads:
// intake_url when set, otherwise the local listener.
func (c *Config) IntakeBaseURL() string {
	if c.IntakeURL != "" {
		return c.IntakeURL
	}
	if strings.HasPrefix(c.HTTPAddr, ":") {
		return "http://127.0.0.1" + c.HTTPAddr
	}
	return "http://" + c.HTTPAddr
}

// EmailEnabled reports whether SMTP delivery is fully configured.
func (c *Config) EmailEnabled() bool {
	return c.Email.SMTPHost != "" && c.Email.From != "" && c.Email.To != ""
}
