package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ----------------------------
	// Dispatch worker
	// ----------------------------
	WorkerInterval  time.Duration `envconfig:"WORKER_INTERVAL" default:"15s"`
	SendLimit       int           `envconfig:"SEND_LIMIT" default:"20"`
	RateLimit       int           `envconfig:"RATE_LIMIT" default:"10"`
	SubjectFallback string        `envconfig:"SUBJECT_FALLBACK" default:"Signup for your upcoming capstone event"`
	BodyKind        string        `envconfig:"BODY_KIND" default:"html"`

	// ----------------------------
	// Sender profile
	// ----------------------------
	SenderID        string `envconfig:"SENDER_ID" default:"VSB"`
	SenderTransport string `envconfig:"SENDER_TRANSPORT" default:"ews"`

	// ----------------------------
	// EWS transport + OAuth
	// ----------------------------
	EWSURL        string        `envconfig:"EWS_URL" default:"https://outlook.office365.com/EWS/Exchange.asmx"`
	EWSTimeout    time.Duration `envconfig:"EWS_TIMEOUT" default:"30s"`
	OAuthTokenURL string        `envconfig:"OAUTH_TOKEN_URL" default:"https://login.microsoftonline.com/common/oauth2/v2.0/token"`
	OAuthClientID string        `envconfig:"OAUTH_CLIENT_ID" default:""`
	OAuthScopes   []string      `envconfig:"OAUTH_SCOPES" default:"offline_access,https://outlook.office.com/EWS.AccessAsUser.All"`
	TokenFilePath string        `envconfig:"TOKEN_FILE_PATH" default:"tokens/mail-transport.json"`

	// ----------------------------
	// SMTP transport (alternate profile)
	// ----------------------------
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser     string `envconfig:"SMTP_USER" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@mailspool.local"`

	// ----------------------------
	// Templates
	// ----------------------------
	TemplatesDir string `envconfig:"TEMPLATES_DIR" default:"templates"`
	MaxCSVRows   int    `envconfig:"MAX_CSV_ROWS" default:"1000"`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort string `envconfig:"API_PORT" default:"10001"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// ----------------------------
	// Status store
	// ----------------------------
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return &cfg, err
}
