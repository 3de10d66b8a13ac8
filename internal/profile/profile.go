package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the bot.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the webhook server
	Addr string
	// Port is the binding port for the webhook server
	Port int
	// Data is the data directory holding the snapshot files
	Data string
	// Driver is the snapshot driver (file, memory, sqlite or postgres)
	Driver string
	// DSN points to where arisu stores its snapshots for sql drivers
	DSN string
	// Version is the current version of the bot
	Version string

	// AI Configuration
	AIBaseURL        string        // ARISU_AI_BASE_URL (default: https://api.groq.com/openai/v1)
	AIAPIKey         string        // ARISU_AI_API_KEY (legacy: GROQ_AI_TOKEN)
	AIModel          string        // ARISU_AI_MODEL (default: llama-3.1-70b-versatile)
	AITemperature    float32       // ARISU_AI_TEMPERATURE (default: 0.8)
	AITokenBudget    int           // ARISU_AI_TOKEN_BUDGET (default: 500)
	AIMaxAttempts    int           // ARISU_AI_MAX_ATTEMPTS (default: 3)
	AIBackoffBase    time.Duration // ARISU_AI_BACKOFF_BASE (default: 1s)
	AIBackoffMax     time.Duration // ARISU_AI_BACKOFF_MAX (default: 8s)
	AIAttemptTimeout time.Duration // ARISU_AI_ATTEMPT_TIMEOUT (default: 30s)

	// Bot Configuration
	BotName       string // ARISU_BOT_NAME (default: Arisu)
	BotNumber     string // ARISU_BOT_NUMBER (default: 082333938293)
	AdminNumber   string // ARISU_BOT_ADMIN_NUMBER (default: 62881036176037)
	NotifyChat    string // ARISU_BOT_NOTIFY_CHAT (default: 120363337195015641@g.us)
	StickerAuthor string // ARISU_BOT_STICKER_AUTHOR (default: punya hfnyy)

	// Image search configuration
	GoogleAPIKey   string // ARISU_GOOGLE_API_KEY (legacy: GOOGLE_API_KEY)
	GoogleSearchCX string // ARISU_GOOGLE_CX (legacy: CUSTOM_SEARCH_ENGINE_ID)

	// Gateway configuration
	GatewaySecret  string  // ARISU_GATEWAY_SECRET (empty disables auth)
	RateLimitRPS   float64 // ARISU_RATELIMIT_RPS (default: 1)
	RateLimitBurst int     // ARISU_RATELIMIT_BURST (default: 5)
}

// Defaults applied by FromEnv for fields left unset.
const (
	DefaultAIBaseURL      = "https://api.groq.com/openai/v1"
	DefaultAIModel        = "llama-3.1-70b-versatile"
	DefaultAITemperature  = 0.8
	DefaultTokenBudget    = 500
	DefaultMaxAttempts    = 3
	DefaultBackoffBase    = time.Second
	DefaultBackoffMax     = 8 * time.Second
	DefaultAttemptTimeout = 30 * time.Second
	DefaultBotName        = "Arisu"
	DefaultBotNumber      = "082333938293"
	DefaultAdminNumber    = "62881036176037"
	DefaultNotifyChat     = "120363337195015641@g.us"
	DefaultStickerAuthor  = "punya hfnyy"
	DefaultRateLimitRPS   = 1.0
	DefaultRateLimitBurst = 5
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an API key for the completion endpoint is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != ""
}

// IsImageSearchEnabled returns true if Google custom search credentials are configured.
func (p *Profile) IsImageSearchEnabled() bool {
	return p.GoogleAPIKey != "" && p.GoogleSearchCX != ""
}

// FromEnv fills every field that is still unset from environment variables,
// then from defaults. ARISU_* names win over the legacy names the first
// version of the bot read from its .env file.
func (p *Profile) FromEnv() {
	// Skips empty values to allow defaults to take effect
	getEnvWithDefault := func(newKey, legacyKey, defaultValue string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		if legacyKey != "" {
			if val := os.Getenv(legacyKey); val != "" {
				return val
			}
		}
		return defaultValue
	}
	setString := func(field *string, newKey, legacyKey, defaultValue string) {
		if *field == "" {
			*field = getEnvWithDefault(newKey, legacyKey, defaultValue)
		}
	}
	setInt := func(field *int, newKey string, defaultValue int) {
		if *field != 0 {
			return
		}
		*field = defaultValue
		if v, err := strconv.Atoi(os.Getenv(newKey)); err == nil && v > 0 {
			*field = v
		}
	}
	setDuration := func(field *time.Duration, newKey string, defaultValue time.Duration) {
		if *field != 0 {
			return
		}
		*field = defaultValue
		if v, err := time.ParseDuration(os.Getenv(newKey)); err == nil && v > 0 {
			*field = v
		}
	}

	if p.Port == 0 {
		if v, err := strconv.Atoi(getEnvWithDefault("ARISU_PORT", "PORT", "")); err == nil {
			p.Port = v
		}
	}

	setString(&p.AIBaseURL, "ARISU_AI_BASE_URL", "", DefaultAIBaseURL)
	setString(&p.AIAPIKey, "ARISU_AI_API_KEY", "GROQ_AI_TOKEN", "")
	setString(&p.AIModel, "ARISU_AI_MODEL", "", DefaultAIModel)
	if p.AITemperature == 0 {
		p.AITemperature = DefaultAITemperature
		if v, err := strconv.ParseFloat(os.Getenv("ARISU_AI_TEMPERATURE"), 32); err == nil {
			p.AITemperature = float32(v)
		}
	}
	setInt(&p.AITokenBudget, "ARISU_AI_TOKEN_BUDGET", DefaultTokenBudget)
	setInt(&p.AIMaxAttempts, "ARISU_AI_MAX_ATTEMPTS", DefaultMaxAttempts)
	setDuration(&p.AIBackoffBase, "ARISU_AI_BACKOFF_BASE", DefaultBackoffBase)
	setDuration(&p.AIBackoffMax, "ARISU_AI_BACKOFF_MAX", DefaultBackoffMax)
	setDuration(&p.AIAttemptTimeout, "ARISU_AI_ATTEMPT_TIMEOUT", DefaultAttemptTimeout)

	setString(&p.BotName, "ARISU_BOT_NAME", "", DefaultBotName)
	setString(&p.BotNumber, "ARISU_BOT_NUMBER", "", DefaultBotNumber)
	setString(&p.AdminNumber, "ARISU_BOT_ADMIN_NUMBER", "", DefaultAdminNumber)
	setString(&p.NotifyChat, "ARISU_BOT_NOTIFY_CHAT", "", DefaultNotifyChat)
	setString(&p.StickerAuthor, "ARISU_BOT_STICKER_AUTHOR", "", DefaultStickerAuthor)

	setString(&p.GoogleAPIKey, "ARISU_GOOGLE_API_KEY", "GOOGLE_API_KEY", "")
	setString(&p.GoogleSearchCX, "ARISU_GOOGLE_CX", "CUSTOM_SEARCH_ENGINE_ID", "")

	setString(&p.GatewaySecret, "ARISU_GATEWAY_SECRET", "", "")
	if p.RateLimitRPS == 0 {
		p.RateLimitRPS = DefaultRateLimitRPS
		if v, err := strconv.ParseFloat(os.Getenv("ARISU_RATELIMIT_RPS"), 64); err == nil && v > 0 {
			p.RateLimitRPS = v
		}
	}
	setInt(&p.RateLimitBurst, "ARISU_RATELIMIT_BURST", DefaultRateLimitBurst)
}

func checkDataDir(dataDir string) (string, error) {
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if err := os.MkdirAll(dataDir, 0770); err != nil {
		return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
	}
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		p.Data = "data"
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "":
		p.Driver = "file"
	case "file", "memory", "sqlite", "postgres":
	default:
		return errors.Errorf("unknown snapshot driver %q", p.Driver)
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("arisu_%s.db", p.Mode))
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.AITokenBudget <= 0 {
		return errors.New("ai token budget must be positive")
	}
	if p.AIMaxAttempts <= 0 {
		return errors.New("ai max attempts must be positive")
	}

	return nil
}
