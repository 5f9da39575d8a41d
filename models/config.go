// Package models defines data structures for configuration and monitoring.
package models

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTargetURL      = "https://portal.jne.gob.pe/portal/Pagina/Ver/77/page/Convocatoria-de-Personal-y-Practicantes"
	DefaultUserAgent      = "Mozilla/5.0 (compatible; vacancy-monitor/1.0)"
	DefaultSeenFile       = "seen.json"
	DefaultStateDB        = "vacancy-watch.db"
	DefaultSMTPHost       = "smtp.gmail.com"
	DefaultSMTPPort       = 587
	DefaultEmailSubject   = "Nueva convocatoria JNE detectada"
	DefaultWatchSchedule  = "@every 30m"
	DefaultLockKey        = "vacancy-watch:run"
	DefaultPageTimeout    = 20 * time.Second
	DefaultDocTimeout     = 30 * time.Second
	DefaultSMTPTimeout    = 30 * time.Second
	DefaultLockTTL        = 10 * time.Minute
	DefaultMaxDocumentLen = 25 << 20
)

// State backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DefaultKeywords are the vacancy terms searched for when the config file
// does not list any. Entries are regular expressions; one that fails to
// compile is matched as a literal. Go's \b only knows ASCII word characters,
// so the whole-word terms are wrapped with Unicode letter and digit classes
// and "ÑCAS" or "áCAS" do not count as the word CAS.
var DefaultKeywords = []string{
	word(`fiscalizador`),
	word(`fiscalizador(es)?`),
	word(`fiscalizador\s+provincial`),
	word(`fiscalizador\s+provincia(l)?`),
	word(`fiscalizador\s+distrital`),
	word(`fiscalizador\s+distrito(al)?`),
	word(`fiscalizador(es)?\s+distrital(es)?`),
	word(`fiscalizador(es)?\s+provincial(es)?`),
	word(`CAS`),
	word(`D\.?\s*L\.?\s*728`),
	word(`DL\s*728`),
	`Locaci[oó]n de servicio`,
	`Practicante`,
	`Prácticante`,
}

// Unicode-aware stand-ins for \b on either side of a term.
const (
	WordStart = `(?:^|[^\p{L}\p{N}_])`
	WordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

func word(p string) string {
	return WordStart + `(?:` + p + `)` + WordEnd
}

var (
	DefaultDocumentExtensions  = []string{".pdf"}
	DefaultRepositoryFragments = []string{"/portal_documentos/files/"}
)

// Config is built once at startup and handed to every component.
type Config struct {
	Target   TargetConfig       `yaml:"target"`
	Keywords []string           `yaml:"keywords"`
	State    StateConfig        `yaml:"state"`
	Notify   NotificationConfig `yaml:"notify"`
	Lock     LockConfig         `yaml:"lock"`
	Logging  LoggingConfig      `yaml:"logging"`
	Watch    WatchConfig        `yaml:"watch"`
	DryRun   bool               `yaml:"dry_run" env:"DRY_RUN"`
}

// TargetConfig describes the watched page and how documents are fetched.
type TargetConfig struct {
	URL                 string        `yaml:"url" env:"TARGET_URL"`
	UserAgent           string        `yaml:"user_agent" env:"USER_AGENT"`
	PageTimeout         time.Duration `yaml:"page_timeout" env:"PAGE_TIMEOUT"`
	DocumentTimeout     time.Duration `yaml:"document_timeout" env:"DOCUMENT_TIMEOUT"`
	MaxDocumentBytes    int64         `yaml:"max_document_bytes"`
	DocumentExtensions  []string      `yaml:"document_extensions"`
	RepositoryFragments []string      `yaml:"repository_fragments"`
}

// StateConfig selects where the seen set lives.
type StateConfig struct {
	Backend string `yaml:"backend" env:"STATE_BACKEND"`
	File    string `yaml:"file" env:"SEEN_FILE"`
	DBPath  string `yaml:"db_path" env:"STATE_DB"`
}

// NotificationConfig holds the optional channel credentials.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
}

type TelegramConfig struct {
	Token   string        `yaml:"token" env:"TELEGRAM_TOKEN"`
	ChatID  string        `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	APIBase string        `yaml:"api_base"`
	Timeout time.Duration `yaml:"timeout"`
}

// Configured reports whether both the bot token and chat id are present.
func (t TelegramConfig) Configured() bool {
	return strings.TrimSpace(t.Token) != "" && strings.TrimSpace(t.ChatID) != ""
}

type EmailConfig struct {
	Host     string        `yaml:"host" env:"SMTP_HOST"`
	Port     string        `yaml:"port" env:"SMTP_PORT"`
	User     string        `yaml:"user" env:"SMTP_USER"`
	Password string        `yaml:"password" env:"SMTP_PASS"`
	To       string        `yaml:"to" env:"NOTIFY_EMAIL_TO"`
	Subject  string        `yaml:"subject" env:"NOTIFY_EMAIL_SUBJECT"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Configured reports whether user, password and recipient are all present.
// The host always has a default and is not part of the check.
func (e EmailConfig) Configured() bool {
	return strings.TrimSpace(e.User) != "" &&
		strings.TrimSpace(e.Password) != "" &&
		strings.TrimSpace(e.To) != ""
}

// PortNumber resolves the raw port. Empty, non-numeric or non-positive
// values resolve to DefaultSMTPPort.
func (e EmailConfig) PortNumber() int {
	p, err := strconv.Atoi(strings.TrimSpace(e.Port))
	if err != nil || p <= 0 || p > 65535 {
		return DefaultSMTPPort
	}
	return p
}

// Recipients splits To on commas.
func (e EmailConfig) Recipients() []string {
	var out []string
	for _, r := range strings.Split(e.To, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// LockConfig enables the cross-process run lease when RedisAddr is set.
type LockConfig struct {
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
	Key           string        `yaml:"key"`
	TTL           time.Duration `yaml:"ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type WatchConfig struct {
	Schedule string `yaml:"schedule" env:"WATCH_SCHEDULE"`
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.Target.URL == "" {
		c.Target.URL = DefaultTargetURL
	}
	if c.Target.UserAgent == "" {
		c.Target.UserAgent = DefaultUserAgent
	}
	if c.Target.PageTimeout <= 0 {
		c.Target.PageTimeout = DefaultPageTimeout
	}
	if c.Target.DocumentTimeout <= 0 {
		c.Target.DocumentTimeout = DefaultDocTimeout
	}
	if c.Target.MaxDocumentBytes <= 0 {
		c.Target.MaxDocumentBytes = DefaultMaxDocumentLen
	}
	if len(c.Target.DocumentExtensions) == 0 {
		c.Target.DocumentExtensions = append([]string(nil), DefaultDocumentExtensions...)
	}
	if len(c.Target.RepositoryFragments) == 0 {
		c.Target.RepositoryFragments = append([]string(nil), DefaultRepositoryFragments...)
	}
	if len(c.Keywords) == 0 {
		c.Keywords = append([]string(nil), DefaultKeywords...)
	}

	if c.State.Backend == "" {
		c.State.Backend = BackendJSON
	}
	if c.State.File == "" {
		c.State.File = DefaultSeenFile
	}
	if c.State.DBPath == "" {
		c.State.DBPath = DefaultStateDB
	}

	if c.Notify.Email.Host == "" {
		c.Notify.Email.Host = DefaultSMTPHost
	}
	if c.Notify.Email.Subject == "" {
		c.Notify.Email.Subject = DefaultEmailSubject
	}
	if c.Notify.Email.Timeout <= 0 {
		c.Notify.Email.Timeout = DefaultSMTPTimeout
	}
	if c.Notify.Telegram.Timeout <= 0 {
		c.Notify.Telegram.Timeout = DefaultPageTimeout
	}

	if c.Lock.Key == "" {
		c.Lock.Key = DefaultLockKey
	}
	if c.Lock.TTL <= 0 {
		c.Lock.TTL = DefaultLockTTL
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = DefaultWatchSchedule
	}
}

// Validate checks the fields that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.URL)
	if err != nil {
		return fmt.Errorf("invalid target url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("target url must be absolute http(s): %q", c.Target.URL)
	}

	switch c.State.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown state backend %q (want %s or %s)", c.State.Backend, BackendJSON, BackendSQLite)
	}

	if len(c.Keywords) == 0 {
		return errors.New("no keywords configured")
	}
	return nil
}
