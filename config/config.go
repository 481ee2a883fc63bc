// Package config reads the application settings from the process environment.
// A .env file in the working directory, if present, is loaded first.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

const (
	defaultPort                = 8080
	defaultPoolSize            = 16
	defaultPoolAcquireTimeout  = 5 * time.Second
	defaultNameScripts         = "Latin,Cyrillic"
	defaultLang                = "ru-RU"
	defaultSessionCookieName   = "seatbook"
	defaultSessionCookieMaxAge = 30 * 24 * time.Hour
)

// LoadEnv loads variables from the given .env files (".env" when none are given)
// without overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return err
		}
	}
	return nil
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("SEATBOOK_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("SEATBOOK_DEBUG") == "true"
}

// GetLogFolder returns the folder for the log file. An empty value disables file logging.
func GetLogFolder() string {
	return os.Getenv("SEATBOOK_LOG_FOLDER")
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("SEATBOOK_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/seatbook"
	}
	return dbFolderPath
}

func GetListen() string {
	return os.Getenv("SEATBOOK_LISTEN")
}

func GetPort() int {
	return getEnvInt("SEATBOOK_PORT", defaultPort)
}

// GetDomain returns the only Host the web server answers to. Empty allows any.
func GetDomain() string {
	return os.Getenv("SEATBOOK_DOMAIN")
}

// GetSessionSecret returns the secret the session cookie keys are derived from.
func GetSessionSecret() string {
	return os.Getenv("SEATBOOK_SESSION_SECRET")
}

// GetSessionLifetime returns how long an issued session token stays valid.
// Zero means the token is valid until logout. Expiry is stored in whole
// seconds, so negative and sub-second values are rejected along with values
// that do not parse.
func GetSessionLifetime() (time.Duration, error) {
	v := os.Getenv("SEATBOOK_SESSION_LIFETIME")
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("SEATBOOK_SESSION_LIFETIME: %w", err)
	}
	if d < 0 || (d > 0 && d < time.Second) {
		return 0, fmt.Errorf("SEATBOOK_SESSION_LIFETIME: %s is not 0 or at least 1s", v)
	}
	return d, nil
}

func GetSessionCookieName() string {
	return getEnv("SEATBOOK_SESSION_COOKIE", defaultSessionCookieName)
}

// GetSessionCookieMaxAge is the browser-side lifetime of the cookie. It never
// outlives a finite session lifetime.
func GetSessionCookieMaxAge() time.Duration {
	maxAge := getEnvDuration("SEATBOOK_SESSION_COOKIE_MAX_AGE", defaultSessionCookieMaxAge)
	if lifetime, err := GetSessionLifetime(); err == nil && lifetime > 0 && lifetime < maxAge {
		return lifetime
	}
	return maxAge
}

func IsSecureCookie() bool {
	return os.Getenv("SEATBOOK_SECURE_COOKIE") == "true"
}

// GetNameScripts returns the unicode script names allowed in display names.
func GetNameScripts() []string {
	raw := getEnv("SEATBOOK_NAME_SCRIPTS", defaultNameScripts)
	scripts := make([]string, 0, 2)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scripts = append(scripts, s)
		}
	}
	return scripts
}

// GetLang returns the fallback UI language used when the client sends none.
func GetLang() string {
	return getEnv("SEATBOOK_LANG", defaultLang)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
