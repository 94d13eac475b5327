// Package control loads client configuration from the environment and
// hosts it behind a thread-safe store so a long-lived process can reload
// it (e.g. on SIGHUP) without restarting in-flight clients.
package control

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds everything a driverclient/bidi client needs to dial and
// bound its init retry loop.
type Config struct {
	Host         string
	Port         uint16
	ReadyTimeout time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PersistDir   string
}

// FromEnv loads a Config from WD_HOST, WD_PORT, WD_READY_TIMEOUT,
// WD_READ_TIMEOUT, WD_WRITE_TIMEOUT, and WD_PERSIST_DIR, falling back to
// the given defaults for anything unset or malformed.
func FromEnv() Config {
	return Config{
		Host:         getEnv("WD_HOST", "127.0.0.1"),
		Port:         uint16(getEnvInt64("WD_PORT", 4444)),
		ReadyTimeout: getEnvDuration("WD_READY_TIMEOUT", 30*time.Second),
		ReadTimeout:  getEnvDuration("WD_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDuration("WD_WRITE_TIMEOUT", 30*time.Second),
		PersistDir:   getEnv("WD_PERSIST_DIR", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("control: invalid %s, using default: %v", key, err)
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("control: invalid %s, using default: %v", key, err)
		return fallback
	}
	return parsed
}

// Store is a thread-safe Config holder with reload-listener dispatch, for
// a process that wants to pick up a new Config (e.g. re-read from
// environment after a signal) without tearing down clients built from the
// previous snapshot.
type Store struct {
	mu        sync.RWMutex
	cfg       Config
	listeners []func(Config)
}

// NewStore wraps cfg in a Store.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// GetSnapshot returns the current Config.
func (s *Store) GetSnapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig replaces the held Config and dispatches reload to every
// registered listener.
func (s *Store) SetConfig(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	listeners := make([]func(Config), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		go fn(cfg)
	}
}

// OnReload registers a listener invoked with the new Config every time
// SetConfig runs.
func (s *Store) OnReload(fn func(Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
