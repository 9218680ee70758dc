// Package config reads the server configuration from the environment.
package config

import (
	"fmt"
	"strings"
)

const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
)

// Server is the configuration of cmd/server.
type Server struct {
	Port       string
	Backend    string
	ProjectID  string
	Collection string
	SQLitePath string
	LogLevel   string
	LogFormat  string
}

// LoadServer builds the server configuration from getenv (usually
// os.Getenv, after the .env file has been loaded).
func LoadServer(getenv func(string) string) (*Server, error) {
	cfg := &Server{
		Port:       getenv("PORT"),
		Backend:    strings.ToLower(strings.TrimSpace(getenv("STORE_BACKEND"))),
		ProjectID:  getenv("GOOGLE_CLOUD_PROJECT"),
		Collection: getenv("FIRESTORE_COLLECTION"),
		SQLitePath: getenv("SQLITE_PATH"),
		LogLevel:   getenv("LOG_LEVEL"),
		LogFormat:  getenv("LOG_FORMAT"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendFirestore
	}
	if cfg.Collection == "" {
		cfg.Collection = "todos"
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "todos.sqlite3"
	}

	switch cfg.Backend {
	case BackendFirestore:
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required")
		}
	case BackendSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", cfg.Backend, BackendFirestore, BackendSQLite)
	}

	return cfg, nil
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return ":" + s.Port
}
