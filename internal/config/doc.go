// Package config handles configuration loading for second-brain.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SECOND_BRAIN_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/second-brain/config.yaml
//  3. ~/.config/second-brain/config.yaml
//
// A missing file at a default location is not an error; LoadOrDefault falls
// back to built-in defaults. Files ending in .toml are parsed as TOML.
//
// # Environment Variables
//
// Values can reference environment variables:
//
//	tailscale:
//	  auth_key: "${TS_AUTHKEY}"
//
// After parsing, these variables override the file:
//
//	SECOND_BRAIN_HTTP_ADDR, SECOND_BRAIN_DB_DRIVER, SECOND_BRAIN_DB_PATH,
//	SECOND_BRAIN_STATUS_PATH, SECOND_BRAIN_LOG_LEVEL, SECOND_BRAIN_LOG_FORMAT
//
// # Configuration Sections
//
//	server:
//	  http_addr: "localhost:3000"
//	  read_header_timeout: "10s"
//	  shutdown_timeout: "5s"
//
//	database:
//	  driver: "sqlite"     # sqlite, sqlite3, pgx
//	  path: "~/.local/share/second-brain/brain.db"
//
//	status:
//	  path: "~/.local/share/second-brain/status.json"
//	  watch: true
//
//	capture:
//	  default_source: "api"
//	  dedupe_ttl: "5m"
//	  dedupe_max_entries: 10000
//
//	tailscale:
//	  enabled: false
//	  hostname: "second-brain"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: false
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
