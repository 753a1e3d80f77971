// Package config manages application configuration for the Benchline API.
//
// Configuration is loaded from environment variables with caarlos0/env and
// validated before the server starts. All configuration is centralized here
// to provide a single source of truth.
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS)
//   - DatabaseConfig: Postgres connection settings
//   - AuthConfig: token signing secret and algorithm
//   - StoreConfig: file store location
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT  - HTTP server port (default: 80)
//	DB_USER      - Database username
//	DB_PASS      - Database password
//	DB_NAME      - Database name
//	DB_HOST      - Database host
//	DB_PORT      - Database port (default: 5432)
//	KEY          - HMAC signing secret for access tokens (required)
//	ALGORITHM    - Token signing algorithm: HS256, HS384 or HS512 (required)
//	STORE_PATH   - Root directory of the file store (required)
package config
