// Package middleware provides HTTP middleware for the API server.
package middleware
