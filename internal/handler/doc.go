// Package handler implements the HTTP endpoints of the API.
package handler
