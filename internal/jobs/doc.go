// Package jobs implements background tasks that run independently of
// HTTP request handling.
package jobs
