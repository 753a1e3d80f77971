// Package model defines the domain entities for Benchline: users,
// challenges, tests, submissions and evaluations, plus the RFC 9457
// problem details used for API error responses.
package model
