// Package service implements the business logic of the API.
package service
