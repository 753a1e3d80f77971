// Package repository implements Postgres data access for the API.
package repository
