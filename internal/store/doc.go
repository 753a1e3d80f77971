// Package store manages challenge expected-results files on disk.
package store
