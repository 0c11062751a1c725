// Package store persists jobs, locks and subscriptions with gorm. PostgreSQL
// is used in production; SQLite backs local runs and tests.
package store
