// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mark4carter/codewarsbot/internal/domain"
)

// ErrNotConfigured is returned by LoadSettings when no valid settings
// record exists. Every gated command is rejected until setup runs.
var ErrNotConfigured = errors.New("settings not configured, run `codewars setup` first")

// Repository defines the interface for persisting bot state.
type Repository interface {
	// LoadSettings retrieves the installation settings record.
	// Returns ErrNotConfigured if the record is missing or invalid.
	LoadSettings(ctx context.Context) (*domain.Settings, error)

	// SaveSettings validates and atomically replaces the settings record.
	SaveSettings(ctx context.Context, settings *domain.Settings) error

	// RandomJoke returns a joke, preferring the least-used rows, and bumps
	// its usage counter.
	RandomJoke(ctx context.Context) (string, error)

	// AddJoke inserts a joke into the rotation.
	AddJoke(ctx context.Context, joke string) error

	// LastRun returns the recorded last startup time. ok is false on the
	// first ever run.
	LastRun(ctx context.Context) (t time.Time, ok bool, err error)

	// TouchLastRun records now as the last startup time.
	TouchLastRun(ctx context.Context, now time.Time) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
