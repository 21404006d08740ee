// Package shared holds code used across packages that belongs to no single
// layer. testutil provides the employee fixtures and a log capturing slog
// handler for tests.
package shared
