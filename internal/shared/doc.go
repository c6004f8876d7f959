// Package shared provides common utilities and test helpers used
// across the codebase. It serves as a central location for shared
// functionality that doesn't belong to any specific domain or
// architectural layer.
//
// # Usage Guidelines
//
// This package should only contain:
//
// 1. Test utilities used by multiple packages
// 2. Generic helper functions with no domain-specific logic
//
// It should NOT contain:
//
// 1. Business logic or domain-specific code
// 2. Circular dependencies with other internal packages
//
// # Test Utilities
//
// The testutil subpackage provides a buffered slog handler for
// asserting on structured log output:
//
//	logger, handler := testutil.NewTestLogger(t)
//	// exercise code that logs through logger
//	testutil.AssertLogContains(t, handler, slog.LevelWarn, "file skipped")
package shared
