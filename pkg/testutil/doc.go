// Package testutil provides fixtures for testing nmm components.
//
// Key components:
//   - Paths: a paths.Paths rooted in a temporary directory
//   - SaveBuilder: declarative setup of a Noita save directory
//   - ClearEnv: removes NMM_* variables that would leak into config loading
//
// Usage guidelines:
//   - Game files live on an in-memory filesystem (filesystem.NewMemory)
//   - All test data is defined inline, not in external files
//   - Each test builds its own save; nothing is shared between tests
package testutil
