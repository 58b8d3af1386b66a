// Package shared holds helpers used by more than one package's tests.
//
// The testutil subpackage captures slog output for assertions and builds
// remittance statement pages for extractor and pipeline tests. It must not
// depend on any other internal package.
package shared
