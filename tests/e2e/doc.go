//go:build playwright

// Package e2e drives real browsers against the translator page.
//
// These tests are isolated from the standard test suite via build tags.
// They need Chromium, installed by playwright-go or downloaded by Rod on
// first use.
//
// Running E2E tests:
//
//	go test -tags=playwright ./tests/e2e/...
//
// The live-site tests read the same TRANSLATOR_* (or BASE_URL, HEADLESS)
// variables as the CLI and skip when the site cannot be reached. The fixture
// tests serve internal/testutil/fakesite on a random port and run with both
// engines.
package e2e
