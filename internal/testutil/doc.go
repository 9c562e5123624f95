// Package testutil provides shared test helpers: canned grants and
// profiles, random value generation, assertion helpers, and a small HTTP
// request builder for handler tests.
package testutil
