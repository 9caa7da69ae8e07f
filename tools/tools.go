//go:build tools
// +build tools

// Package tools documents development tool dependencies. The tools below are
// installed globally with `go install` and deliberately kept out of go.mod
// because they never ship with the service.
package tools

// Development tools (install via `go install`):
//
// Air - live reload during local development
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
