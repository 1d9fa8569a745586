// Package ui holds the HTML templates compiled into the binary.
package ui

import "embed"

//go:embed templates
var Files embed.FS
