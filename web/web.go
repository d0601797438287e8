// Package web holds the HTML templates compiled into the binary.
package web

import "embed"

// Templates contains layout.html, partials/ and one file per page.
//
//go:embed templates
var Templates embed.FS
