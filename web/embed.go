// Package web embeds the static URL builder page served on "/" for browsers.
package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var static embed.FS

// IndexHTML returns the embedded URL builder page.
func IndexHTML() ([]byte, error) {
	return fs.ReadFile(static, "index.html")
}
