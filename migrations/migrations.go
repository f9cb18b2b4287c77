// Package migrations embeds the chat engine's versioned SQL schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
