// Package gamedata provides the embedded terrain palette and utilities for loading it.
package gamedata

import "embed"

// dataFS embeds the palette and any other JSON data at build time.
//
//go:embed *.json
var dataFS embed.FS
