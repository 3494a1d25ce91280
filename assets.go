// Package studioui embeds the web assets shipped with the studio-ui binary.
package studioui

import "embed"

// TemplateFS contains the server-rendered page templates.
//
//go:embed web/templates
var TemplateFS embed.FS

// StaticFS contains browser-side assets (theme manager, toast helper, CSS).
//
//go:embed web/static
var StaticFS embed.FS
