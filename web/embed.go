// Package web embeds the browser client.
package web

import "embed"

// TemplatesFS holds the page shell; the API base URL is rendered into it.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the script and stylesheet.
//
//go:embed static/*
var StaticFS embed.FS
