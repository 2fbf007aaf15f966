//go:build tools

// Package tools fija en go.mod las herramientas de generación (swag para docs/swagger.json).
package tools

import (
	_ "github.com/swaggo/swag/cmd/swag"
)
