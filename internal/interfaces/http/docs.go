package http

import (
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
)

// DocsPath ruta de Swagger UI.
const DocsPath = "docs"

// MountDocs sirve Swagger UI en /docs con el spec generado por swag (go generate ./cmd/peer).
// swagger.New entra en pánico si el archivo no existe; en ese caso no monta nada y devuelve false.
func MountDocs(app fiber.Router, specFile, title string) bool {
	if specFile == "" {
		return false
	}
	if _, err := os.Stat(specFile); err != nil {
		return false
	}
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: specFile,
		Path:     DocsPath,
		Title:    title,
	}))
	return true
}
