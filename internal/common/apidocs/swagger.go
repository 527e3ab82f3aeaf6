package apidocs

import (
	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Swagger Handlers
// ============================================================

type Handler struct {
	spec []byte
}

func New(spec []byte) *Handler {
	return &Handler{spec: spec}
}

func (h *Handler) Register(app *fiber.App) {
	app.Get("/docs/openapi.yaml", h.Spec)
	app.Get("/docs", h.UI)
}

// Spec отдаёт OpenAPI YAML.
func (h *Handler) Spec(c fiber.Ctx) error {
	if len(h.spec) == 0 {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "spec not found"})
	}
	c.Type("yaml")
	return c.Send(h.spec)
}

// UI отдаёт страницу Swagger UI, читающую spec из /docs/openapi.yaml.
func (h *Handler) UI(c fiber.Ctx) error {
	c.Type("html")
	return c.SendString(uiPage)
}

const uiPage = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>Home Panel API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '/docs/openapi.yaml',
      dom_id: '#swagger-ui',
    });
  };
</script>
</body>
</html>`
