package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS разрешает фронтенду загрузку файлов, SSE-прогон и отмену пакета.
// X-Batch-ID нужен клиенту для DELETE /bulk/:id.
func CORS(origins string) fiber.Handler {
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Accept,Accept-Language,Last-Event-ID",
		ExposeHeaders:    "X-Batch-ID",
		AllowCredentials: origins != "*",
	})
}
