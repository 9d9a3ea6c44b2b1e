package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// Header carries the ray ID on requests and responses.
	Header = "X-Ray-ID"
	// LocalKey is the Fiber locals key holding the ray ID.
	LocalKey = "ray_id"
)

// New returns a middleware that assigns a ray ID to every request. A ray ID
// supplied by the client is kept so traces can span services.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals(LocalKey, rid)
		c.Set(Header, rid)
		return c.Next()
	}
}
