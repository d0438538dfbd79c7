package media

import (
	"errors"
	"fmt"

	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/gofiber/fiber/v2"
)

const cacheControl = "public, max-age=31536000, immutable"

// ServeHandler answers GET and HEAD for /media/:id and /images/:id.
func ServeHandler(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")

	res, err := DefaultChain(database.DB).Resolve(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}

	c.Set(fiber.HeaderCacheControl, cacheControl)

	if res.IsExternal() {
		if res.IsVideo() {
			// the client repeats its Range header against the blob host
			c.Set(fiber.HeaderAcceptRanges, "bytes")
			c.Set(fiber.HeaderVary, "Range")
		}
		return c.Redirect(res.URL, fiber.StatusTemporaryRedirect)
	}

	payload, err := AssemblePayload(c.UserContext(), database.DB, res.Image)
	if err != nil {
		return response.FromError(c, err)
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Set(fiber.HeaderContentType, contentType)

	if !res.IsVideo() {
		c.Set(fiber.HeaderAcceptRanges, "none")
		return c.Send(payload)
	}

	c.Set(fiber.HeaderAcceptRanges, "bytes")
	total := len(payload)

	r, err := ParseRange(c.Get(fiber.HeaderRange), total)
	if errors.Is(err, ErrUnsatisfiable) {
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes */%d", total))
		return c.SendStatus(fiber.StatusRequestedRangeNotSatisfiable)
	}
	if r == nil {
		return c.Send(payload)
	}

	c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total))
	return c.Status(fiber.StatusPartialContent).Send(payload[r.Start : r.End+1])
}
