package search

import (
	"strings"

	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/gofiber/fiber/v2"
)

// Handler answers GET /api/search?q=&kinds=projects,messages&limit=.
func Handler(c *fiber.Ctx) error {
	params := Params{
		Query: c.Query("q"),
		Limit: c.QueryInt("limit", DefaultLimit),
	}
	if kinds := c.Query("kinds"); kinds != "" {
		params.Kinds = strings.Split(kinds, ",")
	}

	result, err := Search(c.UserContext(), database.DB, params)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, result, "")
}
