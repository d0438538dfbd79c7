package admin

import (
	"github.com/Kyz7/sitecms/internal/auth"
	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/gofiber/fiber/v2"
)

func ListUsersHandler(c *fiber.Ctx) error {
	users, err := ListUsers(database.DB)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, users, "")
}

func CreateUserHandler(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	user, err := CreateUser(database.DB, body.Username, body.Password)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, user, "Admin user created successfully")
}

func DeleteUserHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	if err := DeleteUser(database.DB, uint(id), auth.UserID(c)); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, nil, "Admin user deleted successfully")
}
