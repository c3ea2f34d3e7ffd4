package controller

import (
	"strconv"

	"chat-service/store"

	"github.com/gofiber/fiber/v2"
)

// UserMe returns the authenticated user's own profile.
func UserMe(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
			"data":    nil,
		})
	}

	user, err := Store.UserByID(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
			"data":    nil,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    user,
	})
}

// UserLookup finds a user by numeric id or by username. Used by the client
// to resolve a peer before sending a friend request.
func UserLookup(c *fiber.Ctx) error {
	param := c.Params("id")

	if id, err := strconv.ParseUint(param, 10, 64); err == nil {
		user, err := Store.UserByID(uint(id))
		if err == store.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "User not found",
				"data":    nil,
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Internal server error",
				"data":    nil,
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": nil,
			"data":    user,
		})
	}

	user, err := Store.UserByUsername(param)
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
			"data":    nil,
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
			"data":    nil,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    user,
	})
}
