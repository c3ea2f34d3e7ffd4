package controller

import (
	"chat-service/store"

	"github.com/gofiber/fiber/v2"
)

// NotificationList returns the caller's notifications, newest first.
func NotificationList(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	notifications, err := Store.NotificationsFor(id)
	if err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    notifications,
	})
}

// NotificationRead marks one of the caller's notifications as read.
func NotificationRead(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badInput(c)
	}

	err = Store.MarkNotificationRead(uint(id), userID)
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Notification not found",
			"data":    nil,
		})
	}
	if err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    nil,
	})
}
