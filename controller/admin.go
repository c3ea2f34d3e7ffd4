package controller

import (
	"encoding/json"

	"chat-service/event"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminUserList returns all registered users. Reachable only through the
// RBAC-guarded admin group.
func AdminUserList(c *fiber.Ctx) error {
	users, err := Store.ListUsers()
	if err != nil {
		return internalError(c)
	}

	adminID, _ := currentUserID(c)
	audit, _ := json.Marshal(fiber.Map{"adminId": adminID, "action": "user_list"})
	if err := event.Emit(event.QueueAudit, "admin_user_list", audit); err != nil {
		zap.L().Warn("audit enqueue failed", zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    users,
	})
}
