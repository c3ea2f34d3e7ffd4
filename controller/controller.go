package controller

import (
	"strconv"

	"chat-service/notify"
	"chat-service/store"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	Store    *store.Store
	Notifier *notify.Notifier
)

// Init hands the controllers their collaborators; called once from main
// before the routes go live.
func Init(s *store.Store, n *notify.Notifier) {
	Store = s
	Notifier = n
}

// currentUserID extracts the authenticated user id from the JWT claims the
// middleware stored on the request.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	user, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return 0, false
	}
	claims, ok := user.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	raw, _ := claims["id"].(string)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func userRoom(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
