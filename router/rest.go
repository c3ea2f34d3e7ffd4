package router

import (
	"chat-service/controller"
	"chat-service/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func Rest(app *fiber.App) {
	api := app.Group("/v1", logger.New())

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", controller.AuthSignup)
	auth.Post("/signin", controller.AuthSignin)
	auth.Post("/token/renew", controller.AuthTokenRenew)
	auth.Post("/2fa/secret", middleware.JWT(), middleware.OTP(), controller.AuthOtpSecret)
	auth.Post("/2fa/verify", middleware.JWT(), middleware.OTP(), controller.AuthOtpVerify)
	auth.Post("/2fa/validate", middleware.JWT(), controller.AuthOtpValidate)
	auth.Post("/2fa/disable", middleware.JWT(), middleware.OTP(), controller.AuthOtpDisable)

	// User
	user := api.Group("/user", middleware.JWT(), middleware.OTP())
	user.Get("/profile", controller.UserMe)
	user.Get("/:id", controller.UserLookup)

	// Friends
	friend := api.Group("/friends", middleware.JWT(), middleware.OTP())
	friend.Get("/list", controller.FriendList)
	friend.Get("/requests", controller.FriendRequestsPending)
	friend.Post("/requests", controller.FriendRequestCreate)
	friend.Post("/requests/:id/respond", controller.FriendRequestRespond)
	friend.Post("/block", controller.FriendBlock)
	friend.Post("/unblock", controller.FriendUnblock)

	// Messages
	message := api.Group("/messages", middleware.JWT(), middleware.OTP())
	message.Get("/:peerId", controller.MessagesWith)
	message.Post("/:peerId/clear", controller.MessagesClear)

	conversation := api.Group("/conversations", middleware.JWT(), middleware.OTP())
	conversation.Get("/list", controller.Conversations)

	// Calls
	call := api.Group("/call", middleware.JWT(), middleware.OTP())
	call.Post("/history", controller.CallHistoryUpsert)
	call.Get("/history", controller.CallHistoryList)
	call.Get("/room-token", controller.CallRoomToken)

	// Notifications
	notification := api.Group("/notifications", middleware.JWT(), middleware.OTP())
	notification.Get("/list", controller.NotificationList)
	notification.Post("/:id/read", controller.NotificationRead)

	// Admin
	admin := api.Group("/admin", middleware.JWT(), middleware.OTP(), middleware.RBAC())
	admin.Get("/users", controller.AdminUserList)
}
