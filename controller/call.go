package controller

import (
	"strconv"
	"time"

	"chat-service/config"
	"chat-service/model"
	"chat-service/utils"

	"github.com/gofiber/fiber/v2"
)

type CallHistoryInput struct {
	ReceiverID uint   `json:"receiverId"`
	RoomID     string `json:"roomId"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Direction  string `json:"direction"`
	Duration   int    `json:"duration"`
}

// CallHistoryUpsert records one call attempt. Both call legs may submit the
// same (conversation, room) pair; the second submission merges instead of
// duplicating.
func CallHistoryUpsert(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	input := new(CallHistoryInput)
	if err := c.BodyParser(input); err != nil {
		return badInput(c)
	}
	if input.ReceiverID == 0 || input.RoomID == "" {
		return badInput(c)
	}
	if input.Type != model.CallTypeVoice && input.Type != model.CallTypeVideo {
		return badInput(c)
	}

	record, err := Store.UpsertCallHistory(id, input.ReceiverID, input.RoomID,
		input.Type, input.Status, input.Direction, input.Duration)
	if err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    record,
	})
}

// CallHistoryList returns the caller's call records, newest first.
func CallHistoryList(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	calls, err := Store.CallHistoryFor(id)
	if err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    calls,
	})
}

// CallRoomToken mints a short-lived signed token the client presents to the
// media provider when joining a call room.
func CallRoomToken(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	roomID := c.Query("roomId")
	if roomID == "" {
		return badInput(c)
	}

	ttlSeconds, err := strconv.Atoi(config.ConfigDefault("CALL_TOKEN_TTL", "3600"))
	if err != nil || ttlSeconds <= 0 {
		ttlSeconds = 3600
	}

	token, err := utils.GenerateRoomToken(
		config.Config("CALL_APP_ID"),
		config.Config("CALL_SERVER_SECRET"),
		userRoom(id),
		roomID,
		time.Duration(ttlSeconds)*time.Second,
	)
	if err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data": fiber.Map{
			"token":  token,
			"roomId": roomID,
		},
	})
}
