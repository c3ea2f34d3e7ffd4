package controller

import "github.com/gofiber/fiber/v2"

// MessagesWith returns the caller's view of the history with one peer,
// oldest first, with the caller's cleared watermark applied.
func MessagesWith(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	peerID, err := c.ParamsInt("peerId")
	if err != nil || peerID <= 0 {
		return badInput(c)
	}

	messages, err := Store.MessagesBetween(id, uint(peerID))
	if err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    messages,
	})
}

// MessagesClear moves the caller's cleared watermark for one peer to now.
// The peer's view is untouched.
func MessagesClear(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	peerID, err := c.ParamsInt("peerId")
	if err != nil || peerID <= 0 {
		return badInput(c)
	}

	if err := Store.ClearConversation(id, uint(peerID)); err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    nil,
	})
}

// Conversations lists the caller's conversations, most recently active
// first, each with its last message preloaded.
func Conversations(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	convs, err := Store.ConversationsFor(id)
	if err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    convs,
	})
}
