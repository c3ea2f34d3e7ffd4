package controller

import (
	"encoding/json"
	"fmt"

	"chat-service/event"
	"chat-service/event/listener"
	"chat-service/model"
	"chat-service/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type FriendRequestInput struct {
	ReceiverID uint   `json:"receiverId"`
	Username   string `json:"username"`
}

type FriendRespondInput struct {
	Status string `json:"status"`
}

type FriendBlockInput struct {
	FriendID uint `json:"friendId"`
}

// FriendList returns the caller's friends with denormalized display fields.
func FriendList(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	friends, err := Store.FriendsOf(id)
	if err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    friends,
	})
}

// FriendRequestCreate opens a pending friend request addressed either by id
// or by username, persists a notification row for the receiver, and pushes
// the live event through the notifier so an online receiver sees it at once.
func FriendRequestCreate(c *fiber.Ctx) error {
	senderID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	input := new(FriendRequestInput)
	if err := c.BodyParser(input); err != nil {
		return badInput(c)
	}

	var receiver *model.User
	var err error
	switch {
	case input.ReceiverID != 0:
		receiver, err = Store.UserByID(input.ReceiverID)
	case input.Username != "":
		receiver, err = Store.UserByUsername(input.Username)
	default:
		return badInput(c)
	}
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
			"data":    nil,
		})
	}
	if err != nil {
		return internalError(c)
	}

	if receiver.ID == senderID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Cannot send a friend request to yourself",
			"data":    nil,
		})
	}

	req, err := Store.CreateFriendRequest(senderID, receiver.ID)
	if err == store.ErrRequestExists || err == store.ErrAlreadyFriends {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
			"data":    nil,
		})
	}
	if err != nil {
		return internalError(c)
	}

	sender, err := Store.UserByID(senderID)
	if err != nil {
		return internalError(c)
	}

	payload, _ := json.Marshal(fiber.Map{
		"requestId":      req.ID,
		"senderId":       senderID,
		"senderUsername": sender.Username,
	})
	if _, err := Store.CreateNotification(receiver.ID, "friend_request", string(payload)); err != nil {
		zap.L().Warn("friend request notification row not persisted", zap.Error(err))
	}

	Notifier.EmitToUser(userRoom(receiver.ID), "friend_request_received", map[string]any{
		"requestId":      req.ID,
		"senderId":       senderID,
		"senderUsername": sender.Username,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    req,
	})
}

// FriendRequestRespond accepts or declines a pending request. Only the
// addressed receiver may answer. Acceptance notifies the sender and sends a
// courtesy mail through the bus.
func FriendRequestRespond(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	requestID, err := c.ParamsInt("id")
	if err != nil || requestID <= 0 {
		return badInput(c)
	}

	input := new(FriendRespondInput)
	if err := c.BodyParser(input); err != nil {
		return badInput(c)
	}

	pending, err := Store.PendingRequestsFor(userID)
	if err != nil {
		return internalError(c)
	}
	addressed := false
	for _, p := range pending {
		if p.ID == uint(requestID) {
			addressed = true
			break
		}
	}
	if !addressed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Friend request not found",
			"data":    nil,
		})
	}

	req, err := Store.RespondFriendRequest(uint(requestID), input.Status)
	if err == store.ErrNotPending {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Friend request was already answered",
			"data":    nil,
		})
	}
	if err != nil {
		return internalError(c)
	}

	Notifier.EmitToUser(userRoom(req.SenderID), "friend_request_responded", map[string]any{
		"requestId": req.ID,
		"status":    req.Status,
	})

	if req.Status == model.RequestAccepted {
		if sender, err := Store.UserByID(req.SenderID); err == nil {
			if receiver, err := Store.UserByID(req.ReceiverID); err == nil {
				mail, _ := json.Marshal(listener.MailRequest{
					To:      sender.Email,
					Subject: "Friend request accepted",
					Body:    fmt.Sprintf("%s accepted your friend request.", receiver.Username),
				})
				if err := event.Emit(event.QueueMailer, "friend_accepted", mail); err != nil {
					zap.L().Warn("mail enqueue failed", zap.Error(err))
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    req,
	})
}

// FriendRequestsPending lists requests waiting on the caller's answer.
func FriendRequestsPending(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	reqs, err := Store.PendingRequestsFor(id)
	if err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    reqs,
	})
}

// FriendBlock marks the pair blocked in both directions.
func FriendBlock(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	input := new(FriendBlockInput)
	if err := c.BodyParser(input); err != nil || input.FriendID == 0 {
		return badInput(c)
	}

	if err := Store.BlockFriend(id, input.FriendID); err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": nil,
		"data":    nil,
	})
}

// FriendUnblock lifts a block. Only the user who placed it may do so.
func FriendUnblock(c *fiber.Ctx) error {
	id, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	input := new(FriendBlockInput)
	if err := c.BodyParser(input); err != nil || input.FriendID == 0 {
		return badInput(c)
	}

	err := Store.UnblockFriend(id, input.FriendID)
	if err == store.ErrNotBlocker {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Only the blocking user may unblock",
			"data":    nil,
		})
	}
	if err == store.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Friend not found",
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

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": "Unauthorized",
		"data":    nil,
	})
}

func badInput(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Review your input",
		"data":    nil,
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error",
		"data":    nil,
	})
}
