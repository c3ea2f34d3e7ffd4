package store

import (
	"errors"

	"chat-service/model"

	"gorm.io/gorm"
)

var (
	ErrRequestExists  = errors.New("friend request already open between these users")
	ErrAlreadyFriends = errors.New("users are already friends")
	ErrNotPending     = errors.New("friend request is not pending")
	ErrNotBlocker     = errors.New("only the blocking user may unblock")
)

// FriendsOf returns the user's outgoing friend edges.
func (s *Store) FriendsOf(userID uint) ([]model.Friend, error) {
	var friends []model.Friend
	if err := s.db.Where(&model.Friend{UserID: userID}).Order("friend_username asc").Find(&friends).Error; err != nil {
		return nil, err
	}
	return friends, nil
}

// AreFriends reports whether a directed edge a -> b exists.
func (s *Store) AreFriends(a, b uint) (bool, error) {
	var count int64
	err := s.db.Model(&model.Friend{}).
		Where(&model.Friend{UserID: a, FriendID: b}).
		Count(&count).Error
	return count > 0, err
}

// IsBlockedBetween reports whether either direction of the pair is blocked.
func (s *Store) IsBlockedBetween(a, b uint) (bool, error) {
	var count int64
	err := s.db.Model(&model.Friend{}).
		Where("((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)) AND is_blocked = ?",
			a, b, b, a, true).
		Count(&count).Error
	return count > 0, err
}

// UpsertFriendEdge creates or refreshes the directed edge owner -> friend
// with the friend's denormalized display fields.
func (s *Store) UpsertFriendEdge(ownerID uint, friend *model.User) error {
	edge := new(model.Friend)
	err := s.db.Where(&model.Friend{UserID: ownerID, FriendID: friend.ID}).First(edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&model.Friend{
			UserID:         ownerID,
			FriendID:       friend.ID,
			FriendUsername: friend.Username,
			FriendAvatar:   friend.Avatar,
		}).Error
	}
	if err != nil {
		return err
	}
	edge.FriendUsername = friend.Username
	edge.FriendAvatar = friend.Avatar
	return s.db.Save(edge).Error
}

// BlockFriend marks both directions of the pair blocked and records who did
// it. Edges stay in place; blocking is soft state.
func (s *Store) BlockFriend(blockerID, friendID uint) error {
	return s.db.Model(&model.Friend{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			blockerID, friendID, friendID, blockerID).
		Updates(map[string]any{"is_blocked": true, "blocked_by": blockerID}).Error
}

// UnblockFriend clears the block on both directions. Only the user who
// placed the block may lift it.
func (s *Store) UnblockFriend(userID, friendID uint) error {
	edge := new(model.Friend)
	err := s.db.Where(&model.Friend{UserID: userID, FriendID: friendID}).First(edge).Error
	if err != nil {
		return wrapNotFound(err)
	}
	if !edge.IsBlocked {
		return nil
	}
	if edge.BlockedBy == nil || *edge.BlockedBy != userID {
		return ErrNotBlocker
	}
	return s.db.Model(&model.Friend{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
		Updates(map[string]any{"is_blocked": false, "blocked_by": nil}).Error
}

// CreateFriendRequest opens a pending request. Rejected when the pair is
// already friends or a pending request already exists in either direction.
func (s *Store) CreateFriendRequest(senderID, receiverID uint) (*model.FriendRequest, error) {
	friends, err := s.AreFriends(senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	var count int64
	err = s.db.Model(&model.FriendRequest{}).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
			senderID, receiverID, receiverID, senderID, model.RequestPending).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrRequestExists
	}

	req := &model.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     model.RequestPending,
	}
	if err := s.db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// RespondFriendRequest moves a pending request to accepted or declined,
// exactly once. Acceptance upserts the friend edge in both directions so
// each user can look the other up afterwards.
func (s *Store) RespondFriendRequest(requestID uint, status string) (*model.FriendRequest, error) {
	req := new(model.FriendRequest)
	if err := s.db.First(req, requestID).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	if req.Status != model.RequestPending {
		return nil, ErrNotPending
	}
	if status != model.RequestAccepted && status != model.RequestDeclined {
		return nil, errors.New("status must be accepted or declined")
	}

	req.Status = status
	if err := s.db.Save(req).Error; err != nil {
		return nil, err
	}

	if status == model.RequestAccepted {
		sender, err := s.UserByID(req.SenderID)
		if err != nil {
			return nil, err
		}
		receiver, err := s.UserByID(req.ReceiverID)
		if err != nil {
			return nil, err
		}
		if err := s.UpsertFriendEdge(req.SenderID, receiver); err != nil {
			return nil, err
		}
		if err := s.UpsertFriendEdge(req.ReceiverID, sender); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// PendingRequestsFor lists requests awaiting the receiver's answer.
func (s *Store) PendingRequestsFor(receiverID uint) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := s.db.Where(&model.FriendRequest{ReceiverID: receiverID, Status: model.RequestPending}).
		Order("created_at asc").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}
