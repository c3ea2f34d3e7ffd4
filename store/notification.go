package store

import "chat-service/model"

func (s *Store) CreateNotification(userID uint, kind, payload string) (*model.Notification, error) {
	n := &model.Notification{UserID: userID, Kind: kind, Payload: payload}
	if err := s.db.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Store) NotificationsFor(userID uint) ([]model.Notification, error) {
	var notifications []model.Notification
	err := s.db.Where(&model.Notification{UserID: userID}).
		Order("created_at desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the user's notifications as read.
func (s *Store) MarkNotificationRead(id, userID uint) error {
	result := s.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
