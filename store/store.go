// Package store wraps all persistent reads and writes over gorm. Handlers
// and controllers go through it instead of touching the database directly so
// the find-or-create and upsert invariants live in one place.
package store

import (
	"errors"

	"chat-service/model"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UserByID(id uint) (*model.User, error) {
	user := new(model.User)
	if err := s.db.First(user, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return user, nil
}

func (s *Store) UserByUsername(username string) (*model.User, error) {
	user := new(model.User)
	if err := s.db.Where(&model.User{Username: username}).First(user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return user, nil
}

func (s *Store) UserByEmail(email string) (*model.User, error) {
	user := new(model.User)
	if err := s.db.Where(&model.User{Email: email}).First(user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return user, nil
}

// Assistant resolves the designated AI identity, if one is provisioned.
func (s *Store) Assistant() (*model.User, error) {
	user := new(model.User)
	if err := s.db.Where(&model.User{Role: model.RoleAssistant}).First(user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return user, nil
}

func (s *Store) ListUsers() ([]model.User, error) {
	var users []model.User
	if err := s.db.Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
