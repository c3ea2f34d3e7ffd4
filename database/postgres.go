package database

import (
	"fmt"

	"chat-service/config"
	"chat-service/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var Postgres *gorm.DB

func PostgresConnect() {
	var err error
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.Config("POSTGRES_HOST"),
		config.Config("POSTGRES_PORT"),
		config.Config("POSTGRES_USER"),
		config.Config("POSTGRES_PASSWORD"),
		config.Config("POSTGRES_DB"),
	)
	Postgres, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect postgres")
	}

	zap.L().Info("connection opened to Postgres")
	Migrate(Postgres)
	zap.L().Info("Postgres database migrated")
}

// Migrate applies the schema. Split out so tests can run it against an
// in-memory sqlite database.
func Migrate(db *gorm.DB) {
	db.AutoMigrate(
		&model.User{},
		&model.Friend{},
		&model.FriendRequest{},
		&model.Conversation{},
		&model.ConversationState{},
		&model.Message{},
		&model.Notification{},
	)
}
