package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"chat-service/ai"
	"chat-service/config"
	"chat-service/controller"
	"chat-service/database"
	"chat-service/event"
	"chat-service/event/listener"
	"chat-service/hub"
	"chat-service/logger"
	"chat-service/notify"
	"chat-service/registry"
	"chat-service/router"
	"chat-service/socketio"
	"chat-service/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	logger.Init()
	defer zap.L().Sync()

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "chat-service",
	})

	rest.Use(cors.New())

	database.RedisConnect()
	database.PostgresConnect()

	event.RabbitMQConnect([]string{
		event.QueueMailer,
		event.QueueAudit,
	})

	go listener.Mailer()
	go listener.Audit()

	event.RabbitMQSubscribe([]event.SubscribeListener{
		{Queue: event.QueueMailer, Channel: listener.MailerChannel},
		{Queue: event.QueueAudit, Channel: listener.AuditChannel},
	})

	db := store.New(database.Postgres)
	notifier := notify.New()
	controller.Init(db, notifier)

	var generator hub.Generator
	if url := config.Config("AI_URL"); url != "" {
		generator = ai.New(url, config.Config("AI_API_KEY"))
	}

	// The assistant identity is provisioned out of band; without one the
	// assistant branch simply never fires.
	var assistantID uint
	if assistant, err := db.Assistant(); err == nil {
		assistantID = assistant.ID
	} else {
		zap.L().Info("no assistant identity provisioned")
	}

	// Ringing attempts expire quickly; accepted calls keep their entry for
	// as long as any plausible call runs, so end-of-call routing can still
	// resolve the counterpart.
	ringTTL := durationConfig("CALL_CACHE_TTL", 90*time.Second)
	activeTTL := durationConfig("CALL_ACTIVE_TTL", 4*time.Hour)

	h := hub.New(hub.Config{
		Registry:    registry.New(),
		Store:       db,
		Emitter:     socketio.Transport{},
		Notifier:    notifier,
		Calls:       hub.NewRedisCallCache(database.Redis[database.RedisCallCache], ringTTL, activeTTL),
		Generator:   generator,
		AssistantID: assistantID,
	})

	socket := socketio.Init(rest)

	router.Rest(rest)
	router.Socket(socket, h)

	notifier.OnTransportReady(socketio.Transport{})

	go rest.Listen(fmt.Sprintf(":%s", config.Config("SERVER_PORT")))
	zap.L().Info("chat-service listening", zap.String("port", config.Config("SERVER_PORT")))

	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	socket.Close(nil)
	event.Close()
	os.Exit(0)
}

func durationConfig(key string, fallback time.Duration) time.Duration {
	raw := config.ConfigDefault(key, "")
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
