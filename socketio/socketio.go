package socketio

import (
	"context"
	"time"

	"chat-service/database"
	"chat-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/zishang520/socket.io-go-redis/adapter"
	r_type "github.com/zishang520/socket.io-go-redis/types"
	"github.com/zishang520/socket.io/v2/socket"
)

var server *socket.Server

func Init(app *fiber.App) *socket.Server {
	options := socket.DefaultServerOptions()
	options.SetServeClient(true)
	options.SetAllowEIO3(true)
	options.SetPingInterval(25 * time.Second)
	options.SetPingTimeout(20 * time.Second)
	options.SetMaxHttpBufferSize(100000000)
	options.SetConnectTimeout(10 * time.Second)
	options.SetAdapter(&adapter.RedisAdapterBuilder{
		Redis: r_type.NewRedisClient(context.Background(), database.Redis[database.RedisSocketIO]),
		Opts:  &adapter.RedisAdapterOptions{},
	})

	server = socket.NewServer(nil, nil)

	// Authenticate the handshake but leave room membership to the explicit
	// join_room event: registration is a client intent, not a transport
	// side effect.
	server.Use(func(client *socket.Socket, next func(*socket.ExtendedError)) {
		token, auth := client.Conn().Request().Query().Get("token")

		if auth {
			claims, err := utils.CheckAndExtractTokenMetadata(token, "JWT_ACCESS_KEY")

			if err == nil && !claims.Otp {
				client.SetData(claims)
			}
		}

		next(nil)
	})

	app.Get("/socket.io/", adaptor.HTTPHandler(server.ServeHandler(options)))
	app.Post("/socket.io/", adaptor.HTTPHandler(server.ServeHandler(options)))

	return server
}

func Broadcast(event string, message ...any) {
	server.FetchSockets()(func(sockets []*socket.RemoteSocket, _ error) {
		for _, s := range sockets {
			s.Emit(event, message...)
		}
	})
}

func Emit(id string, event string, message ...any) {
	server.To(socket.Room(id)).Emit(event, message...)
}

// Transport adapts the package-level server to the interfaces the hub and
// the notifier consume.
type Transport struct{}

func (Transport) Emit(room string, event string, payload ...any) {
	Emit(room, event, payload...)
}

func (Transport) Broadcast(event string, payload ...any) {
	Broadcast(event, payload...)
}
