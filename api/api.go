package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
	"go.uber.org/zap"
)

// BodyLimit leaves room for a 5 MB avatar plus multipart overhead
const BodyLimit = 6 << 20

type APIServer struct {
	app           *fiber.App
	listenAddress string
	log           *zap.Logger
}

// NewApp builds the fiber app with the shared error envelope
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "curriculum-tracker",
		BodyLimit:    BodyLimit,
		ErrorHandler: errorHandler,
	})
}

func NewAPIServer(listenAddress string, log *zap.Logger) *APIServer {
	return &APIServer{
		app:           NewApp(),
		listenAddress: listenAddress,
		log:           log,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run blocks until the server stops
func (s *APIServer) Run() error {
	s.log.Info("starting API server", zap.String("addr", s.listenAddress))
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

// errorHandler renders fiber errors (404 routes, body limit, panics turned
// into errors) in the same envelope as handler responses
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return response.NotFound(c, fe.Message)
		case fiber.StatusRequestEntityTooLarge:
			return response.Error(c, fe.Code, "Request body too large", "PAYLOAD_TOO_LARGE")
		}
		return response.Error(c, fe.Code, fe.Message, "ERROR")
	}
	return response.FromError(c, err)
}
