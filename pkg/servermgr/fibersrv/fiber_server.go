package fibersrv

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/marcodd23/go-micro-dbx/pkg/configmgr"
	"github.com/marcodd23/go-micro-dbx/pkg/logx"
	"github.com/marcodd23/go-micro-dbx/pkg/servermgr"
)

// FiberServer - Fiber server.
type FiberServer struct {
	Server *fiber.App
	config configmgr.Config
}

var _ servermgr.Server[*fiber.App] = (*FiberServer)(nil)

// NewFiberServer - Fiber server constructor.
func NewFiberServer(config configmgr.Config) *FiberServer {
	return &FiberServer{Server: fiber.New(buildFiberConfig(config)), config: config}
}

func buildFiberConfig(config configmgr.Config) fiber.Config {
	fiberConfig := fiber.Config{
		AppName:       config.GetServiceName(),
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		JSONEncoder:   json.Marshal,
		JSONDecoder:   json.Unmarshal,
		ErrorHandler:  errorHandler,
	}

	if serverConfig := config.GetServerConfig(); serverConfig != nil {
		fiberConfig.Concurrency = serverConfig.Concurrency
		fiberConfig.DisableStartupMessage = serverConfig.DisableStartupMessage
	}

	return fiberConfig
}

// GetServer - return the fiber server.
func (srv *FiberServer) GetServer() *fiber.App {
	return srv.Server
}

// RunSync - Run the server, blocking until it stops.
func (srv *FiberServer) RunSync() error {
	return srv.listen()
}

// RunAsync - Run the server in the background.
func (srv *FiberServer) RunAsync() {
	go func() {
		if err := srv.listen(); err != nil {
			logx.GetLogger().LogPanic(context.TODO(), "Oops... server is not running! error:", err)
		}
	}()
}

// Setup - Receive a callback function setupFunc that let to configure the server.
func (srv *FiberServer) Setup(ctx context.Context, setupFunc func(fiber *fiber.App)) {
	setupFunc(srv.Server)
}

// Shutdown - shutdown the server, waiting for in-flight requests until ctx is done.
func (srv *FiberServer) Shutdown(ctx context.Context) error {
	if err := srv.Server.ShutdownWithContext(ctx); err != nil {
		logx.GetLogger().LogError(ctx, "Error shutting down the Server", err)
		return err
	}

	logx.GetLogger().LogInfo(ctx, "Server shut down.. ")

	return nil
}

func (srv *FiberServer) listen() error {
	port := "8080"
	if serverConfig := srv.config.GetServerConfig(); serverConfig != nil && serverConfig.Port != "" {
		port = serverConfig.Port
	}

	return srv.Server.Listen(fmt.Sprintf(":%s", port))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}

	logx.GetLogger().LogError(c.UserContext(), fmt.Sprintf("Request %s %s failed", c.Method(), c.Path()), err)

	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
