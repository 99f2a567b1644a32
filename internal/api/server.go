package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/Victorh-Tasca/discord-example-app/internal/api/handler/v1"
	"github.com/Victorh-Tasca/discord-example-app/internal/api/middleware"
	"github.com/Victorh-Tasca/discord-example-app/internal/config"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	Live   *v1.LiveHandler
}

func NewServer(conf *config.AppConfig, raffles v1.RaffleService) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	raffleHandler := v1.NewRaffleHandler(raffles)
	healthHandler := v1.NewHealthHandler(time.Now())
	s.Live = v1.NewLiveHandler(raffles)
	s.MountHandlers(raffleHandler, healthHandler, s.Live)

	return s
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.Logger())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(raffleHandler *v1.RaffleHandler, healthHandler *v1.HealthHandler, liveHandler *v1.LiveHandler) {
	const basePath = "/api/v1"

	api := s.Router.Group(basePath)
	{
		api.GET("/healthz", healthHandler.HandleHealthz)
		api.GET("/raffles", raffleHandler.HandleListRaffles)
		api.GET("/raffles/:raffleID", raffleHandler.HandleGetRaffle)
		api.GET("/raffles/:raffleID/live", liveHandler.HandleLive)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.Live.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start the server -> %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown -> %w", err)
	}

	return nil
}
