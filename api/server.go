// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/poiesic/todoey/dispatch"
)

// Server exposes a repository over HTTP.
type Server struct {
	dispatcher *dispatch.Dispatcher
	echo       *echo.Echo
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the logger for request and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates a server whose handlers run through d.
func NewServer(d *dispatch.Dispatcher, opts ...Option) (*Server, error) {
	if d == nil {
		return nil, ErrDispatcherRequired
	}

	s := &Server{
		dispatcher: d,
		echo:       echo.New(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "api")

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/health", s.health)

	e.GET("/categories", s.listCategories)
	e.POST("/categories", s.createCategory)
	e.GET("/categories/search", s.searchCategories)
	e.GET("/categories/:id", s.getCategory)
	e.PATCH("/categories/:id", s.renameCategory)
	e.DELETE("/categories/:id", s.deleteCategory)

	e.GET("/categories/:id/items", s.listItems)
	e.POST("/categories/:id/items", s.createItem)
	e.GET("/categories/:id/items/search", s.searchItems)

	e.GET("/items/:id", s.getItem)
	e.POST("/items/:id/toggle", s.toggleItem)
	e.PATCH("/items/:id", s.renameItem)
	e.DELETE("/items/:id", s.deleteItem)
}

// ServeHTTP lets the server be mounted on any http.Handler stack.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("server starting", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
