package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/handlers"
	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/pkg/response"
	"github.com/anonto42/nano-feed/backend/validators"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Deps are the services and collaborators the HTTP layer is built from.
type Deps struct {
	Auth          *services.AuthService
	Feed          *services.FeedService
	Search        *services.SearchService
	Trending      *services.TrendingService
	Profiles      *services.ProfileService
	Notifications *services.NotificationService
	Coordinator   *services.Coordinator

	Resolvers []middleware.Resolver
	Health    handlers.Pinger
	// Images, when set, is served under ImagePrefix.
	Images      handlers.ImageSource
	ImagePrefix string
	ServiceName string
	Logger      logrus.FieldLogger
}

// SetupMiddleware configures global Echo middleware, the validator and the error handler.
func SetupMiddleware(e *echo.Echo, logger logrus.FieldLogger) {
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestID())
	e.Use(eMiddleware.CORS())
	e.Use(middleware.RequestLogger(logger))
}

// SetupRoutes configures all application routes.
func SetupRoutes(e *echo.Echo, d Deps) {
	e.GET("/health", handlers.NewHealthHandler(d.Health, d.ServiceName).HealthCheck)
	if d.Images != nil {
		handlers.NewImageHandler(d.Images).RegisterImageRoutes(e, d.ImagePrefix)
	}

	feedHandler := handlers.NewFeedHandler(d.Feed, d.Search, d.Trending)

	// Unprotected routes
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(d.Auth).RegisterAuthRoutes(authGroup)
	feedHandler.RegisterPublicRoutes(e.Group("/api/v1"))

	// Protected routes
	api := e.Group("/api/v1", middleware.RequireIdentity(d.Resolvers...))
	feedHandler.RegisterFeedRoutes(api)
	handlers.NewPostHandler(d.Coordinator, d.Profiles).RegisterPostRoutes(api)
	handlers.NewLikeHandler(d.Coordinator).RegisterLikeRoutes(api)
	handlers.NewCommentHandler(d.Coordinator).RegisterCommentRoutes(api)
	handlers.NewSavedPostHandler(d.Coordinator).RegisterSavedPostRoutes(api)
	handlers.NewFollowHandler(d.Coordinator).RegisterFollowRoutes(api)
	handlers.NewUserHandler(d.Profiles).RegisterProfileRoutes(api)
	handlers.NewNotificationHandler(d.Notifications).RegisterNotificationRoutes(api)

	d.Logger.WithField("routes", len(e.Routes())).Info("All routes configured")
}

// ErrorHandler renders every error as a failure envelope. Classified errors
// keep their own status and message; anything else is a 500 whose detail
// is logged but never returned.
func ErrorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := apperr.Message(err)
		var data any

		var ae *apperr.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = apperr.HTTPStatus(ae.Kind)
			if details := apperr.DetailsOf(err); len(details) > 0 {
				data = details
			}
		case errors.As(err, &he):
			status = he.Code
			message = fmt.Sprint(he.Message)
		}

		if status >= http.StatusInternalServerError {
			logger.WithError(err).WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Path(),
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = response.Error(c, status, message, data)
		}
		if err != nil {
			logger.WithError(err).Warn("failed to write error response")
		}
	}
}
