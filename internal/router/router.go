package router

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"cardshop/internal/auth"
	"cardshop/internal/handler"
)

const (
	loginTarget = "/login"
	homeTarget  = "/"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Article *handler.ArticleHandler
	Offer   *handler.OfferHandler
	Order   *handler.OrderHandler
	Contact *handler.ContactHandler
	Image   *handler.ImageHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	logger *zap.Logger,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	h Handlers,
) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api", auth.SessionMiddleware(jwtService, tokenStore, logger))

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.GET("/articles", h.Article.List)
	api.GET("/articles/:id", h.Article.Get)
	api.POST("/contact", h.Contact.Send)
	api.POST("/webhooks/payment", h.Order.Webhook)

	// Routes for signed-in users
	secured := api.Group("", auth.Authenticated(loginTarget))

	secured.POST("/auth/logout", h.Auth.Logout)

	secured.GET("/me", h.User.Me)
	secured.PATCH("/me", h.User.UpdateMe)
	secured.PUT("/me/password", h.User.ChangePassword)
	secured.GET("/me/profile", h.User.GetProfile)
	secured.PUT("/me/profile", h.User.SaveProfile)

	secured.POST("/uploads", h.Image.Upload, middleware.BodyLimit("6M"))
	secured.GET("/images/:cid", h.Image.URL)

	secured.GET("/offers", h.Offer.ListMine)
	secured.POST("/offers", h.Offer.Create)
	secured.GET("/offers/:id", h.Offer.Get)
	secured.PUT("/offers/:id", h.Offer.Update)
	secured.DELETE("/offers/:id", h.Offer.Delete)
	secured.POST("/offers/:id/tracking", h.Offer.AddTracking)

	secured.POST("/checkout", h.Order.Checkout)
	secured.GET("/orders", h.Order.ListMine)
	secured.GET("/orders/:id", h.Order.Get)

	// Admin routes
	admin := api.Group("/admin", auth.AdminOnly(loginTarget, homeTarget))

	admin.GET("/offers", h.Offer.ListAll)
	admin.POST("/offers/:id/accept", h.Offer.Accept)
	admin.POST("/offers/:id/deny", h.Offer.Deny)
	admin.POST("/offers/:id/confirm-payment", h.Offer.ConfirmPayment)
	admin.DELETE("/offers/:id", h.Offer.Delete)

	admin.GET("/orders", h.Order.ListAll)
	admin.POST("/orders/:id/paid", h.Order.MarkPaid)
	admin.POST("/orders/:id/cancelled", h.Order.MarkCancelled)

	admin.POST("/articles", h.Article.Create)
	admin.PUT("/articles/:id", h.Article.Update)
	admin.DELETE("/articles/:id", h.Article.Delete)

	admin.GET("/users", h.User.ListUsers)
	admin.PUT("/users/:id/admin", h.User.SetAdmin)
	admin.POST("/users/:id/points", h.User.AdjustPoints)
}

// requestLogger logs one line per request. Server errors carry the
// underlying cause.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error == nil {
				logger.Info("request", fields...)
				return nil
			}
			var he *echo.HTTPError
			if errors.As(v.Error, &he) && he.Internal != nil {
				fields = append(fields, zap.NamedError("cause", he.Internal))
			}
			fields = append(fields, zap.Error(v.Error))
			if v.Status >= http.StatusInternalServerError {
				logger.Error("request failed", fields...)
			} else {
				logger.Warn("request rejected", fields...)
			}
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
