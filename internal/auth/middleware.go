package auth

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const claimsContextKey = "user"

// SessionMiddleware turns a valid bearer access token into the request
// session. Missing, invalid and revoked tokens leave the request anonymous;
// the guards decide whether anonymous access is acceptable.
func SessionMiddleware(jwtService *JWTService, tokenStore TokenStoreInterface, logger *zap.Logger) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             claimsContextKey,
		TokenLookup:            "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContinueOnIgnoredError: true,
		ErrorHandler: func(c echo.Context, err error) error {
			return nil
		},
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				return nil, err
			}
			revoked, err := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if err != nil {
				// Fails open: with redis down a logged-out token stays usable
				// until it expires.
				logger.Warn("revocation check failed, accepting token",
					zap.String("token_id", claims.ID),
					zap.String("user_id", claims.UserID),
					zap.Error(err),
				)
			}
			if revoked {
				return nil, errors.New("token revoked")
			}
			return claims, nil
		},
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get(claimsContextKey).(*Claims); ok {
				SetSession(c, claims.Session())
			}
		},
	})
}
