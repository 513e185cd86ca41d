package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "cardshop/internal/errors"
)

// Redirect signals that the request must be sent elsewhere instead of being
// served. Status is 401 when no session exists and 403 when it lacks rights.
type Redirect struct {
	Target string
	Status int
}

func (r *Redirect) Error() string {
	return "redirect to " + r.Target
}

// Unwrap maps the redirect onto the error taxonomy.
func (r *Redirect) Unwrap() error {
	if r.Status == http.StatusForbidden {
		return apperrors.ErrForbidden
	}
	return apperrors.ErrUnauthorized
}

// RequireAuthenticated returns s unchanged, or a redirect to target when there is no session.
func RequireAuthenticated(s *Session, target string) (*Session, error) {
	if s == nil {
		return nil, &Redirect{Target: target, Status: http.StatusUnauthorized}
	}
	return s, nil
}

// RequireAdmin returns s unchanged when its admin flag is 1. Anonymous requests
// are redirected to noSessionTarget and everybody else to notAdminTarget.
func RequireAdmin(s *Session, noSessionTarget, notAdminTarget string) (*Session, error) {
	if s == nil {
		return nil, &Redirect{Target: noSessionTarget, Status: http.StatusUnauthorized}
	}
	if s.Admin != 1 {
		return nil, &Redirect{Target: notAdminTarget, Status: http.StatusForbidden}
	}
	return s, nil
}

// Authenticated is echo middleware around RequireAuthenticated.
func Authenticated(loginTarget string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := RequireAuthenticated(GetSession(c), loginTarget); err != nil {
				return respondRedirect(c, err.(*Redirect))
			}
			return next(c)
		}
	}
}

// AdminOnly is echo middleware around RequireAdmin.
func AdminOnly(loginTarget, homeTarget string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := RequireAdmin(GetSession(c), loginTarget, homeTarget); err != nil {
				return respondRedirect(c, err.(*Redirect))
			}
			return next(c)
		}
	}
}

// respondRedirect sends browsers to the target and gives API clients the status.
func respondRedirect(c echo.Context, r *Redirect) error {
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		return c.Redirect(http.StatusSeeOther, r.Target)
	}
	httpErr := apperrors.MapErrorToHTTP(r)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
