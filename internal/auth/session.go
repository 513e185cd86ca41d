// Package auth issues sessions and decides who may do what with them.
package auth

import (
	"github.com/labstack/echo/v4"
)

const sessionContextKey = "session"

// Session is the authenticated identity of a request. It is the sole
// authorization input of the service layer.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Admin  int    `json:"admin"`

	// TokenID and Claims identify the access token the session came from.
	TokenID string  `json:"-"`
	Claims  *Claims `json:"-"`
}

// IsAdmin reports whether the admin flag is exactly 1.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Admin == 1
}

// SetSession stores the session on the echo context.
func SetSession(c echo.Context, s *Session) {
	c.Set(sessionContextKey, s)
}

// GetSession returns the request session, or nil when anonymous.
func GetSession(c echo.Context) *Session {
	s, _ := c.Get(sessionContextKey).(*Session)
	return s
}
