package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cardshop/internal/errors"
)

func TestRequireAuthenticated(t *testing.T) {
	s, err := RequireAuthenticated(nil, "/login")
	assert.Nil(t, s)
	var redirect *Redirect
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "/login", redirect.Target)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	session := &Session{UserID: "u1"}
	s, err = RequireAuthenticated(session, "/login")
	require.NoError(t, err)
	assert.Same(t, session, s)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		session    *Session
		wantTarget string
		wantErr    error
	}{
		{"no session", nil, "/login", apperrors.ErrUnauthorized},
		{"regular user", &Session{UserID: "u1", Admin: 0}, "/", apperrors.ErrForbidden},
		{"unexpected flag value", &Session{UserID: "u1", Admin: 2}, "/", apperrors.ErrForbidden},
		{"admin", &Session{UserID: "u1", Admin: 1}, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := RequireAdmin(tt.session, "/login", "/")
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Same(t, tt.session, s)
				return
			}
			assert.Nil(t, s)
			var redirect *Redirect
			require.ErrorAs(t, err, &redirect)
			assert.Equal(t, tt.wantTarget, redirect.Target)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	h := AdminOnly("/login", "/")(ok)

	tests := []struct {
		name       string
		session    *Session
		accept     string
		wantStatus int
		wantLoc    string
	}{
		{"api anonymous", nil, echo.MIMEApplicationJSON, http.StatusUnauthorized, ""},
		{"api user", &Session{UserID: "u1"}, echo.MIMEApplicationJSON, http.StatusForbidden, ""},
		{"browser anonymous", nil, "text/html,application/xhtml+xml", http.StatusSeeOther, "/login"},
		{"browser user", &Session{UserID: "u1"}, "text/html", http.StatusSeeOther, "/"},
		{"admin", &Session{UserID: "u1", Admin: 1}, echo.MIMEApplicationJSON, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/admin/offers", nil)
			req.Header.Set(echo.HeaderAccept, tt.accept)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.session != nil {
				SetSession(c, tt.session)
			}

			err := h(c)
			if he, isHTTP := err.(*echo.HTTPError); isHTTP {
				assert.Equal(t, tt.wantStatus, he.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get(echo.HeaderLocation))
		})
	}
}
