package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cardshop/internal/auth"
	apperrors "cardshop/internal/errors"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	return e
}

type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) Upload(ctx context.Context, session *auth.Session, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, session, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockImageService) URL(ctx context.Context, session *auth.Session, contentID string) (string, error) {
	args := m.Called(ctx, session, contentID)
	return args.String(0), args.Error(1)
}

func multipartBody(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "card.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestImageHandlerUpload(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	session := &auth.Session{UserID: "u1"}

	t.Run("stores the file", func(t *testing.T) {
		svc := new(MockImageService)
		svc.On("Upload", mock.Anything, session, png, mock.Anything).Return("cid-1", nil)

		body, contentType := multipartBody(t, "file", png)
		req := httptest.NewRequest(http.MethodPost, "/uploads", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := httptest.NewRecorder()
		c := newEcho().NewContext(req, rec)
		auth.SetSession(c, session)

		require.NoError(t, NewImageHandler(svc).Upload(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "cid-1")
		svc.AssertExpectations(t)
	})

	t.Run("missing file field", func(t *testing.T) {
		svc := new(MockImageService)

		body, contentType := multipartBody(t, "other", png)
		req := httptest.NewRequest(http.MethodPost, "/uploads", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		c := newEcho().NewContext(req, httptest.NewRecorder())
		auth.SetSession(c, session)

		err := NewImageHandler(svc).Upload(c)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		svc := new(MockImageService)
		svc.On("Upload", mock.Anything, session, png, mock.Anything).Return("", apperrors.ErrUpstream)

		body, contentType := multipartBody(t, "file", png)
		req := httptest.NewRequest(http.MethodPost, "/uploads", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		c := newEcho().NewContext(req, httptest.NewRecorder())
		auth.SetSession(c, session)

		err := NewImageHandler(svc).Upload(c)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadGateway, he.Code)
		assert.ErrorIs(t, he.Internal, apperrors.ErrUpstream)
	})
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "malformed json", body: `{"email":`, code: "INVALID_REQUEST"},
		{name: "missing fields", body: `{"email":"a@example.com"}`, code: "VALIDATION_ERROR"},
		{name: "bad email", body: `{"email":"nope","password":"secret"}`, code: "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			c := newEcho().NewContext(req, httptest.NewRecorder())

			var login LoginRequest
			err := bindAndValidate(c, &login)
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusBadRequest, he.Code)
			resp, ok := he.Message.(apperrors.ErrorResponse)
			require.True(t, ok)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperrors.ErrNotFound, http.StatusNotFound},
		{apperrors.ErrForbidden, http.StatusForbidden},
		{apperrors.ErrInvalidTransition, http.StatusConflict},
		{apperrors.ErrProfileRequired, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			var he *echo.HTTPError
			require.ErrorAs(t, respondError(tt.err), &he)
			assert.Equal(t, tt.status, he.Code)
			assert.Equal(t, tt.err, he.Internal)
		})
	}
}
