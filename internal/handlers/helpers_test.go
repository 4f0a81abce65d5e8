package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/validators"
	"github.com/labstack/echo/v4"
)

func newContext(req *http.Request) echo.Context {
	e := echo.New()
	e.Validator = validators.NewValidator()
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetUserIDFromContext(t *testing.T) {
	c := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := getUserIDFromContext(c); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Errorf("err = %v, want Unauthorized", err)
	}
	c.Set(middleware.UserIDKey, "u1")
	if id, err := getUserIDFromContext(c); err != nil || id != "u1" {
		t.Errorf("got (%q, %v)", id, err)
	}
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"malformed json", `{"title":`, "payload"},
		{"missing body", `{"title":"hi"}`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			var dst models.CreatePostRequest
			err := bindAndValidate(newContext(req), &dst)
			if !apperr.Is(err, apperr.KindBadRequest) {
				t.Fatalf("err = %v, want BadRequest", err)
			}
			if _, ok := apperr.DetailsOf(err)[tt.wantField]; !ok {
				t.Errorf("details = %v, want key %q", apperr.DetailsOf(err), tt.wantField)
			}
		})
	}
}

func TestReadImage(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("title", "t")
	fw, _ := mw.CreateFormFile("image", "a.gif")
	_, _ = fw.Write([]byte("GIF89a"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/posts", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	upload, err := readImage(newContext(req))
	if err != nil {
		t.Fatal(err)
	}
	if upload == nil || upload.Name != "a.gif" || string(upload.Data) != "GIF89a" {
		t.Errorf("upload = %+v", upload)
	}

	var empty bytes.Buffer
	mw = multipart.NewWriter(&empty)
	_ = mw.WriteField("title", "t")
	_ = mw.Close()
	req = httptest.NewRequest(http.MethodPost, "/posts", &empty)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	if upload, err := readImage(newContext(req)); err != nil || upload != nil {
		t.Errorf("no file part: got (%+v, %v)", upload, err)
	}
}
