package frontend

import (
	"bytes"
	"context"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jo-hoe/lovenotes/internal/core"
	"github.com/jo-hoe/lovenotes/internal/photo"
	"github.com/labstack/echo/v4"
)

func newTestFrontend(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := &core.ServiceConfig{Database: core.Database{Type: "sqlite", ConnectionString: ":memory:"}}
	cfg.ApplyDefaults()
	coreService := core.NewCoreService(context.Background(), cfg)
	t.Cleanup(func() { _ = coreService.Close() })

	e := echo.New()
	NewFrontendService(coreService).SetRoutes(e)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIndexPage(t *testing.T) {
	e := newTestFrontend(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("expected redirect from root, got %d", rec.Code)
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/"+MainPageName, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{core.DefaultMusicURL, "Special Moments", "5 MB", `hx-post="/htmx/photos"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected index page to contain %q", want)
		}
	}
}

func TestGalleryFragment(t *testing.T) {
	e := newTestFrontend(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/htmx/photos", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.Count(rec.Body.String(), "<article"); got != 12 {
		t.Fatalf("expected 12 cards, got %d", got)
	}
	if !strings.Contains(rec.Body.String(), "January 29, 2025") {
		t.Error("expected human readable capture date")
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/htmx/photos?category=Travel", nil))
	if !strings.Contains(rec.Body.String(), "No photos yet.") {
		t.Errorf("expected empty state for Travel, got %s", rec.Body.String())
	}

	rec = serve(e, httptest.NewRequest(http.MethodDelete, "/htmx/photos/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	if got := strings.Count(rec.Body.String(), "<article"); got != 11 {
		t.Fatalf("expected 11 cards after delete, got %d", got)
	}
}

func TestUploadFragment_ShowsValidationMessage(t *testing.T) {
	e := newTestFrontend(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("caption", "<b>hi</b>")
	_ = writer.WriteField("category", string(photo.Travel))
	part, err := writer.CreateFormFile("image", "doc.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/htmx/photos", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := serve(e, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unsupported format") || !strings.Contains(rec.Body.String(), `role="alert"`) {
		t.Fatalf("expected unsupported format alert, got %s", rec.Body.String())
	}
}

func TestIconPNG(t *testing.T) {
	e := newTestFrontend(t)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/icon.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("expected a PNG, got %v", err)
	}
	if b := img.Bounds(); b.Dx() != iconPNGSize || b.Dy() != iconPNGSize {
		t.Fatalf("expected %dx%d icon, got %dx%d", iconPNGSize, iconPNGSize, b.Dx(), b.Dy())
	}

	// the heart is filled near the centre and transparent in the corner
	_, _, _, centre := img.At(iconPNGSize/2, iconPNGSize/2).RGBA()
	_, _, _, corner := img.At(1, 1).RGBA()
	if centre == 0 || corner != 0 {
		t.Errorf("unexpected alpha values: centre=%d corner=%d", centre, corner)
	}
}
