package frontend

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jo-hoe/lovenotes/internal/backend"
	"github.com/jo-hoe/lovenotes/internal/backend/intake"
	"github.com/jo-hoe/lovenotes/internal/core"
	"github.com/jo-hoe/lovenotes/internal/photo"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"

	displayDateLayout = "January 2, 2006"
)

type FrontendService struct {
	coreService *core.CoreService
}

// Template renders the embedded views
type Template struct {
	templates *template.Template
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

type indexData struct {
	MusicURL           string
	Categories         []photo.FilterOption
	StorableCategories []photo.Category
	ReadOnly           bool
	MaxFileSize        string
	Accept             string
}

func NewFrontendService(coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = &Template{
		templates: template.Must(template.New("").ParseFS(assetsFS, viewsPattern)),
	}

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)

	e.GET("/htmx/photos", service.htmxListPhotosHandler)
	e.POST("/htmx/photos", service.htmxUploadPhotoHandler)
	e.DELETE("/htmx/photos/:id", service.htmxDeletePhotoHandler)

	e.GET("/icon.svg", service.iconHandler)
	e.GET("/icon.png", service.iconPNGHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, indexData{
		MusicURL:           service.coreService.Config().MusicURL,
		Categories:         photo.FilterOptions(),
		StorableCategories: photo.Categories(),
		ReadOnly:           service.coreService.IsReadOnly(),
		MaxFileSize:        intake.FormatFileSize(service.coreService.MaxFileSize()),
		Accept:             strings.Join(intake.SupportedMimeTypes(), ","),
	})
}

func (service *FrontendService) htmxListPhotosHandler(ctx echo.Context) error {
	filter, err := photo.ParseFilter(ctx.QueryParam("category"))
	if err != nil {
		slog.Warn("htmxListPhotosHandler: invalid category", "status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Unknown category")
	}

	collection := service.coreService.GetCollection(ctx.Request().Context())
	backend.SetNoCache(ctx)
	return ctx.HTML(http.StatusOK, service.buildGalleryHTML(photo.FilterByCategory(collection, filter)))
}

func (service *FrontendService) htmxUploadPhotoHandler(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		slog.Warn("htmxUploadPhotoHandler: failed to get uploaded file",
			"status", http.StatusBadRequest, "error", err)
		return ctx.HTML(http.StatusOK, uploadResultHTML("Please select an image and provide a caption", true))
	}

	file, err := backend.ReadUpload(fileHeader, service.coreService.MaxFileSize())
	if err != nil {
		slog.Error("htmxUploadPhotoHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", fileHeader.Filename)
		return ctx.HTML(http.StatusOK, uploadResultHTML("Failed to read uploaded file", true))
	}

	collection, err := service.coreService.UploadPhoto(ctx.Request().Context(), file, core.UploadMetadata{
		Caption:    ctx.FormValue("caption"),
		CapturedOn: ctx.FormValue("date"),
		Category:   ctx.FormValue("category"),
	})
	if err != nil {
		status, message := backend.StatusFor(err)
		slog.Warn("htmxUploadPhotoHandler: upload rejected",
			"status", status, "error", err, "filename", fileHeader.Filename)
		// htmx only swaps 2xx responses
		return ctx.HTML(http.StatusOK, uploadResultHTML(message, true))
	}

	galleryOOB := fmt.Sprintf(`<section id="gallery" hx-swap-oob="innerHTML">%s</section>`, service.buildGalleryHTML(collection))
	return ctx.HTML(http.StatusOK, uploadResultHTML("Photo added", false)+galleryOOB)
}

func (service *FrontendService) htmxDeletePhotoHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	collection, err := service.coreService.DeleteRecord(ctx.Request().Context(), id)
	if err != nil {
		status, message := backend.StatusFor(err)
		slog.Error("htmxDeletePhotoHandler: failed to delete photo",
			"status", status, "photo_id", id, "error", err)
		return ctx.String(status, message)
	}

	backend.SetNoCache(ctx)
	return ctx.HTML(http.StatusOK, service.buildGalleryHTML(collection))
}

func uploadResultHTML(message string, isError bool) string {
	role := "status"
	if isError {
		role = "alert"
	}
	return fmt.Sprintf(`<div id="upload-result" role="%s">%s</div>`, role, html.EscapeString(message))
}

func formatDisplayDate(date string) string {
	parsed, err := time.Parse(photo.DateLayout, date)
	if err != nil {
		return date
	}
	return parsed.Format(displayDateLayout)
}

func thumbnailURL(record *photo.Record) string {
	if source, ok := record.Source.(photo.URLSource); ok {
		return source.URL
	}
	return "/api/photos/" + record.ID + "/thumbnail"
}

func (service *FrontendService) buildGalleryHTML(collection []*photo.Record) string {
	var b strings.Builder
	if len(collection) == 0 {
		b.WriteString(`<p>No photos yet.</p>`)
		return b.String()
	}

	readOnly := service.coreService.IsReadOnly()
	b.WriteString(`<div class="gallery">`)
	for _, record := range collection {
		id := html.EscapeString(record.ID)
		caption := html.EscapeString(record.Caption)

		deleteButton := ""
		if !readOnly {
			deleteButton = fmt.Sprintf(`<button hx-delete="/htmx/photos/%s" hx-target="#gallery" hx-swap="innerHTML" hx-confirm="Delete this photo?" class="secondary outline" aria-label="Delete photo">Delete</button>`, id)
		}

		b.WriteString(fmt.Sprintf(`<article data-id="%s" data-orientation="%s">
	<a href="/api/photos/%s/image" target="_blank"><img src="%s" alt="%s" loading="lazy"></a>
	<footer>
		<strong>%s</strong><br>
		<small>%s · %s</small>
		%s
	</footer>
</article>`,
			id, html.EscapeString(string(record.Orientation)),
			id, html.EscapeString(thumbnailURL(record)), caption,
			caption,
			html.EscapeString(formatDisplayDate(record.CapturedOn)), html.EscapeString(string(record.Category)),
			deleteButton))
	}
	b.WriteString(`</div>`)
	return b.String()
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile(iconPath)
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

func (service *FrontendService) iconPNGHandler(ctx echo.Context) error {
	data, err := renderIconPNG(iconPNGSize)
	if err != nil {
		slog.Error("iconPNGHandler: failed to render icon", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/png", data)
}
