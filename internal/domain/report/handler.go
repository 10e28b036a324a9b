package report

import (
	"bytes"
	"errors"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Handler struct {
	renderer   *Renderer
	builderURL string
	logger     zerolog.Logger
}

// NewHandler serves reports; builderURL is where a request without a
// finalized record is sent.
func NewHandler(renderer *Renderer, builderURL string, logger zerolog.Logger) *Handler {
	if builderURL == "" {
		builderURL = "/"
	}
	return &Handler{renderer: renderer, builderURL: builderURL, logger: logger}
}

// RegisterRoutes mounts the printable pages on pages and the JSON view on api.
func (h *Handler) RegisterRoutes(pages, api *echo.Group) {
	pages.GET("/reports/:id", h.Page)
	pages.GET("/reports/:id/pdf", h.PDF)
	api.GET("/reports/:id", h.Get)
}

func (h *Handler) Page(c echo.Context) error {
	id := c.Param("id")
	doc, err := h.renderer.Open(c.Request().Context(), id)
	if err != nil {
		return h.redirectOrFail(c, id, err)
	}
	return c.Render(http.StatusOK, TemplateName, Page{
		Document: doc,
		ID:       id,
		BackURL:  h.builderURL,
		PDFURL:   "/reports/" + id + "/pdf",
	})
}

func (h *Handler) PDF(c echo.Context) error {
	id := c.Param("id")
	doc, err := h.renderer.Open(c.Request().Context(), id)
	if err != nil {
		return h.redirectOrFail(c, id, err)
	}
	var buf bytes.Buffer
	if doc.Branding.PDFFont == "" && NeedsUnicodeFont(doc) {
		h.logger.Warn().Str("report_id", id).Msg("report has characters the built-in pdf font cannot print; set PDF_FONT_FILE")
	}
	if err := WritePDF(&buf, doc); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	disposition := mime.FormatMediaType("inline", map[string]string{"filename": "billing-report-" + id + ".pdf"})
	c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

type missingResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

func (h *Handler) Get(c echo.Context) error {
	doc, err := h.renderer.Open(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrMissingHandoff) {
		return c.JSON(http.StatusNotFound, missingResponse{Error: err.Error(), Redirect: h.builderURL})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) redirectOrFail(c echo.Context, id string, err error) error {
	if errors.Is(err, ErrMissingHandoff) {
		h.logger.Debug().Str("report_id", id).Msg("no finalized record, redirecting to builder")
		return c.Redirect(http.StatusSeeOther, h.builderURL)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
