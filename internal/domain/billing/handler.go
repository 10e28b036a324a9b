package billing

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pujar/labbill/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/catalog", h.ListCatalog)
	api.GET("/doctors", h.ListDoctors)

	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id", h.GetSession)
	api.DELETE("/sessions/:id", h.DeleteSession)
	api.PUT("/sessions/:id/fields", h.SetField)
	api.POST("/sessions/:id/doctors/toggle", h.ToggleDoctor)
	api.PUT("/sessions/:id/candidate", h.SelectTest)
	api.PUT("/sessions/:id/candidate/price", h.SelectPrice)
	api.POST("/sessions/:id/tests", h.CommitTest)
	api.DELETE("/sessions/:id/tests/:index", h.RemoveTest)
	api.GET("/sessions/:id/total", h.GetTotal)
	api.POST("/sessions/:id/finalize", h.Finalize)
}

type setFieldRequest struct {
	Field string `json:"field" validate:"required,oneof=name age sex date"`
	Value string `json:"value"`
}

// fieldRules shape-check a submitted value. Empty values pass so a field can
// be cleared; Finalize reports what is still missing.
var fieldRules = map[string]string{
	"age":  "omitempty,number",
	"sex":  "omitempty,oneof=" + SexMale + " " + SexFemale + " " + SexOther,
	"date": "omitempty,datetime=" + DateLayout,
}

type toggleDoctorRequest struct {
	Doctor string `json:"doctor" validate:"required"`
}

type selectTestRequest struct {
	Test string `json:"test"`
}

type selectPriceRequest struct {
	Price *int `json:"price" validate:"required"`
}

type finalizeResponse struct {
	Record    PatientRecord `json:"record"`
	Total     int           `json:"total"`
	ReportURL string        `json:"report_url"`
}

type validationResponse struct {
	Check   Check  `json:"check"`
	Message string `json:"message"`
}

// -- Reference data --

func (h *Handler) ListCatalog(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.svc.FilterCatalog(c.QueryParam("q"))
	page := pagination.Slice(items, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(items), pg.Limit, pg.Offset))
}

func (h *Handler) ListDoctors(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Roster().Doctors())
}

// -- Sessions --

func (h *Handler) CreateSession(c echo.Context) error {
	st := h.svc.CreateSession(c.Request().Context())
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) GetSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	st, err := h.svc.GetSession(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSession(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetField(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req setFieldRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if rule, ok := fieldRules[req.Field]; ok {
		if err := validate.Var(req.Value, rule); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s %q", req.Field, req.Value))
		}
	}
	st, err := h.svc.SetField(c.Request().Context(), id, req.Field, req.Value)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ToggleDoctor(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req toggleDoctorRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	st, err := h.svc.ToggleDoctor(c.Request().Context(), id, req.Doctor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) SelectTest(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req selectTestRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	st, err := h.svc.SelectTest(c.Request().Context(), id, req.Test)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) SelectPrice(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req selectPriceRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	st, err := h.svc.SelectPrice(c.Request().Context(), id, *req.Price)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) CommitTest(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	st, err := h.svc.CommitTest(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) RemoveTest(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}
	st, err := h.svc.RemoveTest(c.Request().Context(), id, index)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) GetTotal(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	total, err := h.svc.Total(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"total": total})
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Finalize(c.Request().Context(), id)
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusUnprocessableEntity, validationResponse{Check: verr.Check, Message: verr.Error()})
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, finalizeResponse{
		Record:    rec,
		Total:     Total(rec.SelectedTests),
		ReportURL: "/reports/" + id.String(),
	})
}

func sessionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrIndexOutOfRange):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidSelection), errors.Is(err, ErrIncompleteSelection), errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrUnknownDoctor), errors.Is(err, ErrUnknownField):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
