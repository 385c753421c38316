package billing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	coord *Coordinator
}

func NewHandler(coord *Coordinator) *Handler {
	return &Handler{coord: coord}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	bills := api.Group("/bills", auth.RequireRole("receptionist", "doctor", "pharmacist"))
	bills.POST("/consultation", h.CreateConsultationBill)
	bills.POST("/service", h.CreateServiceBill)
	bills.POST("/pharmacy", h.CreatePharmacyBill)
	bills.GET("", h.ListBills)
	bills.GET("/:id", h.GetBill)
}

type createResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Bill    *BillResponse `json:"bill"`
}

func (h *Handler) CreatePharmacyBill(c echo.Context) error {
	var req PharmacyBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, err := h.coord.CreatePharmacyBill(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createResponse{
		Success: true,
		Message: "pharmacy bill " + resp.BillNo + " created",
		Bill:    resp,
	})
}

func (h *Handler) CreateConsultationBill(c echo.Context) error {
	var req ConsultationBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, err := h.coord.CreateConsultationBill(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createResponse{
		Success: true,
		Message: "consultation bill " + resp.BillNo + " created",
		Bill:    resp,
	})
}

func (h *Handler) CreateServiceBill(c echo.Context) error {
	var req ServiceBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, err := h.coord.CreateServiceBill(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createResponse{
		Success: true,
		Message: "service bill " + resp.BillNo + " created",
		Bill:    resp,
	})
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	bill, err := h.coord.GetBill(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bill)
}

func (h *Handler) ListBills(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := ListFilter{Category: c.QueryParam("category")}
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		filter.PatientID = &id
	}
	bills, total, err := h.coord.ListBills(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(bills, total, pg.Limit, pg.Offset))
}
