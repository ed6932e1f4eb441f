package shipment

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/zjoart/go-paystack-logistics/internal/auth"
	"github.com/zjoart/go-paystack-logistics/internal/payment"
	"github.com/zjoart/go-paystack-logistics/pkg/utils"
)

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req CreateRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	result, err := h.Service.Create(r.Context(), usr, req)
	if err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}

	if result.Payment.Outcome == payment.OutcomePartial {
		utils.BuildWarningResponse(w, http.StatusMultiStatus,
			"Shipment created but payment could not be completed. Please contact support with the reference.", result)
		return
	}
	utils.BuildSuccessResponse(w, http.StatusCreated, "Shipment created", result)
}

func (h *Handler) ListShipments(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	limit, offset, page := utils.GetPaginationDetails(r)
	items, err := h.Service.Repo.ListByOwner(r.Context(), usr.ID.String(), limit, offset)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to fetch shipments", nil)
		return
	}

	count, _ := h.Service.Repo.CountByOwner(r.Context(), usr.ID.String())
	utils.BuildSuccessResponse(w, http.StatusOK, "Shipments", map[string]interface{}{
		"shipments": items,
		"meta":      utils.NewPageMeta(count, limit, page),
	})
}

func (h *Handler) GetShipment(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	shp, _, err := h.Service.Get(r.Context(), usr, mux.Vars(r)["id"])
	if err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "Shipment", shp)
}

func (h *Handler) GetTransitions(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	current, available, err := h.Service.AvailableTransitions(r.Context(), usr, mux.Vars(r)["id"])
	if err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "Available transitions", map[string]interface{}{
		"current_status": current,
		"transitions":    available,
	})
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	events, err := h.Service.Events(r.Context(), usr, mux.Vars(r)["id"])
	if err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "Shipment history", events)
}

type StatusRequest struct {
	Status Status `json:"status"`
	Note   string `json:"note,omitempty"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req StatusRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}
	if req.Status == "" {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "status is required", nil)
		return
	}

	shp, err := h.Service.ApplyTransition(r.Context(), usr, mux.Vars(r)["id"], req.Status, req.Note)
	if err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "Shipment status updated", shp)
}
