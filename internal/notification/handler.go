package notification

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/zjoart/go-paystack-logistics/internal/auth"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/pkg/utils"
)

type Handler struct {
	Repo  Repository
	Roles auth.RoleResolver
}

func NewHandler(repo Repository, roles auth.RoleResolver) *Handler {
	return &Handler{Repo: repo, Roles: roles}
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	limit, offset, page := utils.GetPaginationDetails(r)
	items, err := h.Repo.ListForAccount(r.Context(), usr.ID.String(), limit, offset)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to fetch notifications", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Notifications", map[string]interface{}{
		"notifications": items,
		"meta":          map[string]interface{}{"current_page": page, "limit": limit},
	})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	if err := h.Repo.MarkRead(r.Context(), mux.Vars(r)["id"], usr.ID.String()); err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "Notification marked as read", nil)
}

func (h *Handler) ListStaffNotifications(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	role, err := h.Roles.ResolveRole(r.Context(), usr.ID.String())
	if err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}
	if !role.IsStaff() {
		utils.BuildErrorResponse(w, http.StatusForbidden, "Staff only", nil)
		return
	}

	limit, offset, page := utils.GetPaginationDetails(r)
	items, err := h.Repo.ListForRoles(r.Context(), inboxRoles(role), limit, offset)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to fetch notifications", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Staff notifications", map[string]interface{}{
		"role":          role,
		"notifications": items,
		"meta":          map[string]interface{}{"current_page": page, "limit": limit},
	})
}

func (h *Handler) MarkStaffRead(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.CurrentAccount(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	role, err := h.Roles.ResolveRole(r.Context(), usr.ID.String())
	if err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}

	if err := h.Repo.MarkStaffRead(r.Context(), mux.Vars(r)["id"], inboxRoles(role)); err != nil {
		utils.BuildAppErrorResponse(w, err)
		return
	}
	utils.BuildSuccessResponse(w, http.StatusOK, "Notification marked as read", nil)
}

// inboxRoles lists the role inboxes role may read. Admin oversees every staff
// inbox since no notification is ever addressed to admin alone.
func inboxRoles(role user.Role) []string {
	if role != user.RoleAdmin {
		return []string{string(role)}
	}
	return []string{
		string(user.RoleWarehouseStaff),
		string(user.RoleLogisticsStaff),
		string(user.RoleDeliveryStaff),
		string(user.RoleAdmin),
	}
}
