package shipment

import (
	"fmt"

	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
)

// Edge is one step of the happy path and the role that may take it.
type Edge struct {
	From Status
	To   Status
	Role user.Role
}

var edges = []Edge{
	{From: StatusPending, To: StatusProcessing, Role: user.RoleWarehouseStaff},
	{From: StatusProcessing, To: StatusInTransit, Role: user.RoleLogisticsStaff},
	{From: StatusInTransit, To: StatusOutForDelivery, Role: user.RoleLogisticsStaff},
	{From: StatusOutForDelivery, To: StatusDelivered, Role: user.RoleDeliveryStaff},
}

// NextEdge returns the edge leaving from, if any.
func NextEdge(from Status) (Edge, bool) {
	for _, e := range edges {
		if e.From == from {
			return e, true
		}
	}
	return Edge{}, false
}

func findEdge(from, to Status) (Edge, bool) {
	for _, e := range edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// CheckTransition decides whether role may move a shipment from current to
// target. Admins may move any non-terminal shipment to any other status;
// everyone else is limited to the edges assigned to their role.
func CheckTransition(current, target Status, role user.Role) error {
	if !target.Valid() {
		return apperrors.Validation(fmt.Sprintf("unknown status %q", target))
	}
	if current.Terminal() {
		return illegal(current, target, fmt.Sprintf("shipment is %s and can no longer change", current))
	}
	if current == target {
		return illegal(current, target, fmt.Sprintf("shipment is already %s", current))
	}

	if role == user.RoleAdmin {
		return nil
	}

	if edge, ok := findEdge(current, target); ok {
		if edge.Role == role {
			return nil
		}
		return denied(current, target, fmt.Sprintf("permission_denied: %s to %s requires %s", current, target, edge.Role))
	}

	if target == StatusCancelled || target == StatusReturned {
		return denied(current, target, fmt.Sprintf("permission_denied: only admin can mark a shipment %s", target))
	}

	return illegal(current, target, fmt.Sprintf("cannot move a shipment from %s to %s", current, target))
}

// Available lists the statuses role may move a shipment in current to.
func Available(current Status, role user.Role) []Status {
	out := []Status{}
	for _, s := range allStatuses {
		if CheckTransition(current, s, role) == nil {
			out = append(out, s)
		}
	}
	return out
}

func illegal(current, target Status, msg string) error {
	return apperrors.New(apperrors.KindIllegalTransition, msg).
		WithDetail("current_status", current).
		WithDetail("target_status", target)
}

func denied(current, target Status, msg string) error {
	return apperrors.Forbidden(msg).
		WithDetail("current_status", current).
		WithDetail("target_status", target)
}
