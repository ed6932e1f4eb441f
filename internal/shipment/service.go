package shipment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/zjoart/go-paystack-logistics/internal/auth"
	"github.com/zjoart/go-paystack-logistics/internal/metrics"
	"github.com/zjoart/go-paystack-logistics/internal/notification"
	"github.com/zjoart/go-paystack-logistics/internal/payment"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"github.com/zjoart/go-paystack-logistics/pkg/id"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
)

// Payments is the part of the payment orchestrator shipment creation needs.
type Payments interface {
	AuthorizeDebit(ctx context.Context, accountID, pin string) error
	DebitForShipment(ctx context.Context, accountID string, amount int64, currency string, create payment.CreateFunc) (*payment.DebitResult, error)
}

type Notifier interface {
	NotifyAccount(ctx context.Context, accountID uuid.UUID, msg notification.Message) error
	NotifyRole(ctx context.Context, role user.Role, msg notification.Message) error
}

type Service struct {
	Config   config.Config
	Repo     Repository
	Payments Payments
	Roles    auth.RoleResolver
	Notifier Notifier
}

func NewService(cfg config.Config, repo Repository, payments Payments, roles auth.RoleResolver, notifier Notifier) *Service {
	return &Service{Config: cfg, Repo: repo, Payments: payments, Roles: roles, Notifier: notifier}
}

type ItemRequest struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

type CreateRequest struct {
	RecipientName    string        `json:"recipient_name"`
	RecipientAddress string        `json:"recipient_address"`
	Items            []ItemRequest `json:"items"`
	Pin              string        `json:"pin,omitempty"`
}

type CreateResult struct {
	Shipment *Shipment            `json:"shipment"`
	Payment  *payment.DebitResult `json:"payment"`
}

func (req CreateRequest) total() (int64, error) {
	if strings.TrimSpace(req.RecipientName) == "" || strings.TrimSpace(req.RecipientAddress) == "" {
		return 0, apperrors.Validation("recipient_name and recipient_address are required")
	}
	if len(req.Items) == 0 {
		return 0, apperrors.Validation("shipment needs at least one line item")
	}

	var total int64
	for i, item := range req.Items {
		if strings.TrimSpace(item.Description) == "" {
			return 0, apperrors.Validation(fmt.Sprintf("item %d: description is required", i))
		}
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			return 0, apperrors.Validation(fmt.Sprintf("item %d: quantity must be positive and unit_price non-negative", i))
		}
		if item.UnitPrice > 0 && int64(item.Quantity) > (math.MaxInt64-total)/item.UnitPrice {
			return 0, apperrors.Validation("shipment total is too large")
		}
		total += int64(item.Quantity) * item.UnitPrice
	}
	if total <= 0 {
		return 0, apperrors.Validation("shipment total must be greater than zero")
	}
	return total, nil
}

// Create charges the caller's wallet for the shipment. The shipment row and its
// line items are written first; a debit that fails afterwards leaves the
// shipment in place with a warning.
func (s *Service) Create(ctx context.Context, caller user.User, req CreateRequest) (*CreateResult, error) {
	if caller.ID == uuid.Nil {
		return nil, apperrors.Unauthenticated("no authenticated account")
	}

	total, err := req.total()
	if err != nil {
		return nil, err
	}

	if err := s.Payments.AuthorizeDebit(ctx, caller.ID.String(), req.Pin); err != nil {
		return nil, err
	}

	shp := &Shipment{
		OwnerAccountID:   caller.ID,
		TrackingNumber:   id.NewTrackingNumber(),
		Status:           StatusPending,
		AmountCharged:    total,
		Currency:         s.Config.DefaultCurrency,
		RecipientName:    strings.TrimSpace(req.RecipientName),
		RecipientAddress: strings.TrimSpace(req.RecipientAddress),
	}
	for _, item := range req.Items {
		shp.LineItems = append(shp.LineItems, LineItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	debit, err := s.Payments.DebitForShipment(ctx, caller.ID.String(), total, shp.Currency, func(ctx context.Context) (string, error) {
		if err := s.Repo.Create(ctx, shp); err != nil {
			return "", apperrors.Wrap(apperrors.KindInternal, "failed to create shipment", err)
		}
		return shp.ID.String(), nil
	})
	if err != nil {
		return nil, err
	}

	fields := logger.Fields{logger.ShipmentIDKey: shp.ID.String(), logger.UserIdKey: caller.ID.String(), logger.ReferenceKey: debit.Reference}

	if debit.Outcome == payment.OutcomePartial {
		shp.Warning = debit.Warning
		if err := s.Repo.FlagWarning(ctx, shp.ID.String(), debit.Warning); err != nil {
			logger.Error("Failed to flag shipment warning", logger.Merge(fields, logger.WithError(err)))
		}
	}
	logger.Info("Shipment created", logger.Merge(fields, logger.Fields{"outcome": debit.Outcome, "amount": total}))

	s.notifyNextRole(ctx, shp, StatusPending)

	return &CreateResult{Shipment: shp, Payment: debit}, nil
}

// Get returns the shipment if caller owns it or holds a staff role.
func (s *Service) Get(ctx context.Context, caller user.User, shipmentID string) (*Shipment, user.Role, error) {
	role, err := s.Roles.ResolveRole(ctx, caller.ID.String())
	if err != nil {
		return nil, "", err
	}

	shp, err := s.Repo.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, "", err
	}
	if shp.OwnerAccountID != caller.ID && !role.IsStaff() {
		return nil, "", apperrors.NotFound("shipment not found")
	}
	return shp, role, nil
}

// AvailableTransitions lists what the caller would be offered for the shipment
// as it is persisted right now.
func (s *Service) AvailableTransitions(ctx context.Context, caller user.User, shipmentID string) (Status, []Status, error) {
	shp, role, err := s.Get(ctx, caller, shipmentID)
	if err != nil {
		return "", nil, err
	}
	return shp.Status, Available(shp.Status, role), nil
}

func (s *Service) Events(ctx context.Context, caller user.User, shipmentID string) ([]Event, error) {
	shp, _, err := s.Get(ctx, caller, shipmentID)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListEvents(ctx, shp.ID.String())
}

// ApplyTransition re-reads the shipment, checks the caller's role against the
// persisted status and swaps it in one conditional write. Notifications follow
// the swap and never undo it.
func (s *Service) ApplyTransition(ctx context.Context, actor user.User, shipmentID string, target Status, note string) (*Shipment, error) {
	role, err := s.Roles.ResolveRole(ctx, actor.ID.String())
	if err != nil {
		return nil, err
	}

	shp, err := s.Repo.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	fields := logger.Fields{
		logger.ShipmentIDKey: shp.ID.String(),
		logger.UserIdKey:     actor.ID.String(),
		"role":               role,
		"from":               shp.Status,
		"to":                 target,
	}

	if err := CheckTransition(shp.Status, target, role); err != nil {
		metrics.ShipmentTransitions.WithLabelValues(statusLabel(target), string(apperrors.KindOf(err))).Inc()
		logger.Info("Shipment transition rejected", logger.Merge(fields, logger.WithError(err)))
		return nil, err
	}

	note = strings.TrimSpace(note)
	swapped, err := s.Repo.CompareAndSetStatus(ctx, shp.ID.String(), shp.Status, target, &Event{
		ShipmentID: shp.ID,
		FromStatus: shp.Status,
		ToStatus:   target,
		ActorID:    actor.ID,
		ActorRole:  string(role),
		Note:       note,
	})
	if err != nil {
		metrics.ShipmentTransitions.WithLabelValues(statusLabel(target), string(apperrors.KindInternal)).Inc()
		logger.Error("Failed to persist shipment status", logger.Merge(fields, logger.WithError(err)))
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update shipment status", err)
	}
	if !swapped {
		metrics.ShipmentTransitions.WithLabelValues(statusLabel(target), "conflict").Inc()
		current := shp.Status
		if latest, err := s.Repo.GetByID(ctx, shp.ID.String()); err == nil {
			current = latest.Status
		}
		return nil, apperrors.New(apperrors.KindIllegalTransition, fmt.Sprintf("shipment changed to %s while this update was in flight", current)).
			WithDetail("current_status", current).
			WithDetail("target_status", target)
	}

	previous := shp.Status
	shp.Status = target
	metrics.ShipmentTransitions.WithLabelValues(statusLabel(target), "applied").Inc()
	logger.Info("Shipment status updated", fields)

	s.notifyNextRole(ctx, shp, target)
	if note != "" {
		s.notifyOwner(ctx, shp, previous, note)
	}

	if latest, err := s.Repo.GetByID(ctx, shp.ID.String()); err == nil {
		return latest, nil
	}
	return shp, nil
}

func (s *Service) notifyNextRole(ctx context.Context, shp *Shipment, status Status) {
	edge, ok := NextEdge(status)
	if !ok || s.Notifier == nil {
		return
	}

	msg := notification.Message{
		Type:       notification.TypeShipmentReady,
		Title:      fmt.Sprintf("Shipment %s ready for %s", shp.TrackingNumber, humanize(edge.To)),
		Body:       fmt.Sprintf("Shipment %s is %s and waiting to be moved to %s.", shp.TrackingNumber, humanize(status), humanize(edge.To)),
		ShipmentID: shp.ID.String(),
	}
	if err := s.Notifier.NotifyRole(ctx, edge.Role, msg); err != nil {
		logger.Error("Failed to notify staff", logger.Merge(logger.WithError(err), logger.Fields{
			logger.ShipmentIDKey: shp.ID.String(),
			"role":               edge.Role,
		}))
	}
}

func (s *Service) notifyOwner(ctx context.Context, shp *Shipment, previous Status, note string) {
	if s.Notifier == nil {
		return
	}

	msg := notification.Message{
		Type:       notification.TypeShipmentStatus,
		Title:      fmt.Sprintf("Shipment %s is now %s", shp.TrackingNumber, humanize(shp.Status)),
		Body:       note,
		ShipmentID: shp.ID.String(),
	}
	if err := s.Notifier.NotifyAccount(ctx, shp.OwnerAccountID, msg); err != nil {
		logger.Error("Failed to notify customer", logger.Merge(logger.WithError(err), logger.Fields{
			logger.ShipmentIDKey: shp.ID.String(),
			"from":               previous,
		}))
	}
}

// statusLabel keeps caller-supplied garbage out of metric labels.
func statusLabel(s Status) string {
	if !s.Valid() {
		return "unknown"
	}
	return string(s)
}

func humanize(s Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
