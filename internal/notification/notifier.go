package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zjoart/go-paystack-logistics/internal/metrics"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/pkg/events"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
)

type Publisher interface {
	PublishNotification(ctx context.Context, event events.NotificationEvent) error
}

// Notifier stores notifications and hands them to the delivery queue. The
// stored row is the record; a failed hand-off is logged and counted only.
type Notifier struct {
	Repo      Repository
	Publisher Publisher
}

func NewNotifier(repo Repository, publisher Publisher) *Notifier {
	return &Notifier{Repo: repo, Publisher: publisher}
}

func (n *Notifier) NotifyAccount(ctx context.Context, accountID uuid.UUID, msg Message) error {
	row := &Notification{
		AccountID:  accountID,
		Type:       msg.Type,
		Title:      msg.Title,
		Message:    msg.Body,
		ShipmentID: msg.ShipmentID,
	}
	if err := n.Repo.Create(ctx, row); err != nil {
		metrics.NotificationFailures.WithLabelValues("customer_store").Inc()
		return err
	}

	n.publish(ctx, events.NotificationEvent{
		NotificationID: row.ID.String(),
		Audience:       "customer",
		Recipient:      accountID.String(),
		Type:           msg.Type,
		Title:          msg.Title,
		Message:        msg.Body,
		ShipmentID:     msg.ShipmentID,
		Timestamp:      time.Now().UTC(),
	})
	return nil
}

func (n *Notifier) NotifyRole(ctx context.Context, role user.Role, msg Message) error {
	row := &StaffNotification{
		Role:       string(role),
		Type:       msg.Type,
		Title:      msg.Title,
		Message:    msg.Body,
		ShipmentID: msg.ShipmentID,
	}
	if err := n.Repo.CreateStaff(ctx, row); err != nil {
		metrics.NotificationFailures.WithLabelValues("staff_store").Inc()
		return err
	}

	n.publish(ctx, events.NotificationEvent{
		NotificationID: row.ID.String(),
		Audience:       "staff",
		Recipient:      string(role),
		Type:           msg.Type,
		Title:          msg.Title,
		Message:        msg.Body,
		ShipmentID:     msg.ShipmentID,
		Timestamp:      time.Now().UTC(),
	})
	return nil
}

func (n *Notifier) publish(ctx context.Context, event events.NotificationEvent) {
	if n.Publisher == nil {
		return
	}
	if err := n.Publisher.PublishNotification(ctx, event); err != nil {
		metrics.NotificationFailures.WithLabelValues("publish").Inc()
		logger.Warn("Notification stored but not handed off", logger.Merge(logger.WithError(err), logger.Fields{
			"notification_id":    event.NotificationID,
			logger.ShipmentIDKey: event.ShipmentID,
		}))
	}
}
