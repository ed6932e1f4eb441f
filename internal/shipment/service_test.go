package shipment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zjoart/go-paystack-logistics/internal/ledger"
	"github.com/zjoart/go-paystack-logistics/internal/notification"
	"github.com/zjoart/go-paystack-logistics/internal/payment"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/internal/wallet"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type staticRoles map[uuid.UUID]user.Role

func (s staticRoles) ResolveRole(ctx context.Context, accountID string) (user.Role, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return "", apperrors.Unauthenticated("no authenticated account")
	}
	if role, ok := s[id]; ok {
		return role, nil
	}
	return user.RoleCustomer, nil
}

type sentNotification struct {
	account uuid.UUID
	role    user.Role
	msg     notification.Message
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) NotifyAccount(ctx context.Context, accountID uuid.UUID, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{account: accountID, msg: msg})
	return n.err
}

func (n *recordingNotifier) NotifyRole(ctx context.Context, role user.Role, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{role: role, msg: msg})
	return n.err
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

type fixture struct {
	svc      *Service
	repo     Repository
	wallets  wallet.Repository
	notifier *recordingNotifier
	roles    staticRoles

	customer  user.User
	warehouse user.User
	logistics user.User
	delivery  user.User
	admin     user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&Shipment{}, &LineItem{}, &Event{}, &wallet.Wallet{}, &ledger.Transaction{}))

	cfg := config.Config{DefaultCurrency: "NGN", MinTransactionAmount: 100}
	f := &fixture{
		repo:      NewRepository(db),
		wallets:   wallet.NewRepository(db),
		notifier:  &recordingNotifier{},
		customer:  user.User{ID: uuid.New(), Email: "ada@example.com"},
		warehouse: user.User{ID: uuid.New()},
		logistics: user.User{ID: uuid.New()},
		delivery:  user.User{ID: uuid.New()},
		admin:     user.User{ID: uuid.New()},
	}
	f.roles = staticRoles{
		f.warehouse.ID: user.RoleWarehouseStaff,
		f.logistics.ID: user.RoleLogisticsStaff,
		f.delivery.ID:  user.RoleDeliveryStaff,
		f.admin.ID:     user.RoleAdmin,
	}
	payments := payment.NewService(cfg, f.wallets, ledger.NewRepository(db), nil, nil)
	f.svc = NewService(cfg, f.repo, payments, f.roles, f.notifier)
	return f
}

func (f *fixture) fund(t *testing.T, amount int64) {
	t.Helper()
	_, err := f.wallets.GetOrCreate(context.Background(), f.customer.ID.String(), "NGN")
	require.NoError(t, err)
	_, err = f.wallets.Adjust(context.Background(), f.customer.ID.String(), amount)
	require.NoError(t, err)
}

func (f *fixture) seed(t *testing.T, status Status) *Shipment {
	t.Helper()
	shp := &Shipment{
		OwnerAccountID:   f.customer.ID,
		TrackingNumber:   "TRK" + uuid.NewString(),
		Status:           status,
		AmountCharged:    1000,
		Currency:         "NGN",
		RecipientName:    "Bola",
		RecipientAddress: "12 Marina, Lagos",
		LineItems:        []LineItem{{Description: "Box", Quantity: 1, UnitPrice: 1000}},
	}
	require.NoError(t, f.repo.Create(context.Background(), shp))
	return shp
}

func validRequest() CreateRequest {
	return CreateRequest{
		RecipientName:    "Bola",
		RecipientAddress: "12 Marina, Lagos",
		Items: []ItemRequest{
			{Description: "Shoes", Quantity: 2, UnitPrice: 1000},
			{Description: "Bag", Quantity: 1, UnitPrice: 500},
		},
	}
}

func TestCreateShipment(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 5000)

	result, err := f.svc.Create(context.Background(), f.customer, validRequest())
	require.NoError(t, err)

	assert.Equal(t, payment.OutcomeSuccess, result.Payment.Outcome)
	assert.Equal(t, int64(2500), result.Shipment.AmountCharged)
	assert.Equal(t, StatusPending, result.Shipment.Status)
	assert.Regexp(t, `^TRK[0-9A-Z]{26}$`, result.Shipment.TrackingNumber)

	stored, err := f.repo.GetByID(context.Background(), result.Shipment.ID.String())
	require.NoError(t, err)
	assert.Len(t, stored.LineItems, 2)
	assert.Empty(t, stored.Warning)

	w, err := f.wallets.GetByAccountID(context.Background(), f.customer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2500), w.Balance)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, user.RoleWarehouseStaff, f.notifier.sent[0].role)
}

func TestCreateShipmentInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1000)

	_, err := f.svc.Create(context.Background(), f.customer, validRequest())
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
	assert.Equal(t, 402, apperrors.HTTPStatus(err))

	count, err := f.repo.CountByOwner(context.Background(), f.customer.ID.String())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.notifier.sent)
}

func TestCreateShipmentRejectsForeignCurrencyWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.wallets.GetOrCreate(ctx, f.customer.ID.String(), "USD")
	require.NoError(t, err)
	_, err = f.wallets.Adjust(ctx, f.customer.ID.String(), 5000)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.customer, validRequest())
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	count, err := f.repo.CountByOwner(ctx, f.customer.ID.String())
	require.NoError(t, err)
	assert.Zero(t, count)

	w, err := f.wallets.GetByAccountID(ctx, f.customer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), w.Balance)
	assert.Empty(t, f.notifier.sent)
}

func TestCreateShipmentChecksPin(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 5000)
	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.wallets.SetPin(context.Background(), f.customer.ID.String(), string(hash)))

	req := validRequest()
	req.Pin = "9999"
	_, err = f.svc.Create(context.Background(), f.customer, req)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))

	req.Pin = "1234"
	_, err = f.svc.Create(context.Background(), f.customer, req)
	assert.NoError(t, err)
}

func TestCreateShipmentValidation(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 5000)

	noItems := validRequest()
	noItems.Items = nil
	badQty := validRequest()
	badQty.Items[0].Quantity = 0
	noRecipient := validRequest()
	noRecipient.RecipientAddress = " "
	free := validRequest()
	free.Items = []ItemRequest{{Description: "Letter", Quantity: 1, UnitPrice: 0}}

	for _, req := range []CreateRequest{noItems, badQty, noRecipient, free} {
		_, err := f.svc.Create(context.Background(), f.customer, req)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	}

	_, err := f.svc.Create(context.Background(), user.User{}, validRequest())
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
}

func TestHappyPathNotifiesNextRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shp := f.seed(t, StatusPending)

	steps := []struct {
		actor user.User
		to    Status
		next  user.Role
	}{
		{f.warehouse, StatusProcessing, user.RoleLogisticsStaff},
		{f.logistics, StatusInTransit, user.RoleLogisticsStaff},
		{f.logistics, StatusOutForDelivery, user.RoleDeliveryStaff},
		{f.delivery, StatusDelivered, ""},
	}

	for _, step := range steps {
		f.notifier.reset()
		updated, err := f.svc.ApplyTransition(ctx, step.actor, shp.ID.String(), step.to, "")
		require.NoError(t, err, step.to)
		assert.Equal(t, step.to, updated.Status)

		if step.next == "" {
			assert.Empty(t, f.notifier.sent)
			continue
		}
		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, step.next, f.notifier.sent[0].role)
		assert.Equal(t, shp.ID.String(), f.notifier.sent[0].msg.ShipmentID)
	}

	events, err := f.repo.ListEvents(ctx, shp.ID.String())
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, StatusPending, events[0].FromStatus)
	assert.Equal(t, StatusDelivered, events[3].ToStatus)
	assert.Equal(t, string(user.RoleDeliveryStaff), events[3].ActorRole)
}

func TestLogisticsCannotSkipProcessing(t *testing.T) {
	f := newFixture(t)
	shp := f.seed(t, StatusPending)

	_, err := f.svc.ApplyTransition(context.Background(), f.logistics, shp.ID.String(), StatusInTransit, "")
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	stored, err := f.repo.GetByID(context.Background(), shp.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Empty(t, f.notifier.sent)
}

func TestAdminCancelNotifiesOwnerOnly(t *testing.T) {
	f := newFixture(t)
	shp := f.seed(t, StatusProcessing)

	updated, err := f.svc.ApplyTransition(context.Background(), f.admin, shp.ID.String(), StatusCancelled, "Cancelled at customer request")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)

	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	assert.Equal(t, f.customer.ID, sent.account)
	assert.Empty(t, sent.role)
	assert.Equal(t, "Cancelled at customer request", sent.msg.Body)
	assert.Contains(t, sent.msg.Title, "cancelled")
}

func TestStaffCannotCancel(t *testing.T) {
	f := newFixture(t)
	shp := f.seed(t, StatusProcessing)

	_, err := f.svc.ApplyTransition(context.Background(), f.warehouse, shp.ID.String(), StatusCancelled, "")
	assert.Equal(t, 403, apperrors.HTTPStatus(err))

	_, err = f.svc.ApplyTransition(context.Background(), f.customer, shp.ID.String(), StatusInTransit, "")
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
}

func TestTransitionUnknownShipment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ApplyTransition(context.Background(), f.admin, uuid.NewString(), StatusCancelled, "")
	assert.Equal(t, 404, apperrors.HTTPStatus(err))

	_, err = f.svc.ApplyTransition(context.Background(), f.admin, "not-a-uuid", StatusCancelled, "")
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestConcurrentTransitionsApplyOnce(t *testing.T) {
	f := newFixture(t)
	shp := f.seed(t, StatusPending)

	const workers = 4
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ApplyTransition(context.Background(), f.warehouse, shp.ID.String(), StatusProcessing, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	applied := 0
	for err := range errs {
		if err == nil {
			applied++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	}
	assert.Equal(t, 1, applied)

	events, err := f.repo.ListEvents(context.Background(), shp.ID.String())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCompareAndSetStatusStale(t *testing.T) {
	f := newFixture(t)
	shp := f.seed(t, StatusProcessing)

	swapped, err := f.repo.CompareAndSetStatus(context.Background(), shp.ID.String(), StatusPending, StatusProcessing, &Event{ShipmentID: shp.ID, ToStatus: StatusProcessing})
	require.NoError(t, err)
	assert.False(t, swapped)

	events, err := f.repo.ListEvents(context.Background(), shp.ID.String())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestNotificationFailureKeepsTransition(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("insert failed")
	shp := f.seed(t, StatusPending)

	updated, err := f.svc.ApplyTransition(context.Background(), f.warehouse, shp.ID.String(), StatusProcessing, "Picked from shelf")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)
	assert.Len(t, f.notifier.sent, 2)
}

func TestVisibility(t *testing.T) {
	f := newFixture(t)
	shp := f.seed(t, StatusProcessing)

	_, _, err := f.svc.Get(context.Background(), f.customer, shp.ID.String())
	assert.NoError(t, err)

	_, _, err = f.svc.Get(context.Background(), user.User{ID: uuid.New()}, shp.ID.String())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	current, offered, err := f.svc.AvailableTransitions(context.Background(), f.logistics, shp.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, current)
	assert.Equal(t, []Status{StatusInTransit}, offered)

	_, offered, err = f.svc.AvailableTransitions(context.Background(), f.customer, shp.ID.String())
	require.NoError(t, err)
	assert.Empty(t, offered)
}
