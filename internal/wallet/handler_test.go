package wallet

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zjoart/go-paystack-logistics/internal/auth"
	"github.com/zjoart/go-paystack-logistics/internal/ledger"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&Wallet{}, &ledger.Transaction{}))

	return NewHandler(config.Config{DefaultCurrency: "NGN"}, NewRepository(db), ledger.NewRepository(db))
}

func authed(r *http.Request, usr user.User) *http.Request {
	return r.WithContext(auth.WithAccount(r.Context(), usr, []string{"*"}))
}

func TestGetWalletCreatesOnFirstRead(t *testing.T) {
	h := newTestHandler(t)
	usr := user.User{ID: uuid.New()}

	rr := httptest.NewRecorder()
	h.GetWallet(rr, authed(httptest.NewRequest(http.MethodGet, "/api/wallet", nil), usr))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.EqualValues(t, 0, body.Data["balance"])
	assert.Equal(t, "NGN 0.00", body.Data["balance_display"])
	assert.Equal(t, false, body.Data["has_pin"])

	rr = httptest.NewRecorder()
	h.GetWallet(rr, httptest.NewRequest(http.MethodGet, "/api/wallet", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSetPinHandler(t *testing.T) {
	h := newTestHandler(t)
	usr := user.User{ID: uuid.New()}

	set := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/wallet/pin", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		h.SetPin(rr, authed(req, usr))
		return rr.Code
	}

	assert.Equal(t, http.StatusBadRequest, set(`{"pin":"12a4"}`))
	assert.Equal(t, http.StatusBadRequest, set(`{"pin":"12345"}`))
	assert.Equal(t, http.StatusCreated, set(`{"pin":"1234"}`))
	assert.Equal(t, http.StatusBadRequest, set(`{"pin":"5678"}`))

	w, err := h.Repo.GetByAccountID(t.Context(), usr.ID.String())
	require.NoError(t, err)
	assert.True(t, w.HasPin())
}

func TestGetTransactionsHandler(t *testing.T) {
	h := newTestHandler(t)
	usr := user.User{ID: uuid.New()}
	for _, ref := range []string{"dep-1", "dep-2"} {
		require.NoError(t, h.Ledger.InsertPending(t.Context(), &ledger.Transaction{
			Reference: ref, AccountID: usr.ID, Amount: 1000, Currency: "NGN",
			Direction: ledger.DirectionCredit, GatewayName: ledger.GatewayPaystack,
		}))
	}

	rr := httptest.NewRecorder()
	h.GetTransactions(rr, authed(httptest.NewRequest(http.MethodGet, "/api/wallet/transactions?limit=1", nil), usr))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data struct {
			Transactions []ledger.Transaction   `json:"transactions"`
			Meta         map[string]interface{} `json:"meta"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Data.Transactions, 1)
	assert.EqualValues(t, 2, body.Data.Meta["total_items"])
	assert.EqualValues(t, 2, body.Data.Meta["total_pages"])
}
