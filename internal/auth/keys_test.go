package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zjoart/go-paystack-logistics/internal/key"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
)

// memKeys stores keys by hash, like the gorm repository.
type memKeys struct {
	keys []*key.APIKey
}

func (m *memKeys) CreateKey(_ context.Context, k *key.APIKey) error {
	k.Key = key.HashKey(k.Key)
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	k.CreatedAt = time.Now()
	m.keys = append(m.keys, k)
	return nil
}

func (m *memKeys) FindByKey(_ context.Context, raw string) (*key.APIKey, error) {
	for _, k := range m.keys {
		if k.Key == key.HashKey(raw) {
			return k, nil
		}
	}
	return nil, apperrors.NotFound("api key not found")
}

func (m *memKeys) CountActive(_ context.Context, userID string, now time.Time) (int64, error) {
	var n int64
	for _, k := range m.keys {
		if k.UserID.String() == userID && k.Usable(now) {
			n++
		}
	}
	return n, nil
}

func (m *memKeys) ListByUser(_ context.Context, userID string) ([]key.APIKey, error) {
	var out []key.APIKey
	for _, k := range m.keys {
		if k.UserID.String() == userID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (m *memKeys) Revoke(_ context.Context, keyID, userID string) error {
	for _, k := range m.keys {
		if k.ID.String() == keyID && k.UserID.String() == userID {
			k.IsRevoked = true
			return nil
		}
	}
	return apperrors.NotFound("api key not found")
}

func createKey(t *testing.T, h *KeyHandler, usr user.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/keys", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(WithAccount(req.Context(), usr, []string{"*"}))
	rr := httptest.NewRecorder()
	h.CreateAPIKey(rr, req)
	return rr
}

func TestCreateAPIKey(t *testing.T) {
	repo := &memKeys{}
	h := NewKeyHandler(repo)
	usr := user.User{ID: uuid.New()}

	rr := createKey(t, h, usr, `{"name":"orders","permissions":["shipment","read","SHIPMENT"],"expiry":"1D"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var body struct {
		Data struct {
			APIKey      string   `json:"api_key"`
			MaskedKey   string   `json:"masked_key"`
			Permissions []string `json:"permissions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.Data.APIKey, "sk_live_"))
	assert.Equal(t, key.MaskKey(body.Data.APIKey), body.Data.MaskedKey)
	assert.Equal(t, []string{"SHIPMENT", "READ"}, body.Data.Permissions)

	stored, err := repo.FindByKey(t.Context(), body.Data.APIKey)
	require.NoError(t, err)
	assert.NotEqual(t, body.Data.APIKey, stored.Key)
	assert.Equal(t, usr.ID, stored.UserID)
}

func TestCreateAPIKeyRejections(t *testing.T) {
	usr := user.User{ID: uuid.New()}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown permission", `{"permissions":["WITHDRAW"],"expiry":"1D"}`, http.StatusBadRequest},
		{"no permissions", `{"permissions":[],"expiry":"1D"}`, http.StatusBadRequest},
		{"bad expiry", `{"permissions":["READ"],"expiry":"2W"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := createKey(t, NewKeyHandler(&memKeys{}), usr, tt.body)
			assert.Equal(t, tt.want, rr.Code)
		})
	}

	rr := httptest.NewRecorder()
	NewKeyHandler(&memKeys{}).CreateAPIKey(rr, httptest.NewRequest(http.MethodPost, "/api/keys", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateAPIKeyLimit(t *testing.T) {
	h := NewKeyHandler(&memKeys{})
	usr := user.User{ID: uuid.New()}

	for i := 0; i < key.MaxActiveKeys; i++ {
		require.Equal(t, http.StatusCreated, createKey(t, h, usr, `{"permissions":["READ"],"expiry":"1H"}`).Code)
	}
	assert.Equal(t, http.StatusForbidden, createKey(t, h, usr, `{"permissions":["READ"],"expiry":"1H"}`).Code)

	other := user.User{ID: uuid.New()}
	assert.Equal(t, http.StatusCreated, createKey(t, h, other, `{"permissions":["READ"],"expiry":"1H"}`).Code)
}

func TestRevokeAndListAPIKeys(t *testing.T) {
	repo := &memKeys{}
	h := NewKeyHandler(repo)
	owner := user.User{ID: uuid.New()}
	stranger := user.User{ID: uuid.New()}

	require.Equal(t, http.StatusCreated, createKey(t, h, owner, `{"name":"a","permissions":["READ"],"expiry":"1Y"}`).Code)
	keyID := repo.keys[0].ID.String()

	r := mux.NewRouter()
	r.HandleFunc("/api/keys/{id}/revoke", h.RevokeAPIKey).Methods(http.MethodPost)
	r.HandleFunc("/api/keys", h.ListAPIKeys).Methods(http.MethodGet)

	revoke := func(usr user.User) int {
		req := httptest.NewRequest(http.MethodPost, "/api/keys/"+keyID+"/revoke", nil)
		req = req.WithContext(WithAccount(req.Context(), usr, []string{"*"}))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusNotFound, revoke(stranger))
	assert.Equal(t, http.StatusOK, revoke(owner))

	req := httptest.NewRequest(http.MethodGet, "/api/keys", nil)
	req = req.WithContext(WithAccount(req.Context(), owner, []string{"*"}))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data []KeyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.True(t, body.Data[0].IsRevoked)
	assert.Equal(t, "a", body.Data[0].Name)
	assert.NotContains(t, rr.Body.String(), repo.keys[0].Key)
}
