package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
)

func TestRoleResolver(t *testing.T) {
	staff := &user.User{ID: uuid.New(), Email: "picker@example.com", Role: user.RoleWarehouseStaff}
	boss := &user.User{ID: uuid.New(), Email: "Boss@Example.com", Role: user.RoleCustomer}
	legacy := &user.User{ID: uuid.New(), Email: "old@example.com", Role: "superuser"}

	resolver := NewRoleResolver(newUsers(staff, boss, legacy), []string{" boss@example.com "})
	ctx := context.Background()

	role, err := resolver.ResolveRole(ctx, staff.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.RoleWarehouseStaff, role)

	role, err = resolver.ResolveRole(ctx, boss.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, role)

	role, err = resolver.ResolveRole(ctx, legacy.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.RoleCustomer, role)

	_, err = resolver.ResolveRole(ctx, uuid.NewString())
	assert.Equal(t, apperrors.KindAuthorization, apperrors.KindOf(err))

	_, err = resolver.ResolveRole(ctx, "")
	assert.Equal(t, apperrors.KindAuthorization, apperrors.KindOf(err))
}
