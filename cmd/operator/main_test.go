package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestRootCmdRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing email", []string{"--role", "admin"}, `required flag(s) "email" not set`},
		{"blank email", []string{"--email", "  "}, "--email must not be blank"},
		{"unknown role", []string{"--email", "ops@example.com", "--role", "janitor"}, `unknown role "janitor"`},
		{"negative ttl", []string{"--email", "ops@example.com", "--ttl=-1h"}, "--ttl must be positive"},
		{"stray argument", []string{"--email", "ops@example.com", "extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := rootCmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProvision(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}))
	users := user.NewRepository(db)
	ctx := context.Background()

	req := provisionRequest{email: "packer@example.com", name: "Packer", role: user.RoleWarehouseStaff, ttl: time.Hour}
	token, err := provision(ctx, users, "secret", req)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	created, err := users.FindByEmail(ctx, "packer@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleWarehouseStaff, created.Role)

	// a second run with another role reuses the account unchanged
	req.role = user.RoleAdmin
	_, err = provision(ctx, users, "secret", req)
	require.NoError(t, err)

	again, err := users.FindByEmail(ctx, "packer@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, user.RoleWarehouseStaff, again.Role)
}
