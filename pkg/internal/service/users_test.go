package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/types"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	us := f.users()

	u, err := us.Register(ctx, types.RegisterRequest{Username: "ploy", Password: "secret", Name: "Ploy"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)

	_, err = us.Register(ctx, types.RegisterRequest{Username: "ploy", Password: "other"})
	require.ErrorIs(t, err, ErrConflict)

	got, err := us.Login(ctx, types.LoginRequest{Username: "ploy", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Ploy", got.Name)

	_, err = us.Login(ctx, types.LoginRequest{Username: "ploy", Password: "wrong"})
	require.ErrorIs(t, err, ErrBadCredentials)

	_, err = us.Register(ctx, types.RegisterRequest{Username: " ", Password: "x"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users().Create(ctx, "root", "pw", "Admin", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	_, err = f.users().Create(ctx, "x", "pw", "", "owner")
	require.ErrorIs(t, err, ErrValidation)
}
