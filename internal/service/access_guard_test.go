package service

import (
	"context"
	"testing"

	"filevault/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessGuard_AuthorizeSpace(t *testing.T) {
	guard := NewAccessGuard(nil)

	tests := []struct {
		name      string
		identity  *domain.Identity
		spaceID   string
		operation OperationType
		wantErr   error
		wantRole  domain.Role
	}{
		{"member lists", bob, "org_1", OperationList, nil, domain.RoleMember},
		{"member creates", bob, "org_1", OperationCreate, nil, domain.RoleMember},
		{"member cannot delete", bob, "org_1", OperationSoftDelete, domain.ErrForbidden, ""},
		{"member cannot restore", bob, "org_1", OperationRestore, domain.ErrForbidden, ""},
		{"admin deletes", alice, "org_1", OperationSoftDelete, nil, domain.RoleAdmin},
		{"owner of personal space", bob, "user_bob", OperationRestore, nil, domain.RoleAdmin},
		{"outsider", eve, "org_1", OperationList, domain.ErrForbidden, ""},
		{"empty space", alice, "", OperationList, domain.ErrForbidden, ""},
		{"anonymous", nil, "org_1", OperationList, domain.ErrUnauthenticated, ""},
		{"unknown operation", alice, "org_1", OperationType("purge"), domain.ErrForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := guard.AuthorizeSpace(tt.identity, tt.spaceID, tt.operation)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.spaceID, sc.Space.ID)
			assert.Equal(t, tt.wantRole, sc.Role)
		})
	}
}

func TestAccessGuard_AuthorizeFile(t *testing.T) {
	env := newTestEnv(t)
	guard := NewAccessGuard(env.files)
	ctx := context.Background()

	id := env.createFile(t, alice, "org_1", "a.csv", domain.FileTypeCSV)

	sc, file, err := guard.AuthorizeFile(ctx, bob, id, OperationGet)
	require.NoError(t, err)
	assert.Equal(t, "org_1", sc.Space.ID)
	assert.Equal(t, id, file.ID)

	_, _, err = guard.AuthorizeFile(ctx, bob, id, OperationSoftDelete)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = guard.AuthorizeFile(ctx, eve, id, OperationSoftDelete)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrForbidden)

	_, _, err = guard.AuthorizeFile(ctx, alice, uuid.New(), OperationGet)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = guard.AuthorizeFile(ctx, nil, id, OperationGet)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
