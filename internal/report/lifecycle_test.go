package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanghana/pkg/domainerrors"
)

func TestInitialStatus(t *testing.T) {
	status, err := InitialStatus(TypeWasteReport)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	status, err = InitialStatus(TypeRecyclingRequest)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)

	_, err = InitialStatus(Type("bogus"))
	assert.True(t, domainerrors.Is(err, domainerrors.CodeValidation))
}

func TestTransition_ForwardOnly(t *testing.T) {
	rec := Record{ID: "r1", Type: TypeWasteReport, Status: StatusPending}

	apply, err := Transition(rec, StatusResolved, RoleAuthority)
	require.NoError(t, err)
	assert.True(t, apply)

	// Only the terminal status is a legal target.
	_, err = Transition(rec, StatusPending, RoleAuthority)
	assert.True(t, domainerrors.Is(err, domainerrors.CodeValidation))
	_, err = Transition(rec, StatusCollected, RoleAuthority)
	assert.True(t, domainerrors.Is(err, domainerrors.CodeValidation))
}

func TestTransition_RoleAuthorization(t *testing.T) {
	waste := Record{Type: TypeWasteReport, Status: StatusPending}
	pickup := Record{Type: TypeRecyclingRequest, Status: StatusReady}

	for _, role := range []Role{RoleCitizen, RoleRecycler} {
		_, err := Transition(waste, StatusResolved, role)
		assert.True(t, domainerrors.Is(err, domainerrors.CodeForbidden), "role %s", role)
	}
	for _, role := range []Role{RoleCitizen, RoleAuthority} {
		_, err := Transition(pickup, StatusCollected, role)
		assert.True(t, domainerrors.Is(err, domainerrors.CodeForbidden), "role %s", role)
	}

	apply, err := Transition(pickup, StatusCollected, RoleRecycler)
	require.NoError(t, err)
	assert.True(t, apply)
}

func TestTransition_IdempotentOnTerminal(t *testing.T) {
	resolved := Record{Type: TypeWasteReport, Status: StatusResolved}
	apply, err := Transition(resolved, StatusResolved, RoleAuthority)
	require.NoError(t, err)
	assert.False(t, apply)

	collected := Record{Type: TypeRecyclingRequest, Status: StatusCollected}
	apply, err = Transition(collected, StatusCollected, RoleRecycler)
	require.NoError(t, err)
	assert.False(t, apply)
}

func TestCanTransition(t *testing.T) {
	pending := Record{Type: TypeWasteReport, Status: StatusPending}
	assert.True(t, CanTransition(pending, RoleAuthority))
	assert.False(t, CanTransition(pending, RoleRecycler))

	resolved := Record{Type: TypeWasteReport, Status: StatusResolved}
	assert.False(t, CanTransition(resolved, RoleAuthority))
	assert.True(t, resolved.IsTerminal())
	assert.False(t, pending.IsTerminal())
}
