package statemachine

import (
	"testing"

	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRejectsSkippingToDelivered(t *testing.T) {
	err := Order.Transition(enums.OrderStatusNew, enums.OrderStatusDelivered)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.CodeOf(err))

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NEW", details["from"])
	assert.Equal(t, "DELIVERED", details["to"])
	assert.ElementsMatch(t, []string{"CONFIRMED", "CANCELLED"}, details["allowed"])
}

func TestOrderHappyPath(t *testing.T) {
	path := []enums.OrderStatus{
		enums.OrderStatusNew,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	}
	for i := 1; i < len(path); i++ {
		require.NoError(t, Order.Transition(path[i-1], path[i]))
	}
	assert.True(t, Order.IsTerminal(enums.OrderStatusDelivered))
	assert.True(t, Order.IsTerminal(enums.OrderStatusCancelled))
	assert.False(t, Order.IsTerminal(enums.OrderStatusShipped))
}

func TestBordereauIsStrictlyLinear(t *testing.T) {
	require.NoError(t, Bordereau.Transition(enums.BordereauStatusDraft, enums.BordereauStatusReady))
	require.Error(t, Bordereau.Transition(enums.BordereauStatusDraft, enums.BordereauStatusClosed))
	require.Error(t, Bordereau.Transition(enums.BordereauStatusReady, enums.BordereauStatusDraft))
	require.Error(t, Bordereau.Transition(enums.BordereauStatusClosed, enums.BordereauStatusPickedUp))
	assert.Equal(t, enums.BordereauStatusDraft, Bordereau.Initial())
}

func TestNoOpTransitionIsRejected(t *testing.T) {
	err := Shipment.Transition(enums.ShipmentStatusInTransit, enums.ShipmentStatusInTransit)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.CodeOf(err))
}

func TestUnknownTargetIsRejected(t *testing.T) {
	err := Shipment.Transition(enums.ShipmentStatusPending, enums.ShipmentStatus("LOST"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target status")
}

func TestLeadFunnelIsForwardOnly(t *testing.T) {
	require.NoError(t, Lead.Transition(enums.LeadStatusNew, enums.LeadStatusQualified))
	require.NoError(t, Lead.Transition(enums.LeadStatusContacted, enums.LeadStatusLost))
	require.NoError(t, Lead.Transition(enums.LeadStatusConfirmed, enums.LeadStatusWon))

	require.Error(t, Lead.Transition(enums.LeadStatusQualified, enums.LeadStatusContacted))
	require.Error(t, Lead.Transition(enums.LeadStatusNew, enums.LeadStatusWon))
	require.Error(t, Lead.Transition(enums.LeadStatusLost, enums.LeadStatusContacted))
	assert.True(t, Lead.IsTerminal(enums.LeadStatusWon))
	assert.True(t, Lead.IsTerminal(enums.LeadStatusLost))
}

func TestAllowedReturnsCopy(t *testing.T) {
	allowed := Order.Allowed(enums.OrderStatusNew)
	allowed[0] = enums.OrderStatusReturned
	assert.True(t, Order.CanTransition(enums.OrderStatusNew, enums.OrderStatusConfirmed))
}
