package statemachine

import "github.com/angelmondragon/codcrm-backend/pkg/enums"

var Order = New("order", enums.OrderStatusNew, map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusNew:        {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusReturned},
})

var Shipment = New("shipment", enums.ShipmentStatusPending, map[enums.ShipmentStatus][]enums.ShipmentStatus{
	enums.ShipmentStatusPending:   {enums.ShipmentStatusPickedUp},
	enums.ShipmentStatusPickedUp:  {enums.ShipmentStatusInTransit, enums.ShipmentStatusReturned},
	enums.ShipmentStatusInTransit: {enums.ShipmentStatusDelivered, enums.ShipmentStatusReturned},
})

var Bordereau = New("bordereau", enums.BordereauStatusDraft, map[enums.BordereauStatus][]enums.BordereauStatus{
	enums.BordereauStatusDraft:    {enums.BordereauStatusReady},
	enums.BordereauStatusReady:    {enums.BordereauStatusPickedUp},
	enums.BordereauStatusPickedUp: {enums.BordereauStatusClosed},
})

// Lead allows any strictly forward move inside the open funnel, confirmed -> won,
// and abandoning to lost from any open step. Reopening is not an edge.
var Lead = New("lead", enums.LeadStatusNew, leadEdges())

func leadEdges() map[enums.LeadStatus][]enums.LeadStatus {
	open := []enums.LeadStatus{
		enums.LeadStatusNew,
		enums.LeadStatusContacted,
		enums.LeadStatusQualified,
		enums.LeadStatusConfirmed,
	}
	edges := make(map[enums.LeadStatus][]enums.LeadStatus, len(open))
	for i, from := range open {
		var targets []enums.LeadStatus
		targets = append(targets, open[i+1:]...)
		if from == enums.LeadStatusConfirmed {
			targets = append(targets, enums.LeadStatusWon)
		}
		targets = append(targets, enums.LeadStatusLost)
		edges[from] = targets
	}
	return edges
}
