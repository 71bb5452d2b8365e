package bordereaux

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
	"github.com/angelmondragon/codcrm-backend/pkg/metrics"
	"github.com/angelmondragon/codcrm-backend/pkg/numbering"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
	"github.com/angelmondragon/codcrm-backend/pkg/statemachine"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

const numberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ShipmentFlow moves a single shipment inside a caller transaction.
type ShipmentFlow interface {
	TransitionTx(ctx context.Context, tx *gorm.DB, act actor.Actor, id uuid.UUID, target enums.ShipmentStatus, location, note *string) (*models.Shipment, error)
}

// Service manages courier pickup manifests.
type Service interface {
	Create(ctx context.Context, act actor.Actor, input CreateInput) (*BordereauDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*BordereauDTO, error)
	List(ctx context.Context, params ListParams) (*pagination.Page[BordereauDTO], error)
	AddShipments(ctx context.Context, act actor.Actor, id uuid.UUID, input ShipmentsInput) (*BordereauDTO, error)
	RemoveShipment(ctx context.Context, act actor.Actor, id, shipmentID uuid.UUID) (*BordereauDTO, error)
	Transition(ctx context.Context, act actor.Actor, id uuid.UUID, input TransitionInput) (*BordereauDTO, error)
	Recompute(ctx context.Context, act actor.Actor, id uuid.UUID) (*BordereauDTO, error)
	Manifest(ctx context.Context, id uuid.UUID) (*Manifest, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	shipments ShipmentFlow
	logg      *logger.Logger
	recorder  *metrics.Recorder
	now       func() time.Time
}

func NewService(repo Repository, tx txRunner, shipments ShipmentFlow, logg *logger.Logger, recorder *metrics.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bordereau repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if shipments == nil {
		return nil, fmt.Errorf("shipment flow required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, shipments: shipments, logg: logg, recorder: recorder, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, act actor.Actor, input CreateInput) (*BordereauDTO, error) {
	if err := act.Require(actor.AreaShipping); err != nil {
		return nil, err
	}
	v := validate.New()
	v.Struct(input)
	v.Check(input.CourierID != uuid.Nil, "courier_id", "is required")
	if err := v.Err(); err != nil {
		return nil, err
	}
	courier, err := s.repo.FindCourier(ctx, input.CourierID)
	if err != nil {
		return nil, db.TranslateError(err, "courier")
	}
	if !courier.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidData, "courier is inactive").
			WithDetails(map[string]string{"courier_id": courier.ID.String()})
	}

	var b *models.Bordereau
	for attempt := 0; attempt < numberAttempts; attempt++ {
		b, err = s.create(ctx, act, courier.ID, input)
		if !pkgerrors.IsCode(err, pkgerrors.CodeDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	s.recorder.Transition("bordereau", "", string(b.Status))
	s.logg.Info(s.logg.WithFields(s.logg.WithEntity(ctx, "bordereau", b.ID.String()), map[string]any{
		"number":     b.Number,
		"courier_id": b.CourierID,
	}), "bordereau created")
	return s.Get(ctx, b.ID)
}

func (s *service) create(ctx context.Context, act actor.Actor, courierID uuid.UUID, input CreateInput) (*models.Bordereau, error) {
	number, err := numbering.Generate(numbering.BordereauPrefix, s.now(), 4)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate bordereau number")
	}
	b := &models.Bordereau{
		Number:         number,
		CourierID:      courierID,
		PickupDate:     input.PickupDate,
		Status:         statemachine.Bordereau.Initial(),
		TotalCODAmount: decimal.Zero,
		TotalShipping:  decimal.Zero,
		Notes:          input.Notes,
		CreatedBy:      act.Ref(),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, b); err != nil {
			return db.TranslateError(err, "bordereau")
		}
		return repo.CreateHistory(ctx, &models.BordereauHistory{
			BordereauID: b.ID,
			ToStatus:    b.Status,
			ActorID:     act.Ref(),
		})
	})
	if err != nil {
		return nil, db.TranslateError(err, "bordereau history")
	}
	return b, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*BordereauDTO, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "bordereau")
	}
	dto := fromModel(b)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[BordereauDTO], error) {
	if err := pagination.CheckCursor(params.Cursor); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, db.TranslateError(err, "bordereau")
	}
	items := make([]BordereauDTO, len(rows))
	for i := range rows {
		items[i] = fromModel(&rows[i])
	}
	page := pagination.Build(items, params.Limit, cursorOf)
	return &page, nil
}

func (s *service) AddShipments(ctx context.Context, act actor.Actor, id uuid.UUID, input ShipmentsInput) (*BordereauDTO, error) {
	if err := act.Require(actor.AreaShipping); err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	ids := uniqueIDs(input.ShipmentIDs)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		b, err := lockDraft(ctx, repo, id)
		if err != nil {
			return err
		}
		rows, err := repo.FindShipmentsForUpdate(ctx, ids)
		if err != nil {
			return db.TranslateError(err, "shipment")
		}
		if err := checkMembership(b, ids, rows); err != nil {
			return err
		}
		if err := repo.Attach(ctx, b.ID, ids); err != nil {
			return db.TranslateError(err, "shipment")
		}
		_, err = s.recomputeTx(ctx, repo, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(s.logg.WithEntity(ctx, "bordereau", id.String()), map[string]any{
		"added": len(ids),
	}), "shipments added to bordereau")
	return s.Get(ctx, id)
}

func (s *service) RemoveShipment(ctx context.Context, act actor.Actor, id, shipmentID uuid.UUID) (*BordereauDTO, error) {
	if err := act.Require(actor.AreaShipping); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		b, err := lockDraft(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := repo.Detach(ctx, b.ID, shipmentID); err != nil {
			return db.TranslateError(err, "shipment")
		}
		_, err = s.recomputeTx(ctx, repo, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Transition(ctx context.Context, act actor.Actor, id uuid.UUID, input TransitionInput) (*BordereauDTO, error) {
	if err := act.Require(actor.AreaShipping); err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	target, err := enums.ParseBordereauStatus(strings.ToUpper(strings.TrimSpace(input.Status)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid bordereau status").
			WithDetails(map[string]string{"status": "is not an allowed value"})
	}

	var from enums.BordereauStatus
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		b, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return db.TranslateError(err, "bordereau")
		}
		from = b.Status
		if err := statemachine.Bordereau.Transition(from, target); err != nil {
			return err
		}
		contained, err := repo.ListShipments(ctx, b.ID)
		if err != nil {
			return db.TranslateError(err, "shipment")
		}
		if target == enums.BordereauStatusReady && len(contained) == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidData, "bordereau has no shipments")
		}

		now := s.now().UTC()
		updates := map[string]any{"status": target}
		switch target {
		case enums.BordereauStatusPickedUp:
			updates["picked_up_at"] = now
			if err := s.pickUp(ctx, tx, act, b, contained); err != nil {
				return err
			}
		case enums.BordereauStatusClosed:
			updates["closed_at"] = now
		}
		if err := repo.Update(ctx, b.ID, updates); err != nil {
			return db.TranslateError(err, "bordereau")
		}
		if err := repo.CreateHistory(ctx, &models.BordereauHistory{
			BordereauID: b.ID,
			FromStatus:  &from,
			ToStatus:    target,
			ActorID:     act.Ref(),
			Note:        input.Note,
		}); err != nil {
			return db.TranslateError(err, "bordereau history")
		}
		_, err = s.recomputeTx(ctx, repo, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recorder.Transition("bordereau", string(from), string(target))
	s.logg.Info(s.logg.WithFields(s.logg.WithEntity(ctx, "bordereau", id.String()), map[string]any{
		"from": from,
		"to":   target,
	}), "bordereau status changed")
	return s.Get(ctx, id)
}

// pickUp moves every PENDING shipment to PICKED_UP. All failures are
// reported together and the caller's transaction is rolled back.
func (s *service) pickUp(ctx context.Context, tx *gorm.DB, act actor.Actor, b *models.Bordereau, contained []models.Shipment) error {
	note := "picked up with bordereau " + b.Number
	var combined error
	details := map[string]string{}
	for _, shipment := range contained {
		if shipment.Status != enums.ShipmentStatusPending {
			continue
		}
		if _, err := s.shipments.TransitionTx(ctx, tx, act, shipment.ID, enums.ShipmentStatusPickedUp, nil, &note); err != nil {
			combined = multierr.Append(combined, err)
			details[shipment.TrackingNumber] = err.Error()
		}
	}
	if combined == nil {
		return nil
	}
	first := multierr.Errors(combined)[0]
	return pkgerrors.Wrap(pkgerrors.CodeOf(first), combined, "bordereau pickup failed").WithDetails(details)
}

func (s *service) Recompute(ctx context.Context, act actor.Actor, id uuid.UUID) (*BordereauDTO, error) {
	if err := act.Require(actor.AreaShipping); err != nil {
		return nil, err
	}
	var drifted bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		b, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return db.TranslateError(err, "bordereau")
		}
		drifted, err = s.recomputeTx(ctx, repo, b)
		return err
	})
	if err != nil {
		return nil, err
	}
	if drifted {
		s.logg.Warn(s.logg.WithEntity(ctx, "bordereau", id.String()), "bordereau totals drifted and were recomputed")
	}
	return s.Get(ctx, id)
}

// recomputeTx rewrites the cached totals from the contained shipments and
// reports whether the stored values differed.
func (s *service) recomputeTx(ctx context.Context, repo Repository, b *models.Bordereau) (bool, error) {
	contained, err := repo.ListShipments(ctx, b.ID)
	if err != nil {
		return false, db.TranslateError(err, "shipment")
	}
	totals := ComputeTotals(contained)
	if totals.matches(b) {
		return false, nil
	}
	if err := repo.Update(ctx, b.ID, totals.columns()); err != nil {
		return false, db.TranslateError(err, "bordereau")
	}
	b.TotalCODAmount, b.TotalShipping, b.ShipmentCount = totals.CODAmount, totals.Shipping, totals.Count
	return true, nil
}

func (s *service) Manifest(ctx context.Context, id uuid.UUID) (*Manifest, error) {
	b, err := s.repo.FindManifest(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "bordereau")
	}
	return manifestFromModel(b), nil
}

func lockDraft(ctx context.Context, repo Repository, id uuid.UUID) (*models.Bordereau, error) {
	b, err := repo.FindForUpdate(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "bordereau")
	}
	if b.Status != enums.BordereauStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidData, "shipments can only change while the bordereau is DRAFT").
			WithDetails(map[string]string{"status": string(b.Status)})
	}
	return b, nil
}

// checkMembership reports, per requested id, why a shipment cannot join b.
func checkMembership(b *models.Bordereau, ids []uuid.UUID, rows []models.Shipment) error {
	byID := make(map[uuid.UUID]models.Shipment, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	details := map[string]string{}
	for i, id := range ids {
		field := fmt.Sprintf("shipment_ids[%d]", i)
		shipment, ok := byID[id]
		switch {
		case !ok:
			details[field] = "does not exist"
		case shipment.CourierID != b.CourierID:
			details[field] = "belongs to another courier"
		case shipment.Status != enums.ShipmentStatusPending:
			details[field] = "is not PENDING"
		case shipment.BordereauID != nil:
			details[field] = "is already on a bordereau"
		case shipment.Order == nil:
			details[field] = "has no order"
		case shipment.Order.Status != enums.OrderStatusProcessing:
			details[field] = fmt.Sprintf("order is %s", shipment.Order.Status)
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidData, "shipments cannot be added to the bordereau").WithDetails(details)
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
