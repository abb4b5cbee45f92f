package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/boxtrail/transfer-system/internal/api/metrics"
	"github.com/boxtrail/transfer-system/internal/core/domain"
	"github.com/boxtrail/transfer-system/internal/core/ports"
)

// TransitionSink receives audit events after a transition has been persisted.
type TransitionSink interface {
	Enqueue(event domain.TransitionEvent)
}

// ShipmentService implements the shipment lifecycle: creation, box
// preparation, sending, cancellation, loss, receipt and reconciliation. All
// state guards live here; handlers only translate HTTP to inputs.
type ShipmentService struct {
	shipments  ports.ShipmentRepository
	boxes      ports.BoxRepository
	bases      ports.BaseRepository
	agreements ports.AgreementRepository
	catalog    ports.CatalogRepository
	audit      TransitionSink
	logger     zerolog.Logger
	now        func() time.Time
}

func NewShipmentService(
	shipments ports.ShipmentRepository,
	boxes ports.BoxRepository,
	bases ports.BaseRepository,
	agreements ports.AgreementRepository,
	catalog ports.CatalogRepository,
	audit TransitionSink,
	logger zerolog.Logger,
) *ShipmentService {
	return &ShipmentService{
		shipments:  shipments,
		boxes:      boxes,
		bases:      bases,
		agreements: agreements,
		catalog:    catalog,
		audit:      audit,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateShipment opens a new shipment in the preparing state. If an
// idempotency key is provided and already seen, the previously created
// shipment is returned without side effects.
func (s *ShipmentService) CreateShipment(ctx context.Context, input ports.CreateShipmentInput) (*ports.ShipmentResult, error) {
	if input.IdempotencyKey != "" {
		existing, err := s.shipments.FindByIdempotencyKey(ctx, input.IdempotencyKey)
		if err == nil && existing != nil {
			s.logger.Info().Str("idempotency_key", input.IdempotencyKey).Str("label", existing.LabelIdentifier).Msg("idempotent replay")
			return &ports.ShipmentResult{
				LabelIdentifier: existing.LabelIdentifier,
				State:           string(existing.State),
				StartedOn:       existing.StartedOn,
				AlreadyExisted:  true,
			}, nil
		}
	}

	if input.Actor.Role != domain.RoleAdmin && input.Actor.BaseID != input.SourceBaseID {
		return nil, domain.ErrUnauthorizedForBase
	}

	source, err := s.bases.FindByID(ctx, input.SourceBaseID)
	if err != nil {
		return nil, fmt.Errorf("resolve source base: %w", err)
	}
	target, err := s.bases.FindByID(ctx, input.TargetBaseID)
	if err != nil {
		return nil, fmt.Errorf("resolve target base: %w", err)
	}

	now := s.now()
	agreement, err := s.agreements.FindByID(ctx, input.TransferAgreementID)
	if err != nil {
		return nil, fmt.Errorf("resolve agreement: %w", err)
	}
	if !agreement.Authorizes(source.Organisation.ID, target.Organisation.ID, now) {
		return nil, domain.ErrAgreementNotActive
	}

	shipment := &domain.Shipment{
		LabelIdentifier:     generateLabelIdentifier(),
		State:               domain.StatePreparing,
		SourceBase:          *source,
		TargetBase:          *target,
		TransferAgreementID: agreement.ID,
		IdempotencyKey:      input.IdempotencyKey,
		StartedOn:           now,
		StartedBy:           input.Actor.Actor(),
	}

	if err := s.shipments.Create(ctx, shipment); err != nil {
		s.logger.Error().Err(err).Msg("failed to create shipment")
		return nil, err
	}

	metrics.ShipmentsCreatedTotal.WithLabelValues(source.Organisation.Name).Inc()
	s.emit(shipment, domain.ActionStarted, now, input.Actor, 0)
	s.logger.Info().Str("label", shipment.LabelIdentifier).Str("source_base", source.ID).Str("target_base", target.ID).Msg("shipment created")

	return &ports.ShipmentResult{
		LabelIdentifier: shipment.LabelIdentifier,
		State:           string(shipment.State),
		StartedOn:       shipment.StartedOn,
	}, nil
}

// GetShipment returns the full shipment projection including the derived
// content groups and timeline. Members only see shipments touching their base.
func (s *ShipmentService) GetShipment(ctx context.Context, label string, actor ports.ActorInput) (*ports.ShipmentView, error) {
	shipment, err := s.findVisible(ctx, label, actor)
	if err != nil {
		return nil, err
	}
	return view(shipment), nil
}

// ListShipments returns a page of shipment summaries scoped to the caller.
func (s *ShipmentService) ListShipments(ctx context.Context, input ports.ListShipmentsInput) (*ports.ListShipmentsResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	baseID := input.Actor.BaseID
	if input.Actor.Role == domain.RoleAdmin {
		baseID = ""
	}

	items, total, err := s.shipments.List(ctx, ports.ListShipmentsFilter{
		BaseID:   baseID,
		State:    input.State,
		Search:   input.Search,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]ports.ShipmentSummary, 0, len(items))
	for _, sh := range items {
		summaries = append(summaries, ports.ShipmentSummary{
			LabelIdentifier: sh.LabelIdentifier,
			State:           string(sh.State),
			SourceBase:      sh.SourceBase,
			TargetBase:      sh.TargetBase,
			BoxCount:        len(sh.ActiveDetails()),
			StartedOn:       sh.StartedOn,
		})
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListShipmentsResult{
		Items:      summaries,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// UpdateWhenPreparing adds and removes boxes while the shipment is preparing.
// Added boxes must be in stock at the source base; removed boxes revert to
// their prior in-stock location.
func (s *ShipmentService) UpdateWhenPreparing(ctx context.Context, input ports.UpdateWhenPreparingInput) (*ports.ShipmentView, error) {
	shipment, err := s.findVisible(ctx, input.LabelIdentifier, input.Actor)
	if err != nil {
		return nil, err
	}
	if err := requireBase(input.Actor, shipment.SourceBase.ID); err != nil {
		return nil, err
	}
	if shipment.State != domain.StatePreparing {
		return nil, fmt.Errorf("%w: contents are frozen once the shipment leaves preparing (state %s)", domain.ErrInvalidTransition, shipment.State)
	}

	now := s.now()
	actor := input.Actor.Actor()
	var marked, reverted []string

	for _, label := range input.PreparedBoxes {
		if shipment.DetailByBoxLabel(label) != nil {
			return nil, fmt.Errorf("box %s: %w", label, domain.ErrBoxAlreadyAssigned)
		}
		box, err := s.boxes.FindByLabel(ctx, label)
		if err != nil {
			return nil, err
		}
		if box.State != domain.BoxInStock || box.BaseID != shipment.SourceBase.ID {
			return nil, fmt.Errorf("box %s: %w", label, domain.ErrBoxNotInStock)
		}
		shipment.Details = append(shipment.Details, domain.ShipmentDetail{
			ID:             uuid.NewString(),
			Box:            domain.BoxRef{LabelIdentifier: label},
			SourceProduct:  box.Product,
			SourceSize:     box.Size,
			SourceLocation: box.Location,
			SourceQuantity: box.Quantity,
			CreatedOn:      now,
			CreatedBy:      actor,
		})
		marked = append(marked, label)
	}

	for _, label := range input.RemovedBoxes {
		detail := shipment.DetailByBoxLabel(label)
		if detail == nil {
			return nil, fmt.Errorf("box %s: %w", label, domain.ErrDetailNotFound)
		}
		if err := detail.MarkRemoved(now, actor); err != nil {
			return nil, fmt.Errorf("box %s: %w", label, err)
		}
		reverted = append(reverted, label)
	}

	if err := s.shipments.Update(ctx, shipment); err != nil {
		return nil, err
	}
	if len(marked) > 0 {
		if err := s.boxes.SetStates(ctx, marked, domain.BoxMarkedForShipment); err != nil {
			return nil, err
		}
		s.emit(shipment, domain.ActionBoxAdded, now, input.Actor, len(marked))
	}
	if len(reverted) > 0 {
		if err := s.boxes.SetStates(ctx, reverted, domain.BoxInStock); err != nil {
			return nil, err
		}
		s.emit(shipment, domain.ActionBoxRemoved, now, input.Actor, len(reverted))
	}

	return view(shipment), nil
}

// SendShipment transitions preparing → sent. Requires at least one active
// detail; all active boxes move to in_transit.
func (s *ShipmentService) SendShipment(ctx context.Context, label string, actor ports.ActorInput) (*ports.ShipmentView, error) {
	return s.transition(ctx, label, actor, domain.StateSent, domain.ActionSent, func(shipment *domain.Shipment, now time.Time, by domain.Actor) ([]string, domain.BoxState, error) {
		if err := requireBase(actor, shipment.SourceBase.ID); err != nil {
			return nil, "", err
		}
		active := shipment.ActiveDetails()
		if len(active) == 0 {
			return nil, "", domain.ErrShipmentEmpty
		}
		shipment.SentOn = &now
		shipment.SentBy = &by
		return boxLabels(active), domain.BoxInTransit, nil
	})
}

// CancelShipment transitions preparing → canceled; boxes return to stock at
// their original locations.
func (s *ShipmentService) CancelShipment(ctx context.Context, label string, actor ports.ActorInput) (*ports.ShipmentView, error) {
	return s.transition(ctx, label, actor, domain.StateCanceled, domain.ActionCanceled, func(shipment *domain.Shipment, now time.Time, by domain.Actor) ([]string, domain.BoxState, error) {
		if err := requireEitherBase(actor, shipment); err != nil {
			return nil, "", err
		}
		shipment.CanceledOn = &now
		shipment.CanceledBy = &by
		return boxLabels(shipment.ActiveDetails()), domain.BoxInStock, nil
	})
}

// MarkShipmentAsLost transitions sent → lost. Every non-removed detail is
// marked lost and its box becomes not_delivered.
func (s *ShipmentService) MarkShipmentAsLost(ctx context.Context, label string, actor ports.ActorInput) (*ports.ShipmentView, error) {
	return s.transition(ctx, label, actor, domain.StateLost, domain.ActionMarkedLost, func(shipment *domain.Shipment, now time.Time, by domain.Actor) ([]string, domain.BoxState, error) {
		if err := requireEitherBase(actor, shipment); err != nil {
			return nil, "", err
		}
		var labels []string
		for i := range shipment.Details {
			if shipment.Details[i].RemovedOn != nil {
				continue
			}
			if err := shipment.Details[i].MarkLost(now, by); err != nil {
				return nil, "", err
			}
			labels = append(labels, shipment.Details[i].Box.LabelIdentifier)
		}
		return labels, domain.BoxNotDelivered, nil
	})
}

// StartReceivingShipment transitions sent → receiving. Only target base
// members may start receipt; all active boxes move to receiving.
func (s *ShipmentService) StartReceivingShipment(ctx context.Context, label string, actor ports.ActorInput) (*ports.ShipmentView, error) {
	return s.transition(ctx, label, actor, domain.StateReceiving, domain.ActionReceivingStarted, func(shipment *domain.Shipment, now time.Time, by domain.Actor) ([]string, domain.BoxState, error) {
		if err := requireBase(actor, shipment.TargetBase.ID); err != nil {
			return nil, "", err
		}
		shipment.ReceivingStartedOn = &now
		shipment.ReceivingStartedBy = &by
		return boxLabels(shipment.ActiveDetails()), domain.BoxReceiving, nil
	})
}

// UpdateWhenReceiving reconciles received and lost boxes and completes the
// shipment once every non-removed detail carries a terminal marker.
func (s *ShipmentService) UpdateWhenReceiving(ctx context.Context, input ports.UpdateWhenReceivingInput) (*ports.ShipmentView, error) {
	started := s.now()

	shipment, err := s.findVisible(ctx, input.LabelIdentifier, input.Actor)
	if err != nil {
		return nil, err
	}
	if err := requireBase(input.Actor, shipment.TargetBase.ID); err != nil {
		return nil, err
	}
	if shipment.State != domain.StateReceiving {
		return nil, fmt.Errorf("%w: reconciliation requires the receiving state (state %s)", domain.ErrInvalidTransition, shipment.State)
	}

	now := s.now()
	actor := input.Actor.Actor()

	for _, upd := range input.Received {
		detail := shipment.DetailByID(upd.DetailID)
		if detail == nil {
			return nil, fmt.Errorf("detail %s: %w", upd.DetailID, domain.ErrDetailNotFound)
		}

		override, err := s.resolveOverride(ctx, shipment, upd)
		if err != nil {
			return nil, err
		}
		if err := detail.MarkReceived(now, actor, override); err != nil {
			return nil, fmt.Errorf("detail %s: %w", upd.DetailID, err)
		}

		box, err := s.boxes.FindByLabel(ctx, detail.Box.LabelIdentifier)
		if err != nil {
			return nil, err
		}
		box.State = domain.BoxInStock
		box.BaseID = shipment.TargetBase.ID
		box.Product = *detail.TargetProduct
		box.Size = *detail.TargetSize
		box.Location = *detail.TargetLocation
		box.Quantity = *detail.TargetQuantity
		if err := s.boxes.Update(ctx, box); err != nil {
			return nil, err
		}
	}

	var lostLabels []string
	for _, label := range input.LostBoxes {
		detail := shipment.DetailByBoxLabel(label)
		if detail == nil {
			return nil, fmt.Errorf("box %s: %w", label, domain.ErrDetailNotFound)
		}
		if err := detail.MarkLost(now, actor); err != nil {
			return nil, fmt.Errorf("box %s: %w", label, err)
		}
		lostLabels = append(lostLabels, label)
	}

	completed := shipment.FullyReconciled()
	if completed {
		if !shipment.State.CanTransitionTo(domain.StateCompleted) {
			return nil, domain.ErrInvalidTransition
		}
		shipment.State = domain.StateCompleted
		shipment.CompletedOn = &now
		shipment.CompletedBy = &actor
	}

	if err := s.shipments.Update(ctx, shipment); err != nil {
		return nil, err
	}
	if len(lostLabels) > 0 {
		if err := s.boxes.SetStates(ctx, lostLabels, domain.BoxNotDelivered); err != nil {
			return nil, err
		}
		s.emit(shipment, domain.ActionBoxLost, now, input.Actor, len(lostLabels))
	}
	if len(input.Received) > 0 {
		s.emit(shipment, domain.ActionBoxReceived, now, input.Actor, len(input.Received))
	}
	if completed {
		metrics.ShipmentTransitionsTotal.WithLabelValues(string(domain.StateCompleted)).Inc()
		s.emit(shipment, domain.ActionCompleted, now, input.Actor, 0)
		s.logger.Info().Str("label", shipment.LabelIdentifier).Msg("shipment completed")
	}
	metrics.ReconcileDuration.Observe(s.now().Sub(started).Seconds())

	return view(shipment), nil
}

// resolveOverride turns a received-detail update into the domain override,
// resolving catalog references and validating the target location.
func (s *ShipmentService) resolveOverride(ctx context.Context, shipment *domain.Shipment, upd ports.ReceivedDetailUpdate) (domain.ReceiveOverride, error) {
	var override domain.ReceiveOverride

	if upd.TargetProductID != nil {
		product, err := s.catalog.FindProduct(ctx, *upd.TargetProductID)
		if err != nil {
			return override, err
		}
		override.Product = product
	}
	if upd.TargetSizeID != nil {
		size, err := s.catalog.FindSize(ctx, *upd.TargetSizeID)
		if err != nil {
			return override, err
		}
		override.Size = size
	}
	override.Quantity = upd.TargetQuantity

	location, err := s.catalog.FindLocation(ctx, upd.TargetLocationID)
	if err != nil {
		return override, err
	}
	if location.BaseID != shipment.TargetBase.ID {
		return override, fmt.Errorf("location %s: %w", location.ID, domain.ErrLocationNotInBase)
	}
	override.Location = domain.LocationRef{ID: location.ID, Name: location.Name}
	return override, nil
}

// transition runs the shared skeleton of the single-step transitions: load,
// check the state machine, apply the mutator, persist, move boxes, emit audit.
func (s *ShipmentService) transition(
	ctx context.Context,
	label string,
	actor ports.ActorInput,
	next domain.ShipmentState,
	action string,
	apply func(*domain.Shipment, time.Time, domain.Actor) ([]string, domain.BoxState, error),
) (*ports.ShipmentView, error) {
	shipment, err := s.findVisible(ctx, label, actor)
	if err != nil {
		return nil, err
	}
	if !shipment.State.CanTransitionTo(next) {
		metrics.TransitionErrorsTotal.WithLabelValues("invalid_transition").Inc()
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, shipment.State, next)
	}

	now := s.now()
	labels, boxState, err := apply(shipment, now, actor.Actor())
	if err != nil {
		return nil, err
	}
	shipment.State = next

	if err := s.shipments.Update(ctx, shipment); err != nil {
		metrics.TransitionErrorsTotal.WithLabelValues("update_failed").Inc()
		return nil, err
	}
	if len(labels) > 0 {
		if err := s.boxes.SetStates(ctx, labels, boxState); err != nil {
			return nil, err
		}
	}

	metrics.ShipmentTransitionsTotal.WithLabelValues(string(next)).Inc()
	s.emit(shipment, action, now, actor, len(labels))
	s.logger.Info().
		Str("label", shipment.LabelIdentifier).
		Str("state", string(next)).
		Int("boxes", len(labels)).
		Msg("shipment transitioned")

	return view(shipment), nil
}

func (s *ShipmentService) findVisible(ctx context.Context, label string, actor ports.ActorInput) (*domain.Shipment, error) {
	baseID := actor.BaseID
	if actor.Role == domain.RoleAdmin {
		baseID = ""
	}
	return s.shipments.FindByLabel(ctx, label, baseID)
}

func (s *ShipmentService) emit(shipment *domain.Shipment, action string, at time.Time, actor ports.ActorInput, boxCount int) {
	if s.audit == nil {
		return
	}
	s.audit.Enqueue(domain.TransitionEvent{
		ShipmentLabel: shipment.LabelIdentifier,
		Action:        action,
		Timestamp:     at,
		Actor:         actor.Actor(),
		BoxCount:      boxCount,
	})
}

func view(shipment *domain.Shipment) *ports.ShipmentView {
	return &ports.ShipmentView{
		Shipment: shipment,
		Contents: domain.GroupContents(shipment.Details),
		Timeline: domain.BuildTimeline(shipment),
	}
}

func boxLabels(details []domain.ShipmentDetail) []string {
	labels := make([]string, 0, len(details))
	for _, d := range details {
		labels = append(labels, d.Box.LabelIdentifier)
	}
	return labels
}

// requireBase rejects callers who are neither admin nor members of the base.
func requireBase(actor ports.ActorInput, baseID string) error {
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if actor.Role != domain.RoleMember {
		return domain.ErrInsufficientPermission
	}
	if actor.BaseID != baseID {
		return domain.ErrUnauthorizedForBase
	}
	return nil
}

// requireEitherBase allows members of the source or the target base.
func requireEitherBase(actor ports.ActorInput, shipment *domain.Shipment) error {
	if err := requireBase(actor, shipment.SourceBase.ID); err == nil {
		return nil
	}
	return requireBase(actor, shipment.TargetBase.ID)
}

// generateLabelIdentifier returns a unique shipment label in the format TR-XXXXXXXX.
func generateLabelIdentifier() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// fallback: use current nanoseconds
		return fmt.Sprintf("TR-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("TR-%08X", b)
}
