package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/boxtrail/transfer-system/internal/core/domain"
	"github.com/boxtrail/transfer-system/internal/core/ports"
)

type stubShipmentRepo struct {
	byLabel map[string]*domain.Shipment
	byKey   map[string]*domain.Shipment
	creates int
	updates int
}

func newStubShipmentRepo() *stubShipmentRepo {
	return &stubShipmentRepo{
		byLabel: make(map[string]*domain.Shipment),
		byKey:   make(map[string]*domain.Shipment),
	}
}

func (r *stubShipmentRepo) Create(_ context.Context, s *domain.Shipment) error {
	r.creates++
	r.byLabel[s.LabelIdentifier] = s
	if s.IdempotencyKey != "" {
		r.byKey[s.IdempotencyKey] = s
	}
	return nil
}

func (r *stubShipmentRepo) FindByLabel(_ context.Context, label, baseID string) (*domain.Shipment, error) {
	s, ok := r.byLabel[label]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	if baseID != "" && s.SourceBase.ID != baseID && s.TargetBase.ID != baseID {
		return nil, domain.ErrShipmentNotFound
	}
	return s, nil
}

func (r *stubShipmentRepo) FindByIdempotencyKey(_ context.Context, key string) (*domain.Shipment, error) {
	s, ok := r.byKey[key]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return s, nil
}

func (r *stubShipmentRepo) Update(_ context.Context, s *domain.Shipment) error {
	if _, ok := r.byLabel[s.LabelIdentifier]; !ok {
		return domain.ErrShipmentNotFound
	}
	r.updates++
	r.byLabel[s.LabelIdentifier] = s
	return nil
}

func (r *stubShipmentRepo) List(_ context.Context, filter ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	var out []*domain.Shipment
	for _, s := range r.byLabel {
		if filter.BaseID != "" && s.SourceBase.ID != filter.BaseID && s.TargetBase.ID != filter.BaseID {
			continue
		}
		if filter.State != "" && string(s.State) != filter.State {
			continue
		}
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

type stubBoxRepo struct {
	boxes map[string]*domain.Box
}

func newStubBoxRepo(boxes ...*domain.Box) *stubBoxRepo {
	r := &stubBoxRepo{boxes: make(map[string]*domain.Box)}
	for _, b := range boxes {
		r.boxes[b.LabelIdentifier] = b
	}
	return r
}

func (r *stubBoxRepo) FindByLabel(_ context.Context, label string) (*domain.Box, error) {
	b, ok := r.boxes[label]
	if !ok {
		return nil, domain.ErrBoxNotFound
	}
	return b, nil
}

func (r *stubBoxRepo) Update(_ context.Context, b *domain.Box) error {
	r.boxes[b.LabelIdentifier] = b
	return nil
}

func (r *stubBoxRepo) SetStates(_ context.Context, labels []string, state domain.BoxState) error {
	for _, label := range labels {
		b, ok := r.boxes[label]
		if !ok {
			return domain.ErrBoxNotFound
		}
		b.State = state
	}
	return nil
}

type stubBaseRepo struct {
	bases map[string]*domain.Base
}

func (r *stubBaseRepo) FindByID(_ context.Context, id string) (*domain.Base, error) {
	b, ok := r.bases[id]
	if !ok {
		return nil, domain.ErrBaseNotFound
	}
	return b, nil
}

type stubAgreementRepo struct {
	agreements map[string]*domain.TransferAgreement
}

func (r *stubAgreementRepo) FindByID(_ context.Context, id string) (*domain.TransferAgreement, error) {
	a, ok := r.agreements[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return a, nil
}

type stubCatalogRepo struct {
	products  map[string]*domain.ProductRef
	sizes     map[string]*domain.SizeRef
	locations map[string]*domain.StockLocation
}

func (r *stubCatalogRepo) FindProduct(_ context.Context, id string) (*domain.ProductRef, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return p, nil
}

func (r *stubCatalogRepo) FindSize(_ context.Context, id string) (*domain.SizeRef, error) {
	s, ok := r.sizes[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return s, nil
}

func (r *stubCatalogRepo) FindLocation(_ context.Context, id string) (*domain.StockLocation, error) {
	l, ok := r.locations[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return l, nil
}

type stubSink struct {
	events []domain.TransitionEvent
}

func (s *stubSink) Enqueue(e domain.TransitionEvent) {
	s.events = append(s.events, e)
}

func (s *stubSink) lastAction() string {
	if len(s.events) == 0 {
		return ""
	}
	return s.events[len(s.events)-1].Action
}

type fixture struct {
	svc       *ShipmentService
	shipments *stubShipmentRepo
	boxes     *stubBoxRepo
	sink      *stubSink
	now       time.Time
}

var (
	srcMember = ports.ActorInput{UserID: "u-src", Name: "Ana", Role: domain.RoleMember, BaseID: "base-src", OrganisationID: "org-a"}
	tgtMember = ports.ActorInput{UserID: "u-tgt", Name: "Ben", Role: domain.RoleMember, BaseID: "base-tgt", OrganisationID: "org-b"}
	admin     = ports.ActorInput{UserID: "u-adm", Name: "Root", Role: domain.RoleAdmin}
	outsider  = ports.ActorInput{UserID: "u-out", Name: "Eve", Role: domain.RoleMember, BaseID: "base-other", OrganisationID: "org-c"}
)

func box(label string) *domain.Box {
	return &domain.Box{
		LabelIdentifier: label,
		State:           domain.BoxInStock,
		BaseID:          "base-src",
		Product:         domain.ProductRef{ID: "p1", Name: "Winter Jacket", Gender: "unisex"},
		Size:            domain.SizeRef{ID: "s1", Label: "M"},
		Location:        domain.LocationRef{ID: "loc-src", Name: "A-01"},
		Quantity:        10,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bases := &stubBaseRepo{bases: map[string]*domain.Base{
		"base-src": {ID: "base-src", Name: "North Hub", Organisation: domain.Organisation{ID: "org-a", Name: "Org A"}},
		"base-tgt": {ID: "base-tgt", Name: "South Hub", Organisation: domain.Organisation{ID: "org-b", Name: "Org B"}},
	}}
	agreements := &stubAgreementRepo{agreements: map[string]*domain.TransferAgreement{
		"agr-1": {
			ID:                 "agr-1",
			State:              domain.AgreementAccepted,
			SourceOrganisation: domain.Organisation{ID: "org-a"},
			TargetOrganisation: domain.Organisation{ID: "org-b"},
			ValidFrom:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}}
	catalog := &stubCatalogRepo{
		products: map[string]*domain.ProductRef{
			"p2": {ID: "p2", Name: "Rain Coat", Gender: "female"},
		},
		sizes: map[string]*domain.SizeRef{
			"s2": {ID: "s2", Label: "L"},
		},
		locations: map[string]*domain.StockLocation{
			"loc-tgt":   {ID: "loc-tgt", Name: "B-07", BaseID: "base-tgt"},
			"loc-wrong": {ID: "loc-wrong", Name: "Z-99", BaseID: "base-other"},
		},
	}

	f := &fixture{
		shipments: newStubShipmentRepo(),
		boxes:     newStubBoxRepo(box("BX-1"), box("BX-2"), box("BX-3")),
		sink:      &stubSink{},
		now:       time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewShipmentService(f.shipments, f.boxes, bases, agreements, catalog, f.sink, zerolog.Nop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) create(t *testing.T) string {
	t.Helper()
	res, err := f.svc.CreateShipment(context.Background(), ports.CreateShipmentInput{
		SourceBaseID:        "base-src",
		TargetBaseID:        "base-tgt",
		TransferAgreementID: "agr-1",
		Actor:               srcMember,
	})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	return res.LabelIdentifier
}

func (f *fixture) prepare(t *testing.T, label string, boxes ...string) {
	t.Helper()
	_, err := f.svc.UpdateWhenPreparing(context.Background(), ports.UpdateWhenPreparingInput{
		LabelIdentifier: label,
		PreparedBoxes:   boxes,
		Actor:           srcMember,
	})
	if err != nil {
		t.Fatalf("UpdateWhenPreparing: %v", err)
	}
}

func (f *fixture) send(t *testing.T, label string) {
	t.Helper()
	if _, err := f.svc.SendShipment(context.Background(), label, srcMember); err != nil {
		t.Fatalf("SendShipment: %v", err)
	}
}

func (f *fixture) startReceiving(t *testing.T, label string) {
	t.Helper()
	if _, err := f.svc.StartReceivingShipment(context.Background(), label, tgtMember); err != nil {
		t.Fatalf("StartReceivingShipment: %v", err)
	}
}

func TestCreateShipment(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateShipment(context.Background(), ports.CreateShipmentInput{
		SourceBaseID:        "base-src",
		TargetBaseID:        "base-tgt",
		TransferAgreementID: "agr-1",
		Actor:               srcMember,
	})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}

	if !strings.HasPrefix(res.LabelIdentifier, "TR-") {
		t.Errorf("label = %q, want TR- prefix", res.LabelIdentifier)
	}
	if res.State != string(domain.StatePreparing) {
		t.Errorf("state = %s, want preparing", res.State)
	}
	if res.AlreadyExisted {
		t.Error("fresh creation reported AlreadyExisted")
	}

	stored := f.shipments.byLabel[res.LabelIdentifier]
	if stored == nil {
		t.Fatal("shipment not persisted")
	}
	if stored.StartedBy.ID != "u-src" || !stored.StartedOn.Equal(f.now) {
		t.Errorf("started pair = %+v / %v", stored.StartedBy, stored.StartedOn)
	}
	if f.sink.lastAction() != domain.ActionStarted {
		t.Errorf("audit action = %q, want started", f.sink.lastAction())
	}
}

func TestCreateShipment_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	input := ports.CreateShipmentInput{
		SourceBaseID:        "base-src",
		TargetBaseID:        "base-tgt",
		TransferAgreementID: "agr-1",
		IdempotencyKey:      "req-42",
		Actor:               srcMember,
	}

	first, err := f.svc.CreateShipment(context.Background(), input)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := f.svc.CreateShipment(context.Background(), input)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if !second.AlreadyExisted {
		t.Error("replay did not report AlreadyExisted")
	}
	if second.LabelIdentifier != first.LabelIdentifier {
		t.Errorf("replay returned %s, want %s", second.LabelIdentifier, first.LabelIdentifier)
	}
	if f.shipments.creates != 1 {
		t.Errorf("creates = %d, want 1", f.shipments.creates)
	}
}

func TestCreateShipment_Guards(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateShipment(context.Background(), ports.CreateShipmentInput{
		SourceBaseID:        "base-src",
		TargetBaseID:        "base-tgt",
		TransferAgreementID: "agr-1",
		Actor:               tgtMember,
	})
	if !errors.Is(err, domain.ErrUnauthorizedForBase) {
		t.Errorf("member of another base: got %v, want ErrUnauthorizedForBase", err)
	}

	// Admin may create for any base.
	if _, err := f.svc.CreateShipment(context.Background(), ports.CreateShipmentInput{
		SourceBaseID:        "base-src",
		TargetBaseID:        "base-tgt",
		TransferAgreementID: "agr-1",
		Actor:               admin,
	}); err != nil {
		t.Errorf("admin create: %v", err)
	}
}

func TestCreateShipment_InactiveAgreement(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) // before validFrom

	_, err := f.svc.CreateShipment(context.Background(), ports.CreateShipmentInput{
		SourceBaseID:        "base-src",
		TargetBaseID:        "base-tgt",
		TransferAgreementID: "agr-1",
		Actor:               srcMember,
	})
	if !errors.Is(err, domain.ErrAgreementNotActive) {
		t.Errorf("got %v, want ErrAgreementNotActive", err)
	}
}

func TestUpdateWhenPreparing_AddsAndSnapshotsBoxes(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)

	v, err := f.svc.UpdateWhenPreparing(context.Background(), ports.UpdateWhenPreparingInput{
		LabelIdentifier: label,
		PreparedBoxes:   []string{"BX-1", "BX-2"},
		Actor:           srcMember,
	})
	if err != nil {
		t.Fatalf("UpdateWhenPreparing: %v", err)
	}

	if len(v.Shipment.Details) != 2 {
		t.Fatalf("details = %d, want 2", len(v.Shipment.Details))
	}
	d := v.Shipment.Details[0]
	if d.ID == "" {
		t.Error("detail id not assigned")
	}
	if d.SourceProduct.Name != "Winter Jacket" || d.SourceQuantity != 10 || d.SourceLocation.ID != "loc-src" {
		t.Errorf("source snapshot = %+v", d)
	}
	for _, bl := range []string{"BX-1", "BX-2"} {
		if got := f.boxes.boxes[bl].State; got != domain.BoxMarkedForShipment {
			t.Errorf("box %s state = %s, want marked_for_shipment", bl, got)
		}
	}
	if f.boxes.boxes["BX-3"].State != domain.BoxInStock {
		t.Error("untouched box changed state")
	}
}

func TestUpdateWhenPreparing_Rejections(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1")

	ctx := context.Background()

	_, err := f.svc.UpdateWhenPreparing(ctx, ports.UpdateWhenPreparingInput{
		LabelIdentifier: label, PreparedBoxes: []string{"BX-1"}, Actor: srcMember,
	})
	if !errors.Is(err, domain.ErrBoxAlreadyAssigned) {
		t.Errorf("duplicate add: got %v, want ErrBoxAlreadyAssigned", err)
	}

	f.boxes.boxes["BX-3"].BaseID = "base-other"
	_, err = f.svc.UpdateWhenPreparing(ctx, ports.UpdateWhenPreparingInput{
		LabelIdentifier: label, PreparedBoxes: []string{"BX-3"}, Actor: srcMember,
	})
	if !errors.Is(err, domain.ErrBoxNotInStock) {
		t.Errorf("box at wrong base: got %v, want ErrBoxNotInStock", err)
	}

	_, err = f.svc.UpdateWhenPreparing(ctx, ports.UpdateWhenPreparingInput{
		LabelIdentifier: label, PreparedBoxes: []string{"BX-2"}, Actor: tgtMember,
	})
	if !errors.Is(err, domain.ErrUnauthorizedForBase) {
		t.Errorf("target member editing contents: got %v, want ErrUnauthorizedForBase", err)
	}
}

func TestUpdateWhenPreparing_RemoveRevertsBox(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1", "BX-2")

	v, err := f.svc.UpdateWhenPreparing(context.Background(), ports.UpdateWhenPreparingInput{
		LabelIdentifier: label,
		RemovedBoxes:    []string{"BX-2"},
		Actor:           srcMember,
	})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if f.boxes.boxes["BX-2"].State != domain.BoxInStock {
		t.Errorf("removed box state = %s, want in_stock", f.boxes.boxes["BX-2"].State)
	}
	if got := len(v.Shipment.ActiveDetails()); got != 1 {
		t.Errorf("active details = %d, want 1", got)
	}
	removed := v.Shipment.Details[1]
	if removed.RemovedOn == nil || removed.RemovedBy == nil {
		t.Error("removed marker pair not written")
	}
}

func TestSendShipment(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1", "BX-2")

	v, err := f.svc.SendShipment(context.Background(), label, srcMember)
	if err != nil {
		t.Fatalf("SendShipment: %v", err)
	}

	if v.Shipment.State != domain.StateSent {
		t.Errorf("state = %s, want sent", v.Shipment.State)
	}
	if v.Shipment.SentOn == nil || v.Shipment.SentBy == nil || v.Shipment.SentBy.ID != "u-src" {
		t.Errorf("sent pair = %v / %+v", v.Shipment.SentOn, v.Shipment.SentBy)
	}
	for _, bl := range []string{"BX-1", "BX-2"} {
		if got := f.boxes.boxes[bl].State; got != domain.BoxInTransit {
			t.Errorf("box %s state = %s, want in_transit", bl, got)
		}
	}
	if f.sink.lastAction() != domain.ActionSent {
		t.Errorf("audit action = %q, want sent", f.sink.lastAction())
	}
}

func TestSendShipment_RequiresBoxes(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)

	_, err := f.svc.SendShipment(context.Background(), label, srcMember)
	if !errors.Is(err, domain.ErrShipmentEmpty) {
		t.Fatalf("got %v, want ErrShipmentEmpty", err)
	}
	if got := f.shipments.byLabel[label].State; got != domain.StatePreparing {
		t.Errorf("state after rejected send = %s, want preparing", got)
	}

	// Also empty when every box was removed again.
	f.prepare(t, label, "BX-1")
	if _, err := f.svc.UpdateWhenPreparing(context.Background(), ports.UpdateWhenPreparingInput{
		LabelIdentifier: label, RemovedBoxes: []string{"BX-1"}, Actor: srcMember,
	}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := f.svc.SendShipment(context.Background(), label, srcMember); !errors.Is(err, domain.ErrShipmentEmpty) {
		t.Errorf("all-removed send: got %v, want ErrShipmentEmpty", err)
	}
}

func TestSendShipment_SourceBaseOnly(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1")

	if _, err := f.svc.SendShipment(context.Background(), label, tgtMember); !errors.Is(err, domain.ErrUnauthorizedForBase) {
		t.Errorf("target member sending: got %v, want ErrUnauthorizedForBase", err)
	}
}

func TestContentsFrozenAfterSend(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1")
	f.send(t, label)

	_, err := f.svc.UpdateWhenPreparing(context.Background(), ports.UpdateWhenPreparingInput{
		LabelIdentifier: label, PreparedBoxes: []string{"BX-2"}, Actor: srcMember,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("editing after send: got %v, want ErrInvalidTransition", err)
	}
}

func TestCancelShipment(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1")

	v, err := f.svc.CancelShipment(context.Background(), label, srcMember)
	if err != nil {
		t.Fatalf("CancelShipment: %v", err)
	}

	if v.Shipment.State != domain.StateCanceled {
		t.Errorf("state = %s, want canceled", v.Shipment.State)
	}
	if v.Shipment.CanceledOn == nil || v.Shipment.CanceledBy == nil {
		t.Error("canceled pair not written")
	}
	if f.boxes.boxes["BX-1"].State != domain.BoxInStock {
		t.Errorf("box state = %s, want in_stock", f.boxes.boxes["BX-1"].State)
	}
}

func TestCancelShipment_OnlyWhilePreparing(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1")
	f.send(t, label)

	if _, err := f.svc.CancelShipment(context.Background(), label, srcMember); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("cancel after send: got %v, want ErrInvalidTransition", err)
	}
}

func TestMarkShipmentAsLost(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1", "BX-2")
	f.send(t, label)

	v, err := f.svc.MarkShipmentAsLost(context.Background(), label, tgtMember)
	if err != nil {
		t.Fatalf("MarkShipmentAsLost: %v", err)
	}

	if v.Shipment.State != domain.StateLost {
		t.Errorf("state = %s, want lost", v.Shipment.State)
	}
	for _, d := range v.Shipment.Details {
		if d.LostOn == nil || d.LostBy == nil {
			t.Errorf("detail %s missing lost marker", d.Box.LabelIdentifier)
		}
	}
	for _, bl := range []string{"BX-1", "BX-2"} {
		if got := f.boxes.boxes[bl].State; got != domain.BoxNotDelivered {
			t.Errorf("box %s state = %s, want not_delivered", bl, got)
		}
	}

	// Lost is terminal: a second attempt must be rejected.
	if _, err := f.svc.MarkShipmentAsLost(context.Background(), label, tgtMember); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("second mark lost: got %v, want ErrInvalidTransition", err)
	}
}

func TestMarkShipmentAsLost_OnlyFromSent(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1")

	if _, err := f.svc.MarkShipmentAsLost(context.Background(), label, srcMember); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("mark lost while preparing: got %v, want ErrInvalidTransition", err)
	}
}

func TestStartReceivingShipment(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1")
	f.send(t, label)

	if _, err := f.svc.StartReceivingShipment(context.Background(), label, srcMember); !errors.Is(err, domain.ErrUnauthorizedForBase) {
		t.Fatalf("source member starting receipt: got %v, want ErrUnauthorizedForBase", err)
	}

	v, err := f.svc.StartReceivingShipment(context.Background(), label, tgtMember)
	if err != nil {
		t.Fatalf("StartReceivingShipment: %v", err)
	}
	if v.Shipment.State != domain.StateReceiving {
		t.Errorf("state = %s, want receiving", v.Shipment.State)
	}
	if f.boxes.boxes["BX-1"].State != domain.BoxReceiving {
		t.Errorf("box state = %s, want receiving", f.boxes.boxes["BX-1"].State)
	}
}

func TestUpdateWhenReceiving_PartialReconciliation(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1", "BX-2")
	f.send(t, label)
	f.startReceiving(t, label)

	shipment := f.shipments.byLabel[label]
	detailID := shipment.DetailByBoxLabel("BX-1").ID

	v, err := f.svc.UpdateWhenReceiving(context.Background(), ports.UpdateWhenReceivingInput{
		LabelIdentifier: label,
		Received: []ports.ReceivedDetailUpdate{{
			DetailID:         detailID,
			TargetLocationID: "loc-tgt",
		}},
		Actor: tgtMember,
	})
	if err != nil {
		t.Fatalf("UpdateWhenReceiving: %v", err)
	}

	// One box still unresolved: the shipment must stay receiving.
	if v.Shipment.State != domain.StateReceiving {
		t.Errorf("state = %s, want receiving", v.Shipment.State)
	}
	if v.Shipment.CompletedOn != nil {
		t.Error("completed pair written before full reconciliation")
	}

	b := f.boxes.boxes["BX-1"]
	if b.State != domain.BoxInStock || b.BaseID != "base-tgt" || b.Location.ID != "loc-tgt" {
		t.Errorf("received box = %+v, want in_stock at base-tgt/loc-tgt", b)
	}
	if f.boxes.boxes["BX-2"].State != domain.BoxReceiving {
		t.Error("unresolved box changed state")
	}
}

func TestUpdateWhenReceiving_CompletesWithLostBoxes(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1", "BX-2", "BX-3")
	f.send(t, label)
	f.startReceiving(t, label)

	shipment := f.shipments.byLabel[label]
	detailID := shipment.DetailByBoxLabel("BX-1").ID

	v, err := f.svc.UpdateWhenReceiving(context.Background(), ports.UpdateWhenReceivingInput{
		LabelIdentifier: label,
		Received: []ports.ReceivedDetailUpdate{{
			DetailID:         detailID,
			TargetLocationID: "loc-tgt",
		}},
		LostBoxes: []string{"BX-2", "BX-3"},
		Actor:     tgtMember,
	})
	if err != nil {
		t.Fatalf("UpdateWhenReceiving: %v", err)
	}

	if v.Shipment.State != domain.StateCompleted {
		t.Errorf("state = %s, want completed", v.Shipment.State)
	}
	if v.Shipment.CompletedOn == nil || v.Shipment.CompletedBy == nil || v.Shipment.CompletedBy.ID != "u-tgt" {
		t.Errorf("completed pair = %v / %+v", v.Shipment.CompletedOn, v.Shipment.CompletedBy)
	}
	for _, bl := range []string{"BX-2", "BX-3"} {
		if got := f.boxes.boxes[bl].State; got != domain.BoxNotDelivered {
			t.Errorf("lost box %s state = %s, want not_delivered", bl, got)
		}
	}
	if f.sink.lastAction() != domain.ActionCompleted {
		t.Errorf("audit action = %q, want completed", f.sink.lastAction())
	}
}

func TestUpdateWhenReceiving_AppliesOverrides(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1")
	f.send(t, label)
	f.startReceiving(t, label)

	detailID := f.shipments.byLabel[label].DetailByBoxLabel("BX-1").ID
	productID, sizeID, qty := "p2", "s2", 7

	v, err := f.svc.UpdateWhenReceiving(context.Background(), ports.UpdateWhenReceivingInput{
		LabelIdentifier: label,
		Received: []ports.ReceivedDetailUpdate{{
			DetailID:         detailID,
			TargetProductID:  &productID,
			TargetSizeID:     &sizeID,
			TargetQuantity:   &qty,
			TargetLocationID: "loc-tgt",
		}},
		Actor: tgtMember,
	})
	if err != nil {
		t.Fatalf("UpdateWhenReceiving: %v", err)
	}

	d := v.Shipment.DetailByID(detailID)
	if d.TargetProduct.Name != "Rain Coat" || d.TargetSize.Label != "L" || *d.TargetQuantity != 7 {
		t.Errorf("overrides not applied: %+v", d)
	}
	b := f.boxes.boxes["BX-1"]
	if b.Product.ID != "p2" || b.Size.ID != "s2" || b.Quantity != 7 {
		t.Errorf("box not updated from overrides: %+v", b)
	}
	// Source snapshot survives for the sender's record.
	if d.SourceProduct.ID != "p1" || d.SourceQuantity != 10 {
		t.Errorf("source snapshot mutated: %+v", d)
	}
}

func TestUpdateWhenReceiving_Rejections(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1")
	f.send(t, label)
	f.startReceiving(t, label)

	ctx := context.Background()
	detailID := f.shipments.byLabel[label].DetailByBoxLabel("BX-1").ID

	_, err := f.svc.UpdateWhenReceiving(ctx, ports.UpdateWhenReceivingInput{
		LabelIdentifier: label,
		Received:        []ports.ReceivedDetailUpdate{{DetailID: detailID, TargetLocationID: "loc-wrong"}},
		Actor:           tgtMember,
	})
	if !errors.Is(err, domain.ErrLocationNotInBase) {
		t.Errorf("foreign location: got %v, want ErrLocationNotInBase", err)
	}

	_, err = f.svc.UpdateWhenReceiving(ctx, ports.UpdateWhenReceivingInput{
		LabelIdentifier: label,
		Received:        []ports.ReceivedDetailUpdate{{DetailID: detailID, TargetLocationID: "loc-tgt"}},
		Actor:           srcMember,
	})
	if !errors.Is(err, domain.ErrUnauthorizedForBase) {
		t.Errorf("source member reconciling: got %v, want ErrUnauthorizedForBase", err)
	}

	// Resolve the box, completing the shipment, then try to touch it again.
	if _, err := f.svc.UpdateWhenReceiving(ctx, ports.UpdateWhenReceivingInput{
		LabelIdentifier: label,
		Received:        []ports.ReceivedDetailUpdate{{DetailID: detailID, TargetLocationID: "loc-tgt"}},
		Actor:           tgtMember,
	}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	_, err = f.svc.UpdateWhenReceiving(ctx, ports.UpdateWhenReceivingInput{
		LabelIdentifier: label,
		LostBoxes:       []string{"BX-1"},
		Actor:           tgtMember,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("reconciling a completed shipment: got %v, want ErrInvalidTransition", err)
	}
}

func TestGetShipment_Visibility(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.GetShipment(ctx, label, tgtMember); err != nil {
		t.Errorf("target member: %v", err)
	}
	if _, err := f.svc.GetShipment(ctx, label, admin); err != nil {
		t.Errorf("admin: %v", err)
	}
	if _, err := f.svc.GetShipment(ctx, label, outsider); !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Errorf("outsider: got %v, want ErrShipmentNotFound", err)
	}
}

func TestGetShipment_ProjectsContentsAndTimeline(t *testing.T) {
	f := newFixture(t)
	label := f.create(t)
	f.prepare(t, label, "BX-1", "BX-2")

	v, err := f.svc.GetShipment(context.Background(), label, srcMember)
	if err != nil {
		t.Fatalf("GetShipment: %v", err)
	}

	if len(v.Contents) != 1 {
		t.Fatalf("content groups = %d, want 1", len(v.Contents))
	}
	g := v.Contents[0]
	if g.TotalItems != 20 || g.TotalBoxes != 2 || g.TotalLosts != 0 {
		t.Errorf("group = %+v", g)
	}
	if len(v.Timeline) == 0 {
		t.Fatal("timeline empty")
	}
}

func TestListShipments_ScopesToMemberBase(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)

	res, err := f.svc.ListShipments(context.Background(), ports.ListShipmentsInput{Actor: srcMember})
	if err != nil {
		t.Fatalf("ListShipments: %v", err)
	}
	if res.Total != 2 || len(res.Items) != 2 {
		t.Errorf("member list: total=%d items=%d, want 2/2", res.Total, len(res.Items))
	}

	res, err = f.svc.ListShipments(context.Background(), ports.ListShipmentsInput{Actor: outsider})
	if err != nil {
		t.Fatalf("ListShipments: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("outsider list total = %d, want 0", res.Total)
	}
}
