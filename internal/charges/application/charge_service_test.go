package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condo-billing/internal/charges/application"
	charges "condo-billing/internal/charges/domain"
	"condo-billing/internal/charges/infrastructure/memory"
	"condo-billing/internal/eventing"
	eventmemory "condo-billing/internal/eventing/infrastructure/memory"
)

const (
	tenantID   = "tenant-a"
	buildingID = "b-1"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

type sequenceIDs struct{ next int }

func (g *sequenceIDs) NewID() string {
	g.next++
	return fmt.Sprintf("ann-%d", g.next)
}

type recordingPublisher struct {
	issued []application.ChargeIssued
	voided []application.ChargeVoided
}

func (p *recordingPublisher) PublishChargeIssued(ctx context.Context, event application.ChargeIssued) error {
	p.issued = append(p.issued, event)
	return nil
}

func (p *recordingPublisher) PublishChargeVoided(ctx context.Context, event application.ChargeVoided) error {
	p.voided = append(p.voided, event)
	return nil
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) PublishChargeIssued(context.Context, application.ChargeIssued) error {
	p.calls++
	return errors.New("outbox down")
}

func (p *failingPublisher) PublishChargeVoided(context.Context, application.ChargeVoided) error {
	p.calls++
	return errors.New("outbox down")
}

type failingOutbox struct{}

func (failingOutbox) Insert(context.Context, eventing.Envelope) (string, error) {
	return "", errors.New("outbox down")
}

type fixture struct {
	service   *application.ChargeService
	repo      *memory.AnnouncementRepository
	publisher *recordingPublisher
}

func newFixture(t *testing.T, opts ...application.Option) fixture {
	t.Helper()
	return newFixtureWith(t, memory.NewAnnouncementRepository(), opts...)
}

func newFixtureWith(t *testing.T, repo *memory.AnnouncementRepository, opts ...application.Option) fixture {
	t.Helper()
	units := seededUnits()
	publisher := &recordingPublisher{}
	base := []application.Option{
		application.WithClock(&fixedClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}),
		application.WithIDGenerator(&sequenceIDs{}),
		application.WithSettings(func(string) application.BuildingSettings {
			return application.BuildingSettings{Tolerance: 1, Currency: "TWD"}
		}),
	}
	service, err := application.NewChargeService(units, repo, publisher, tenantID, append(base, opts...)...)
	require.NoError(t, err)
	return fixture{service: service, repo: repo, publisher: publisher}
}

func seededUnits() *memory.UnitRepository {
	units := memory.NewUnitRepository()
	units.Put(buildingID,
		charges.Unit{ID: "u1", UnitNumber: "101", IsOccupied: true, OwnerType: charges.OwnerTypeResident, ResidentCount: 3, Area: 30},
		charges.Unit{ID: "u2", UnitNumber: "102", IsOccupied: false, OwnerType: charges.OwnerTypeEmpty, Area: 25},
		charges.Unit{ID: "u3", UnitNumber: "201", IsOccupied: true, OwnerType: charges.OwnerTypeLandlord, TenantName: "Jane", ResidentCount: 2, Area: 40},
	)
	return units
}

func fixedRequest(amount float64) charges.ChargeRequest {
	return charges.ChargeRequest{
		Kind:        charges.ChargeKindFixed,
		PayerPolicy: charges.PayerPolicyResident,
		TargetScope: charges.TargetScopeAll,
		Amount:      &amount,
	}
}

func TestNewChargeService_RejectsNilDependencies(t *testing.T) {
	_, err := application.NewChargeService(nil, memory.NewAnnouncementRepository(), nil, tenantID)
	assert.Error(t, err)
	_, err = application.NewChargeService(memory.NewUnitRepository(), nil, nil, tenantID)
	assert.Error(t, err)
}

func TestPreview_DoesNotStore(t *testing.T) {
	f := newFixture(t)

	preview, err := f.service.Preview(context.Background(), buildingID, fixedRequest(500))
	require.NoError(t, err)
	assert.Equal(t, 1500.0, preview.Result.TotalAmount)
	assert.Equal(t, "TWD", preview.Currency)
	assert.Equal(t, 1, preview.Summary.ResidentUnits)
	assert.Equal(t, 2, preview.Summary.OwnerUnits)

	list, err := f.service.List(context.Background(), tenantID, buildingID, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.publisher.issued)
}

func TestIssue_StoresAndPublishes(t *testing.T) {
	f := newFixture(t)

	detail, err := f.service.Issue(context.Background(), application.IssueCommand{
		BuildingID: buildingID,
		Title:      "March management fee",
		Request:    fixedRequest(500),
	})
	require.NoError(t, err)
	assert.Equal(t, "ann-1", detail.Announcement.ID)
	assert.Equal(t, tenantID, detail.Announcement.TenantID)
	assert.Equal(t, charges.AnnouncementStatusIssued, detail.Announcement.Status)
	require.Len(t, detail.Records, 3)
	assert.Equal(t, charges.PayerResident, detail.Records[2].Payer)

	require.Len(t, f.publisher.issued, 1)
	event := f.publisher.issued[0]
	assert.Equal(t, "ann-1", event.AnnouncementID)
	assert.Equal(t, buildingID, event.BuildingID)
	assert.Equal(t, 3, event.UnitCount)
	assert.Equal(t, 1500.0, event.TotalAmount)

	stored, err := f.service.Get(context.Background(), tenantID, "ann-1")
	require.NoError(t, err)
	assert.Equal(t, detail.Records, stored.Records)
	assert.Equal(t, 1500.0, stored.Announcement.TotalAmount)
}

func TestIssue_InvalidRequestStoresNothing(t *testing.T) {
	f := newFixture(t)
	req := fixedRequest(0)

	_, err := f.service.Issue(context.Background(), application.IssueCommand{BuildingID: buildingID, Request: req})
	errs, ok := charges.AsErrorMap(err)
	require.True(t, ok)
	assert.Contains(t, errs, charges.FieldAmount)

	list, err := f.service.List(context.Background(), tenantID, buildingID, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.publisher.issued)
}

func TestIssue_NoTargetUnits(t *testing.T) {
	f := newFixture(t)
	req := fixedRequest(100)
	req.TargetScope = charges.TargetScopeCustom
	req.SelectedUnitIDs = []string{"not-in-building"}

	_, err := f.service.Issue(context.Background(), application.IssueCommand{BuildingID: buildingID, Request: req})
	assert.ErrorIs(t, err, charges.ErrNoTargetUnits)
}

func TestIssue_UsesBuildingTolerance(t *testing.T) {
	declared := 200.0
	req := charges.ChargeRequest{
		Kind:            charges.ChargeKindCustom,
		PayerPolicy:     charges.PayerPolicyOwner,
		TargetScope:     charges.TargetScopeCustom,
		SelectedUnitIDs: []string{"u1", "u3"},
		Amount:          &declared,
		CustomAmounts:   map[string]float64{"u1": 100, "u3": 100.5},
	}

	loose := newFixture(t)
	_, err := loose.service.Issue(context.Background(), application.IssueCommand{BuildingID: buildingID, Request: req})
	require.NoError(t, err)

	strict := newFixture(t, application.WithSettings(func(string) application.BuildingSettings {
		return application.BuildingSettings{Tolerance: 0.1, Currency: "TWD"}
	}))
	_, err = strict.service.Issue(context.Background(), application.IssueCommand{BuildingID: buildingID, Request: req})
	assert.ErrorIs(t, err, charges.ErrReconciliationMismatch)
}

func TestVoid_OnceOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Issue(context.Background(), application.IssueCommand{BuildingID: buildingID, Request: fixedRequest(10)})
	require.NoError(t, err)

	voided, err := f.service.Void(context.Background(), tenantID, "ann-1", "  duplicate  ")
	require.NoError(t, err)
	assert.Equal(t, charges.AnnouncementStatusVoided, voided.Status)
	assert.Equal(t, "duplicate", voided.VoidReason)
	require.Len(t, f.publisher.voided, 1)

	_, err = f.service.Void(context.Background(), tenantID, "ann-1", "again")
	assert.ErrorIs(t, err, charges.ErrAnnouncementVoided)
	assert.Len(t, f.publisher.voided, 1)
}

func TestGet_OtherTenantNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Issue(context.Background(), application.IssueCommand{BuildingID: buildingID, Request: fixedRequest(10)})
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), "tenant-b", "ann-1")
	assert.ErrorIs(t, err, charges.ErrAnnouncementNotFound)
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.service.Issue(context.Background(), application.IssueCommand{BuildingID: buildingID, Request: fixedRequest(10)})
		require.NoError(t, err)
	}

	list, err := f.service.List(context.Background(), tenantID, buildingID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ann-3", list[0].ID)
	assert.Equal(t, "ann-2", list[1].ID)
}

func TestIssue_RelayFailureKeepsSingleAnnouncement(t *testing.T) {
	outbox := eventmemory.NewOutboxStore()
	repo := memory.NewAnnouncementRepository(memory.WithOutbox(eventing.NewPublisher(outbox, nil, tenantID, nil)))
	publisher := &failingPublisher{}
	service, err := application.NewChargeService(seededUnits(), repo, publisher, tenantID,
		application.WithIDGenerator(&sequenceIDs{}))
	require.NoError(t, err)

	detail, err := service.Issue(context.Background(), application.IssueCommand{BuildingID: buildingID, Request: fixedRequest(500)})
	require.NoError(t, err)
	assert.Equal(t, "ann-1", detail.Announcement.ID)
	assert.Equal(t, 1, publisher.calls)

	list, err := service.List(context.Background(), tenantID, buildingID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	envelopes := outbox.Envelopes()
	require.Len(t, envelopes, 1)
	assert.Equal(t, application.AggregateAnnouncement, envelopes[0].AggregateType)
	assert.Equal(t, "ann-1", envelopes[0].AggregateID)
	assert.Equal(t, buildingID, envelopes[0].BuildingID)
	assert.Equal(t, tenantID, envelopes[0].TenantID)

	_, err = service.Void(context.Background(), tenantID, "ann-1", "typo")
	require.NoError(t, err)
	assert.Equal(t, 2, publisher.calls)
	assert.Len(t, outbox.Envelopes(), 2)
}

func TestIssue_OutboxFailureStoresNothing(t *testing.T) {
	repo := memory.NewAnnouncementRepository(memory.WithOutbox(eventing.NewPublisher(failingOutbox{}, nil, tenantID, nil)))
	f := newFixtureWith(t, repo)

	_, err := f.service.Issue(context.Background(), application.IssueCommand{BuildingID: buildingID, Request: fixedRequest(500)})
	assert.EqualError(t, err, "outbox down")

	list, err := f.service.List(context.Background(), tenantID, buildingID, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.publisher.issued)
}
