package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	charges "condo-billing/internal/charges/domain"
	"condo-billing/internal/observability/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// PreviewResult is a priced charge that has not been stored.
type PreviewResult struct {
	BuildingID string               `json:"building_id"`
	Currency   string               `json:"currency"`
	Result     *charges.Result      `json:"result"`
	Summary    charges.PayerSummary `json:"summary"`
}

// IssueCommand requests a new announcement for a building.
type IssueCommand struct {
	TenantID   string
	BuildingID string
	Title      string
	Request    charges.ChargeRequest
}

// AnnouncementDetail is an announcement with its records.
type AnnouncementDetail struct {
	Announcement *charges.Announcement      `json:"announcement"`
	Records      []charges.UnitChargeRecord `json:"records"`
	Summary      charges.PayerSummary       `json:"summary"`
}

// ChargeService handles charge preview and issuance use cases.
type ChargeService struct {
	units     UnitProvider
	repo      AnnouncementRepository
	publisher ChargePublisher
	settings  SettingsFunc
	clock     Clock
	ids       IDGenerator
	tenantID  string
	logger    logrus.FieldLogger
}

// Option configures a ChargeService.
type Option func(*ChargeService)

// WithSettings sets the per-building settings resolver.
func WithSettings(settings SettingsFunc) Option {
	return func(s *ChargeService) {
		if settings != nil {
			s.settings = settings
		}
	}
}

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(s *ChargeService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides announcement id generation.
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *ChargeService) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *ChargeService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewChargeService constructs the service. The publisher may be nil.
func NewChargeService(units UnitProvider, repo AnnouncementRepository, publisher ChargePublisher, tenantID string, opts ...Option) (*ChargeService, error) {
	if units == nil {
		return nil, errors.New("charge service: nil unit provider")
	}
	if repo == nil {
		return nil, errors.New("charge service: nil announcement repository")
	}
	s := &ChargeService{
		units:     units,
		repo:      repo,
		publisher: publisher,
		settings: func(string) BuildingSettings {
			return BuildingSettings{Tolerance: charges.DefaultTolerance}
		},
		clock:    SystemClock{},
		ids:      UUIDGenerator{},
		tenantID: tenantID,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Preview prices a request against the current units of a building.
func (s *ChargeService) Preview(ctx context.Context, buildingID string, req charges.ChargeRequest) (*PreviewResult, error) {
	if strings.TrimSpace(buildingID) == "" {
		return nil, charges.ErrEmptyBuildingID
	}
	settings := s.settings(buildingID)
	result, err := s.aggregate(ctx, buildingID, req, settings)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		BuildingID: buildingID,
		Currency:   settings.Currency,
		Result:     result,
		Summary:    charges.SummarizeByPayer(result.Records),
	}, nil
}

// Issue prices the request and stores the announcement, its records and ChargeIssued in one write.
func (s *ChargeService) Issue(ctx context.Context, cmd IssueCommand) (*AnnouncementDetail, error) {
	if strings.TrimSpace(cmd.BuildingID) == "" {
		return nil, charges.ErrEmptyBuildingID
	}
	settings := s.settings(cmd.BuildingID)
	result, err := s.aggregate(ctx, cmd.BuildingID, cmd.Request, settings)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	announcement, err := charges.NewAnnouncement(
		s.ids.NewID(),
		s.tenant(cmd.TenantID),
		cmd.BuildingID,
		cmd.Title,
		settings.Currency,
		cmd.Request,
		result,
		now,
	)
	if err != nil {
		return nil, err
	}
	summary := charges.SummarizeByPayer(result.Records)
	event := ChargeIssued{
		AnnouncementID: announcement.ID,
		TenantID:       announcement.TenantID,
		BuildingID:     announcement.BuildingID,
		Title:          announcement.Title,
		Kind:           announcement.Kind,
		TotalAmount:    announcement.TotalAmount,
		Currency:       announcement.Currency,
		UnitCount:      len(result.Records),
		ResidentUnits:  summary.ResidentUnits,
		Recurrence:     announcement.Recurrence,
		OccurredAt:     now.UTC(),
	}
	if err := s.repo.Create(ctx, announcement, result.Records, event); err != nil {
		return nil, err
	}

	metrics.ObserveIssued(string(announcement.Kind), announcement.Currency, announcement.TotalAmount)
	entry := s.logger.WithFields(logrus.Fields{
		"announcement_id": announcement.ID,
		"building_id":     announcement.BuildingID,
		"units":           len(result.Records),
		"total":           announcement.TotalAmount,
	})
	entry.Info("charge issued")

	if s.publisher != nil {
		if err := s.publisher.PublishChargeIssued(ctx, event); err != nil {
			entry.WithError(err).Warn("charge issued event not relayed")
		}
	}

	return &AnnouncementDetail{
		Announcement: announcement,
		Records:      result.Records,
		Summary:      summary,
	}, nil
}

// Get returns an announcement with its records.
func (s *ChargeService) Get(ctx context.Context, tenantID, id string) (*AnnouncementDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, charges.ErrEmptyAnnouncementID
	}
	announcement, err := s.repo.GetByID(ctx, s.tenant(tenantID), id)
	if err != nil {
		return nil, err
	}
	if announcement == nil {
		return nil, charges.ErrAnnouncementNotFound
	}
	records, err := s.repo.ListRecords(ctx, announcement.ID)
	if err != nil {
		return nil, err
	}
	return &AnnouncementDetail{
		Announcement: announcement,
		Records:      records,
		Summary:      charges.SummarizeByPayer(records),
	}, nil
}

// List returns the newest announcements of a building.
func (s *ChargeService) List(ctx context.Context, tenantID, buildingID string, limit int) ([]charges.Announcement, error) {
	if strings.TrimSpace(buildingID) == "" {
		return nil, charges.ErrEmptyBuildingID
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListByBuilding(ctx, s.tenant(tenantID), buildingID, limit)
}

// Void marks an announcement voided and stores ChargeVoided with it.
func (s *ChargeService) Void(ctx context.Context, tenantID, id, reason string) (*charges.Announcement, error) {
	if strings.TrimSpace(id) == "" {
		return nil, charges.ErrEmptyAnnouncementID
	}
	announcement, err := s.repo.GetByID(ctx, s.tenant(tenantID), id)
	if err != nil {
		return nil, err
	}
	if announcement == nil {
		return nil, charges.ErrAnnouncementNotFound
	}
	if announcement.Status == charges.AnnouncementStatusVoided {
		return nil, charges.ErrAnnouncementVoided
	}

	now := s.clock.Now()
	announcement.Void(strings.TrimSpace(reason), now)
	event := ChargeVoided{
		AnnouncementID: announcement.ID,
		TenantID:       announcement.TenantID,
		BuildingID:     announcement.BuildingID,
		Reason:         announcement.VoidReason,
		OccurredAt:     now.UTC(),
	}
	if err := s.repo.MarkVoided(ctx, announcement, event); err != nil {
		return nil, err
	}
	metrics.IncVoided()
	entry := s.logger.WithFields(logrus.Fields{
		"announcement_id": announcement.ID,
		"building_id":     announcement.BuildingID,
	})
	entry.Info("charge voided")

	if s.publisher != nil {
		if err := s.publisher.PublishChargeVoided(ctx, event); err != nil {
			entry.WithError(err).Warn("charge voided event not relayed")
		}
	}
	return announcement, nil
}

func (s *ChargeService) aggregate(ctx context.Context, buildingID string, req charges.ChargeRequest, settings BuildingSettings) (result *charges.Result, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveAggregate(string(req.Kind), aggregateResult(err), time.Since(start))
	}()

	units, err := s.units.ListUnits(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	result, err = charges.Aggregate(req, units, charges.WithTolerance(settings.Tolerance))
	if err != nil {
		if errs, ok := charges.AsErrorMap(err); ok {
			metrics.IncValidationErrors(errs.Fields())
			s.logger.WithFields(logrus.Fields{
				"building_id": buildingID,
				"fields":      errs.Fields(),
			}).Debug("charge request rejected")
		}
		return nil, err
	}
	return result, nil
}

func (s *ChargeService) tenant(tenantID string) string {
	if tenantID != "" {
		return tenantID
	}
	return s.tenantID
}

func aggregateResult(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	if _, ok := charges.AsErrorMap(err); ok {
		return metrics.ResultInvalid
	}
	return metrics.ResultError
}
