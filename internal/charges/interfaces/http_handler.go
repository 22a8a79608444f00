package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"condo-billing/internal/audit"
	"condo-billing/internal/auth"
	"condo-billing/internal/charges/application"
	charges "condo-billing/internal/charges/domain"
	"condo-billing/internal/eventing"
	"condo-billing/internal/observability/metrics"
)

const (
	maxBodyBytes = 1 << 20

	resourceTypeAnnouncement = "charge_announcement"
)

// ChargeService is the application surface used by the HTTP handler.
type ChargeService interface {
	Preview(ctx context.Context, buildingID string, req charges.ChargeRequest) (*application.PreviewResult, error)
	Issue(ctx context.Context, cmd application.IssueCommand) (*application.AnnouncementDetail, error)
	Get(ctx context.Context, tenantID, id string) (*application.AnnouncementDetail, error)
	List(ctx context.Context, tenantID, buildingID string, limit int) ([]charges.Announcement, error)
	Void(ctx context.Context, tenantID, id, reason string) (*charges.Announcement, error)
}

// Handler serves the charge API.
type Handler struct {
	service       ChargeService
	buildings     auth.BuildingTenantChecker
	audit         audit.Logger
	defaultTenant string
	logger        logrus.FieldLogger
}

// NewHandler constructs a handler. buildings and auditor may be nil.
func NewHandler(service ChargeService, buildings auth.BuildingTenantChecker, auditor audit.Logger, defaultTenant string, logger logrus.FieldLogger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("charges handler: nil service")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		service:       service,
		buildings:     buildings,
		audit:         auditor,
		defaultTenant: defaultTenant,
		logger:        logger,
	}, nil
}

// Register mounts the charge routes on router.
func (h *Handler) Register(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/buildings/{buildingID}/charges/preview", h.preview).Methods(http.MethodPost)
	api.HandleFunc("/buildings/{buildingID}/charges", h.issue).Methods(http.MethodPost)
	api.HandleFunc("/buildings/{buildingID}/charges", h.list).Methods(http.MethodGet)
	api.HandleFunc("/charges/{id}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/charges/{id}/void", h.void).Methods(http.MethodPost)
	api.HandleFunc("/charges/{id}/export.{format:pdf|xlsx|csv}", h.export).Methods(http.MethodGet)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	buildingID := mux.Vars(r)["buildingID"]
	if !h.authorizeBuilding(w, r, buildingID) {
		return
	}
	var dto ChargeRequestDTO
	if !h.decode(w, r, &dto) {
		return
	}
	result, err := h.service.Preview(r.Context(), buildingID, dto.ToDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	buildingID := mux.Vars(r)["buildingID"]
	if !h.authorizeBuilding(w, r, buildingID) {
		return
	}
	var dto IssueRequestDTO
	if !h.decode(w, r, &dto) {
		return
	}
	ctx := h.eventContext(r)
	detail, err := h.service.Issue(ctx, application.IssueCommand{
		TenantID:   h.tenant(r),
		BuildingID: buildingID,
		Title:      dto.Title,
		Request:    dto.ChargeRequestDTO.ToDomain(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.recordAudit(r, auth.ActionIssueCharge, detail.Announcement, map[string]any{
		"title":        detail.Announcement.Title,
		"charge_kind":  detail.Announcement.Kind,
		"total_amount": detail.Announcement.TotalAmount,
		"units":        len(detail.Records),
	})
	writeJSON(w, http.StatusCreated, detail)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	buildingID := mux.Vars(r)["buildingID"]
	if !h.authorizeBuilding(w, r, buildingID) {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	announcements, err := h.service.List(r.Context(), h.tenant(r), buildingID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": announcements})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), h.tenant(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	var dto VoidRequestDTO
	if !h.decode(w, r, &dto) {
		return
	}
	announcement, err := h.service.Void(h.eventContext(r), h.tenant(r), mux.Vars(r)["id"], dto.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.recordAudit(r, auth.ActionVoidCharge, announcement, map[string]any{"reason": announcement.VoidReason})
	writeJSON(w, http.StatusOK, announcement)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	format := vars["format"]
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(format, result, time.Since(start))
	}()

	detail, err := h.service.Get(r.Context(), h.tenant(r), vars["id"])
	if err != nil {
		result = metrics.ResultError
		h.writeError(w, r, err)
		return
	}
	content, contentType, err := BuildExport(format, detail)
	if err != nil {
		result = metrics.ResultError
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="charge-`+detail.Announcement.ID+`.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	messages, err := validationMessages(target)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request data"))
		return false
	}
	if len(messages) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": messages})
		return false
	}
	return true
}

func (h *Handler) authorizeBuilding(w http.ResponseWriter, r *http.Request, buildingID string) bool {
	if h.buildings == nil {
		return true
	}
	if err := h.buildings.EnsureBuildingTenant(r.Context(), h.tenant(r), buildingID); err != nil {
		h.writeError(w, r, err)
		return false
	}
	return true
}

func (h *Handler) tenant(r *http.Request) string {
	if tenantID := auth.TenantIDFromContext(r.Context()); tenantID != "" {
		return tenantID
	}
	return h.defaultTenant
}

func (h *Handler) eventContext(r *http.Request) context.Context {
	ctx := eventing.WithTenantID(r.Context(), h.tenant(r))
	if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
		ctx = eventing.WithCorrelationID(ctx, requestID)
	}
	return ctx
}

func (h *Handler) recordAudit(r *http.Request, action auth.Action, announcement *charges.Announcement, metadata map[string]any) {
	if h.audit == nil || announcement == nil {
		return
	}
	entry := audit.FromRequest(r, string(action), resourceTypeAnnouncement, announcement.ID, announcement.BuildingID, metadata)
	if entry.TenantID == "" {
		entry.TenantID = announcement.TenantID
	}
	if err := h.audit.Log(r.Context(), entry); err != nil {
		h.logger.WithError(err).WithField("action", action).Warn("audit log failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errs, ok := charges.AsErrorMap(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs.Messages()})
		return
	}
	switch {
	case errors.Is(err, charges.ErrNoTargetUnits):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": map[string]string{charges.FieldTargetScope: err.Error()},
		})
	case errors.Is(err, charges.ErrAnnouncementNotFound), errors.Is(err, auth.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, auth.ErrTenantMismatch):
		writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
	case errors.Is(err, charges.ErrAnnouncementVoided):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, charges.ErrEmptyBuildingID), errors.Is(err, charges.ErrEmptyAnnouncementID), errors.Is(err, ErrUnsupportedFormat):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("charge request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
