package eventing

import "context"

type contextKey string

const (
	contextKeyEnvelope contextKey = "eventing.envelope"
	contextKeyTenant   contextKey = "eventing.tenant_id"
	contextKeyCorr     contextKey = "eventing.correlation_id"
	contextKeyBuilding contextKey = "eventing.building_id"
)

// WithEnvelope attaches envelope metadata to context.
func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, contextKeyEnvelope, env)
}

// EnvelopeFromContext returns envelope metadata if available.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(contextKeyEnvelope).(Envelope)
	return env, ok
}

// WithTenantID sets the tenant stamped on published envelopes.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, contextKeyTenant, tenantID)
}

// WithCorrelationID ties published envelopes to the request that caused them.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, contextKeyCorr, correlationID)
}

// WithBuildingID sets the building stamped on published envelopes.
func WithBuildingID(ctx context.Context, buildingID string) context.Context {
	return context.WithValue(ctx, contextKeyBuilding, buildingID)
}

// MetaFromContext builds metadata from context with defaults.
func MetaFromContext(ctx context.Context, defaultTenantID string) Meta {
	meta := Meta{TenantID: defaultTenantID}
	if tenantID, ok := ctx.Value(contextKeyTenant).(string); ok && tenantID != "" {
		meta.TenantID = tenantID
	}
	if buildingID, ok := ctx.Value(contextKeyBuilding).(string); ok {
		meta.BuildingID = buildingID
	}
	if corr, ok := ctx.Value(contextKeyCorr).(string); ok {
		meta.CorrelationID = corr
	}
	if env, ok := EnvelopeFromContext(ctx); ok && meta.CorrelationID == "" {
		meta.CorrelationID = env.CorrelationID
	}
	return meta
}
