package interfaces

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	charges "condo-billing/internal/charges/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ChargeRequestDTO is the wire shape of a charge request. Engine rules are
// checked by the domain; the tags here only reject malformed payloads.
type ChargeRequestDTO struct {
	ChargeKind      string               `json:"charge_kind"`
	Category        string               `json:"category" validate:"max=64"`
	PayerPolicy     string               `json:"payer_policy" validate:"omitempty,oneof=owner resident"`
	TargetScope     string               `json:"target_scope"`
	SelectedUnitIDs []string             `json:"selected_unit_ids" validate:"omitempty,max=5000,dive,required"`
	Amount          *float64             `json:"amount"`
	CustomAmounts   map[string]float64   `json:"custom_amounts" validate:"omitempty,dive,keys,required,endkeys"`
	Formula         *charges.FormulaSpec `json:"formula"`
	Recurrence      *RecurrenceDTO       `json:"recurrence"`
}

// RecurrenceDTO is the wire shape of a recurrence.
type RecurrenceDTO struct {
	DayOfMonth int    `json:"day_of_month" validate:"min=1,max=31"`
	EndDate    string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// IssueRequestDTO is the body of an issue call.
type IssueRequestDTO struct {
	Title string `json:"title" validate:"required,max=200"`
	ChargeRequestDTO
}

// VoidRequestDTO is the body of a void call.
type VoidRequestDTO struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ToDomain converts the DTO into an engine request.
func (d ChargeRequestDTO) ToDomain() charges.ChargeRequest {
	req := charges.ChargeRequest{
		Kind:            charges.ChargeKind(strings.ToLower(strings.TrimSpace(d.ChargeKind))),
		Category:        strings.ToLower(strings.TrimSpace(d.Category)),
		PayerPolicy:     charges.PayerPolicy(strings.ToLower(strings.TrimSpace(d.PayerPolicy))),
		TargetScope:     charges.TargetScope(strings.ToLower(strings.TrimSpace(d.TargetScope))),
		SelectedUnitIDs: d.SelectedUnitIDs,
		Amount:          d.Amount,
		CustomAmounts:   d.CustomAmounts,
		Formula:         d.Formula,
	}
	if req.PayerPolicy == "" {
		req.PayerPolicy = charges.PayerPolicyOwner
	}
	if d.Recurrence != nil {
		recurrence := &charges.Recurrence{DayOfMonth: d.Recurrence.DayOfMonth}
		if d.Recurrence.EndDate != "" {
			if endDate, err := time.Parse("2006-01-02", d.Recurrence.EndDate); err == nil {
				recurrence.EndDate = &endDate
			}
		}
		req.Recurrence = recurrence
	}
	return req
}

// UnitInput is an inbound unit whose identifier may arrive under any of
// id, units_id or unit_number.
type UnitInput struct {
	ID            string  `json:"id" yaml:"id"`
	UnitsID       string  `json:"units_id" yaml:"units_id"`
	UnitNumber    string  `json:"unit_number" yaml:"unit_number"`
	Area          float64 `json:"area" yaml:"area"`
	ResidentCount float64 `json:"resident_count" yaml:"resident_count"`
	ParkingCount  float64 `json:"parking_count" yaml:"parking_count"`
	StorageArea   float64 `json:"storage_area" yaml:"storage_area"`
	OwnerType     string  `json:"owner_type" yaml:"owner_type"`
	TenantName    string  `json:"tenant_name" yaml:"tenant_name"`
	IsOccupied    bool    `json:"is_occupied" yaml:"is_occupied"`
}

// ErrMissingUnitID is returned when a unit carries none of the id aliases.
var ErrMissingUnitID = errors.New("charges interfaces: unit has no id")

// ToUnit resolves the canonical id and converts the input.
func (u UnitInput) ToUnit() (charges.Unit, error) {
	id := firstNonEmpty(u.ID, u.UnitsID, u.UnitNumber)
	if id == "" {
		return charges.Unit{}, ErrMissingUnitID
	}
	unitNumber := firstNonEmpty(u.UnitNumber, id)
	return charges.Unit{
		ID:            id,
		UnitNumber:    unitNumber,
		Area:          u.Area,
		ResidentCount: u.ResidentCount,
		ParkingCount:  u.ParkingCount,
		StorageArea:   u.StorageArea,
		OwnerType:     charges.OwnerType(strings.ToLower(strings.TrimSpace(u.OwnerType))),
		TenantName:    u.TenantName,
		IsOccupied:    u.IsOccupied,
	}, nil
}

// NormalizeUnits converts inputs, reporting the position of the first unit without an id.
func NormalizeUnits(inputs []UnitInput) ([]charges.Unit, error) {
	units := make([]charges.Unit, 0, len(inputs))
	for i, input := range inputs {
		unit, err := input.ToUnit()
		if err != nil {
			return nil, fmt.Errorf("unit %d: %w", i, err)
		}
		units = append(units, unit)
	}
	return units, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

// validationMessages validates payload and returns field messages keyed by json name.
func validationMessages(payload any) (map[string]string, error) {
	err := getValidator().Struct(payload)
	if err == nil {
		return nil, nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}
	messages := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		key := fieldKey(fieldErr.Namespace())
		if _, exists := messages[key]; exists {
			continue
		}
		messages[key] = validationMessage(fieldErr)
	}
	return messages, nil
}

// fieldKey drops the root struct and embedded DTO names from a namespace.
func fieldKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	kept := parts[:0]
	for i, part := range parts {
		if i == 0 || part == "ChargeRequestDTO" {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, ".")
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fieldErr.Param()
	case "min":
		return "must be at least " + fieldErr.Param()
	case "oneof":
		return "must be one of: " + fieldErr.Param()
	case "datetime":
		return "must be a date formatted " + fieldErr.Param()
	default:
		return "failed " + fieldErr.Tag() + " validation"
	}
}
