package interfaces

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"condo-billing/internal/charges/application"
	charges "condo-billing/internal/charges/domain"
)

func sampleDetail() *application.AnnouncementDetail {
	records := []charges.UnitChargeRecord{
		{UnitID: "u1", UnitNumber: "101", Amount: 1250.5, Payer: charges.PayerOwner},
		{UnitID: "u3", UnitNumber: "201", Amount: 980, Payer: charges.PayerResident},
	}
	return &application.AnnouncementDetail{
		Announcement: &charges.Announcement{
			ID:          "ann-1",
			BuildingID:  "b-1",
			Title:       "Elevator repair",
			Kind:        charges.ChargeKindFormula,
			PayerPolicy: charges.PayerPolicyResident,
			TargetScope: charges.TargetScopeAll,
			TotalAmount: 2230.5,
			Currency:    "TWD",
			Status:      charges.AnnouncementStatusIssued,
			Recurrence:  &charges.Recurrence{DayOfMonth: 5},
			CreatedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		Records: records,
		Summary: charges.SummarizeByPayer(records),
	}
}

func TestBuildExport_CSV(t *testing.T) {
	content, contentType, err := BuildExport(FormatCSV, sampleDetail())
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t,
		"announcement_id,unit_id,unit_number,payer,amount,currency\n"+
			"ann-1,u1,101,owner,1250.50,TWD\n"+
			"ann-1,u3,201,resident,980.00,TWD\n",
		string(content))
}

func TestBuildExport_PDF(t *testing.T) {
	content, contentType, err := BuildExport(FormatPDF, sampleDetail())
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestBuildExport_XLSX(t *testing.T) {
	content, _, err := BuildExport(FormatXLSX, sampleDetail())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	unit, err := f.GetCellValue("records", "B3")
	require.NoError(t, err)
	assert.Equal(t, "201", unit)
	title, err := f.GetCellValue("summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Elevator repair", title)
}

func TestBuildExport_UnsupportedFormat(t *testing.T) {
	_, _, err := BuildExport("docx", sampleDetail())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
