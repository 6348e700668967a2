package camp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/medcamp/medcamp/internal/platform/metrics"
)

// Supported report export formats.
const (
	ReportFormatXLSX = "xlsx"
	ReportFormatPDF  = "pdf"
)

var (
	ErrOnlyOrganizersReport    = errors.New("Forbidden: Only organizers can export camp reports.")
	ErrUnsupportedReportFormat = errors.New("Unsupported report format. Must be 'xlsx' or 'pdf'.")
)

// Report is a rendered camp report ready to stream to the client.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportReport renders a camp's plan and patient roster as a spreadsheet or
// PDF for its owning organizer.
func (s *Service) ExportReport(ctx context.Context, organizerID, campID uuid.UUID, format string) (*Report, error) {
	if format != ReportFormatXLSX && format != ReportFormatPDF {
		return nil, ErrUnsupportedReportFormat
	}
	if err := s.requireOrganizer(ctx, organizerID, ErrOnlyOrganizersReport); err != nil {
		return nil, err
	}
	c, err := s.ownedCamp(ctx, organizerID, campID, ErrCampNotFound, ErrNotCampOrganizer)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report, err := s.renderReport(ctx, c, format)
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(start))
		return nil, err
	}
	metrics.ObserveReportExport(format, metrics.ResultSuccess, time.Since(start))

	s.logger.Info().
		Str("camp_id", campID.String()).
		Str("format", format).
		Int("bytes", len(report.Data)).
		Msg("camp report exported")
	return report, nil
}

func (s *Service) renderReport(ctx context.Context, c *Camp, format string) (*Report, error) {
	staff, err := s.repo.ListStaff(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	medicines, err := s.repo.ListMedicines(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	equipment, err := s.repo.ListEquipment(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	var roster []ReportPatient
	if s.patients != nil {
		roster, err = s.patients.RosterForCamp(ctx, c.ID)
		if err != nil {
			return nil, err
		}
	}

	var data []byte
	switch format {
	case ReportFormatXLSX:
		data, err = buildReportXLSX(c, staff, medicines, equipment, roster)
	case ReportFormatPDF:
		data, err = buildReportPDF(c, staff, medicines, equipment, roster)
	}
	if err != nil {
		return nil, err
	}

	return &Report{
		Filename:    fmt.Sprintf("camp_report_%s.%s", c.ID, format),
		ContentType: reportContentType(format),
		Data:        data,
	}, nil
}

func reportContentType(format string) string {
	if format == ReportFormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func buildReportXLSX(c *Camp, staff []*StaffMember, medicines []*Medicine, equipment []*Equipment, roster []ReportPatient) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "Summary"
	staffSheet := "Staff"
	medicineSheet := "Medicines"
	equipmentSheet := "Equipment"
	patientSheet := "Patients"
	f.SetSheetName("Sheet1", summarySheet)
	for _, sheet := range []string{staffSheet, medicineSheet, equipmentSheet, patientSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "Camp Report")
	_ = f.SetCellValue(summarySheet, "A3", "Name")
	_ = f.SetCellValue(summarySheet, "B3", c.Name)
	_ = f.SetCellValue(summarySheet, "A4", "Status")
	_ = f.SetCellValue(summarySheet, "B4", c.Status)
	_ = f.SetCellValue(summarySheet, "A5", "Start Date")
	_ = f.SetCellValue(summarySheet, "B5", c.StartDate.String())
	_ = f.SetCellValue(summarySheet, "A6", "End Date")
	_ = f.SetCellValue(summarySheet, "B6", c.EndDate.String())
	_ = f.SetCellValue(summarySheet, "A7", "Address")
	_ = f.SetCellValue(summarySheet, "B7", orEmpty(c.LocationAddress))
	_ = f.SetCellValue(summarySheet, "A8", "Latitude")
	_ = f.SetCellValue(summarySheet, "B8", c.LocationLatitude)
	_ = f.SetCellValue(summarySheet, "A9", "Longitude")
	_ = f.SetCellValue(summarySheet, "B9", c.LocationLongitude)
	_ = f.SetCellValue(summarySheet, "A10", "Target Patients")
	_ = f.SetCellValue(summarySheet, "B10", c.TargetPatients)
	_ = f.SetCellValue(summarySheet, "A11", "Registered Patients")
	_ = f.SetCellValue(summarySheet, "B11", len(roster))

	_ = f.SetCellValue(staffSheet, "A1", "Name")
	_ = f.SetCellValue(staffSheet, "B1", "Role")
	_ = f.SetCellValue(staffSheet, "C1", "Origin")
	_ = f.SetCellValue(staffSheet, "D1", "Contact")
	_ = f.SetCellValue(staffSheet, "E1", "Notes")
	for i, m := range staff {
		row := i + 2
		_ = f.SetCellValue(staffSheet, fmt.Sprintf("A%d", row), m.Name)
		_ = f.SetCellValue(staffSheet, fmt.Sprintf("B%d", row), orEmpty(m.Role))
		_ = f.SetCellValue(staffSheet, fmt.Sprintf("C%d", row), orEmpty(m.Origin))
		_ = f.SetCellValue(staffSheet, fmt.Sprintf("D%d", row), orEmpty(m.Contact))
		_ = f.SetCellValue(staffSheet, fmt.Sprintf("E%d", row), orEmpty(m.Notes))
	}

	_ = f.SetCellValue(medicineSheet, "A1", "Name")
	_ = f.SetCellValue(medicineSheet, "B1", "Unit")
	_ = f.SetCellValue(medicineSheet, "C1", "Quantity Per Patient")
	_ = f.SetCellValue(medicineSheet, "D1", "Notes")
	for i, m := range medicines {
		row := i + 2
		_ = f.SetCellValue(medicineSheet, fmt.Sprintf("A%d", row), m.Name)
		_ = f.SetCellValue(medicineSheet, fmt.Sprintf("B%d", row), orEmpty(m.Unit))
		if m.QuantityPerPatient != nil {
			_ = f.SetCellValue(medicineSheet, fmt.Sprintf("C%d", row), *m.QuantityPerPatient)
		}
		_ = f.SetCellValue(medicineSheet, fmt.Sprintf("D%d", row), orEmpty(m.Notes))
	}

	_ = f.SetCellValue(equipmentSheet, "A1", "Name")
	_ = f.SetCellValue(equipmentSheet, "B1", "Quantity")
	_ = f.SetCellValue(equipmentSheet, "C1", "Notes")
	for i, e := range equipment {
		row := i + 2
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("A%d", row), e.Name)
		if e.Quantity != nil {
			_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("B%d", row), *e.Quantity)
		}
		_ = f.SetCellValue(equipmentSheet, fmt.Sprintf("C%d", row), orEmpty(e.Notes))
	}

	_ = f.SetCellValue(patientSheet, "A1", "Name")
	_ = f.SetCellValue(patientSheet, "B1", "Email")
	_ = f.SetCellValue(patientSheet, "C1", "Phone")
	_ = f.SetCellValue(patientSheet, "D1", "Condition")
	_ = f.SetCellValue(patientSheet, "E1", "Location")
	_ = f.SetCellValue(patientSheet, "F1", "Notes")
	for i, p := range roster {
		row := i + 2
		_ = f.SetCellValue(patientSheet, fmt.Sprintf("A%d", row), p.Name)
		_ = f.SetCellValue(patientSheet, fmt.Sprintf("B%d", row), p.Email)
		_ = f.SetCellValue(patientSheet, fmt.Sprintf("C%d", row), orEmpty(p.PhoneNumber))
		_ = f.SetCellValue(patientSheet, fmt.Sprintf("D%d", row), orEmpty(p.DiseaseDetected))
		_ = f.SetCellValue(patientSheet, fmt.Sprintf("E%d", row), orEmpty(p.AreaLocation))
		_ = f.SetCellValue(patientSheet, fmt.Sprintf("F%d", row), orEmpty(p.OrganizerNotes))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildReportPDF(c *Camp, staff []*StaffMember, medicines []*Medicine, equipment []*Equipment, roster []ReportPatient) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Camp Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Name: %s", c.Name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", c.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Dates: %s to %s", c.StartDate, c.EndDate))
	pdf.Ln(5)
	if c.LocationAddress != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Address: %s", *c.LocationAddress))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Coordinates: %.6f, %.6f", c.LocationLatitude, c.LocationLongitude))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Target Patients: %d", c.TargetPatients))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Staff: %d, Medicines: %d, Equipment: %d", len(staff), len(medicines), len(equipment)))
	pdf.Ln(8)

	// Patient roster table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Name", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "Email", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Condition", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Location", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, p := range roster {
		pdf.CellFormat(45, 6, p.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, p.Email, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, orEmpty(p.DiseaseDetected), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, orEmpty(p.AreaLocation), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
