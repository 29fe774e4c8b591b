package service

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"facegate/internal/model"
)

// ReportEntry is one shift row in an operator report.
type ReportEntry struct {
	Date          string   `json:"date"`
	Shift         string   `json:"shift"`
	LoginTime     string   `json:"login_time"`
	LogoutTime    *string  `json:"logout_time"`
	DurationHours *float64 `json:"duration_hours"`
}

// OperatorReport summarizes an operator's shift history.
type OperatorReport struct {
	OperatorID      string        `json:"operator_id"`
	OperatorName    string        `json:"operator_name"`
	MachineNo       string        `json:"machine_no"`
	Shift           *string       `json:"shift"`
	TotalLogins     int           `json:"total_logins"`
	TotalHours      float64       `json:"total_hours"`
	AverageDuration float64       `json:"average_duration"`
	Entries         []ReportEntry `json:"entries"`
}

// ReportService 报表服务：按操作员汇总班次时长。
type ReportService struct {
	db        *gorm.DB
	uploadDir string
}

// NewReportService creates a new report service. Exported files are written
// under uploadDir next to the face images.
func NewReportService(db *gorm.DB, uploadDir string) *ReportService {
	return &ReportService{db: db, uploadDir: uploadDir}
}

// GetOperatorReport builds the shift report for one operator.
func (s *ReportService) GetOperatorReport(ctx context.Context, operatorID string) (*OperatorReport, error) {
	var op model.Operator
	if err := s.db.WithContext(ctx).Where("operator_id = ?", operatorID).First(&op).Error; err != nil {
		return nil, ErrOperatorNotFound
	}

	var logs []model.LoginLog
	if err := s.db.WithContext(ctx).
		Where("operator_id = ? AND deleted = ?", operatorID, false).
		Order("login_time DESC").
		Find(&logs).Error; err != nil {
		return nil, err
	}

	report := &OperatorReport{
		OperatorID:   op.OperatorID,
		OperatorName: op.Name,
		MachineNo:    op.MachineNo,
		Shift:        op.Shift,
		TotalLogins:  len(logs),
		Entries:      []ReportEntry{},
	}

	closed := 0
	for _, l := range logs {
		entry := ReportEntry{
			Date:      l.Date,
			Shift:     l.Shift,
			LoginTime: l.LoginTime.Format("15:04:05"),
		}
		if l.LogoutTime != nil {
			logoutStr := l.LogoutTime.Format("15:04:05")
			entry.LogoutTime = &logoutStr
			hours := round2(l.LogoutTime.Sub(l.LoginTime).Hours())
			entry.DurationHours = &hours
			report.TotalHours += hours
			closed++
		}
		report.Entries = append(report.Entries, entry)
	}

	report.TotalHours = round2(report.TotalHours)
	if closed > 0 {
		report.AverageDuration = round2(report.TotalHours / float64(closed))
	}
	return report, nil
}

// ExportXLSX renders the operator report as an Excel workbook and returns
// the file path for download.
func (s *ReportService) ExportXLSX(ctx context.Context, operatorID string) (string, error) {
	report, err := s.GetOperatorReport(ctx, operatorID)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Report"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Performance Report - %s", report.OperatorName))
	f.SetCellValue(sheet, "A2", "Operator ID")
	f.SetCellValue(sheet, "B2", report.OperatorID)
	f.SetCellValue(sheet, "A3", "Machine No")
	f.SetCellValue(sheet, "B3", report.MachineNo)
	f.SetCellValue(sheet, "A4", "Total Logins")
	f.SetCellValue(sheet, "B4", report.TotalLogins)
	f.SetCellValue(sheet, "A5", "Generated")
	f.SetCellValue(sheet, "B5", time.Now().Format("2006-01-02 15:04:05"))

	headers := []string{"Date", "Shift", "Login Time", "Logout Time", "Duration (hours)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 7)
		f.SetCellValue(sheet, cell, h)
	}

	row := 8
	for _, e := range report.Entries {
		logout := "N/A"
		if e.LogoutTime != nil {
			logout = *e.LogoutTime
		}
		duration := "N/A"
		if e.DurationHours != nil {
			duration = fmt.Sprintf("%.2f", *e.DurationHours)
		}
		values := []interface{}{e.Date, e.Shift, e.LoginTime, logout, duration}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	totalCell, _ := excelize.CoordinatesToCellName(4, row)
	valueCell, _ := excelize.CoordinatesToCellName(5, row)
	f.SetCellValue(sheet, totalCell, "Total Hours:")
	f.SetCellValue(sheet, valueCell, fmt.Sprintf("%.2f", report.TotalHours))

	filename := fmt.Sprintf("report_%s_%s.xlsx", operatorID, uuid.NewString()[:8])
	path := filepath.Join(s.uploadDir, filename)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
