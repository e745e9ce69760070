package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/export"
)

type dailySubstitutionReader interface {
	ListByDate(ctx context.Context, tenantID string, date time.Time) ([]models.SubstitutionRecord, error)
}

type nameLookup interface {
	NamesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]string, error)
}

type sheetRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

// ReportFile is a rendered document ready to be sent as an attachment.
type ReportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// SubstitutionReportService renders the daily substitution sheet handed to staff rooms.
type SubstitutionReportService struct {
	records  dailySubstitutionReader
	teachers nameLookup
	classes  nameLookup
	csv      sheetRenderer
	pdf      sheetRenderer
	title    string
	logger   *zap.Logger
}

// NewSubstitutionReportService constructs the report service. Nil renderers fall back to the defaults.
func NewSubstitutionReportService(records dailySubstitutionReader, teachers, classes nameLookup, title string, logger *zap.Logger, csv, pdf sheetRenderer) *SubstitutionReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if title == "" {
		title = "Substitution Sheet"
	}
	return &SubstitutionReportService{records: records, teachers: teachers, classes: classes, csv: csv, pdf: pdf, title: title, logger: logger}
}

var dailySheetColumns = []export.Column{
	{Key: "period", Title: "Period", Width: 0.6},
	{Key: "class", Title: "Class", Width: 1.2},
	{Key: "subject", Title: "Subject", Width: 1},
	{Key: "room", Title: "Room", Width: 0.7},
	{Key: "absent", Title: "Absent Teacher", Width: 1.6},
	{Key: "substitute", Title: "Substitute", Width: 1.6},
	{Key: "status", Title: "Status", Width: 1},
	{Key: "score", Title: "Score", Width: 0.6},
	{Key: "note", Title: "Note", Width: 1.7},
}

// DailySheet renders every substitution of the tenant on the date. Records replaced by a
// successor are listed too so the sheet shows the full history of the day.
func (s *SubstitutionReportService) DailySheet(ctx context.Context, query dto.ExportQuery, actor *models.JWTClaims) (*ReportFile, error) {
	if !actor.IsManager() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers may export substitution sheets")
	}
	date, err := parseDate(query.Date)
	if err != nil {
		return nil, err
	}
	format := strings.ToLower(query.Format)
	if format == "" {
		format = "pdf"
	}
	if format != "pdf" && format != "csv" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	tenantID := actor.TenantID
	records, err := retryRead(ctx, s.logger, "daily_substitutions", func() ([]models.SubstitutionRecord, error) {
		return s.records.ListByDate(ctx, tenantID, date)
	})
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to load substitutions")
	}

	teacherIDs := make([]string, 0, len(records)*2)
	classIDs := make([]string, 0, len(records))
	for _, r := range records {
		teacherIDs = append(teacherIDs, r.AbsentTeacherID)
		if sub := r.Substitute(); sub != "" {
			teacherIDs = append(teacherIDs, sub)
		}
		classIDs = append(classIDs, r.ClassID)
	}
	teacherNames := s.lookup(ctx, s.teachers, tenantID, teacherIDs)
	classNames := s.lookup(ctx, s.classes, tenantID, classIDs)

	sheet := export.Sheet{
		Title:    fmt.Sprintf("%s - %s", s.title, date.Format("Monday, 02 January 2006")),
		Subtitle: fmt.Sprintf("%d substitutions", len(records)),
		Columns:  dailySheetColumns,
		Rows:     make([]map[string]string, 0, len(records)),
	}
	for _, r := range records {
		row := map[string]string{
			"period":     strconv.Itoa(r.PeriodNumber),
			"class":      nameOr(classNames, r.ClassID),
			"subject":    r.SubjectID,
			"room":       r.Room,
			"absent":     nameOr(teacherNames, r.AbsentTeacherID),
			"substitute": "-",
			"status":     string(r.Status),
			"note":       r.Reason,
		}
		if sub := r.Substitute(); sub != "" {
			row["substitute"] = nameOr(teacherNames, sub)
		}
		if r.Score != nil {
			row["score"] = strconv.Itoa(*r.Score)
		}
		if r.CancelReason != nil && *r.CancelReason != "" {
			row["note"] = *r.CancelReason
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	renderer, contentType := s.pdf, "application/pdf"
	if format == "csv" {
		renderer, contentType = s.csv, "text/csv"
	}
	body, err := renderer.Render(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render substitution sheet")
	}
	return &ReportFile{
		Filename:    fmt.Sprintf("substitutions_%s.%s", date.Format("20060102"), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

// lookup resolves display names; a failure degrades to raw ids.
func (s *SubstitutionReportService) lookup(ctx context.Context, source nameLookup, tenantID string, ids []string) map[string]string {
	if source == nil || len(ids) == 0 {
		return nil
	}
	names, err := source.NamesByIDs(ctx, tenantID, uniqueStrings(ids))
	if err != nil {
		s.logger.Warn("name lookup failed, falling back to ids", zap.Error(err))
		return nil
	}
	return names
}

func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
