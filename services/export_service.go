package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	progressSheet = "Mentee Progress"
	weeksSheet    = "Weekly Completions"
)

// ExportService renders progress reports as XLSX workbooks
type ExportService struct {
	store database.Storage
	log   *zap.Logger
	now   func() time.Time
}

func NewExportService(store database.Storage, log *zap.Logger) *ExportService {
	return &ExportService{store: store, log: log, now: time.Now}
}

// ProgressFilename is the download name for a workbook generated at t
func ProgressFilename(t time.Time) string {
	return fmt.Sprintf("mentee_progress_%s.xlsx", t.Format("2006-01-02"))
}

// ProgressWorkbook builds a workbook with one row per mentee and a sheet of
// completions per week. Returns the encoded file and its download name.
func (s *ExportService) ProgressWorkbook(ctx context.Context, actor *model.User) ([]byte, string, error) {
	if !actor.Role.Can(model.ActionExportProgress) {
		return nil, "", forbidden("Not enough permissions")
	}

	mentees, err := s.store.ListUsers(ctx, database.UserFilter{Role: model.RoleMentee})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list mentees: %w", err)
	}

	names := newNameResolver(s.store)
	header := []string{"Mentee Number", "Name", "Email", "Mentor", "Current Week", "Completed Weeks", "Progress %"}
	for b := 1; b <= model.TotalBlocs; b++ {
		header = append(header, fmt.Sprintf("Bloc %d: %s", b, model.BlocName(b)))
	}

	rows := make([][]string, 0, len(mentees))
	perWeek := make([]int, model.TotalWeeks+1)
	for _, m := range mentees {
		mentor := ""
		if m.MentorID != nil {
			if mentor, err = names.name(ctx, *m.MentorID); err != nil {
				return nil, "", err
			}
		}
		perBloc := make([]int, model.TotalBlocs+1)
		for _, w := range m.CompletedWeeks {
			perBloc[model.BlocForWeek(int(w))]++
			if model.ValidWeek(int(w)) {
				perWeek[w]++
			}
		}
		row := []string{
			m.MenteeNumber,
			m.Name,
			m.Email,
			mentor,
			strconv.Itoa(m.CurrentWeek),
			strconv.Itoa(len(m.CompletedWeeks)),
			strconv.Itoa(m.ProgressPercent()),
		}
		for b := 1; b <= model.TotalBlocs; b++ {
			row = append(row, fmt.Sprintf("%d/%d", perBloc[b], model.WeeksPerBloc))
		}
		rows = append(rows, row)
	}

	weekRows := make([][]string, 0, model.TotalWeeks)
	for w := 1; w <= model.TotalWeeks; w++ {
		weekRows = append(weekRows, []string{
			strconv.Itoa(w),
			model.BlocName(model.BlocForWeek(w)),
			strconv.Itoa(perWeek[w]),
		})
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", progressSheet); err != nil {
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(weeksSheet); err != nil {
		return nil, "", fmt.Errorf("new sheet: %w", err)
	}
	if err := writeSheet(f, progressSheet, header, rows); err != nil {
		return nil, "", err
	}
	if err := writeSheet(f, weeksSheet, []string{"Week", "Bloc", "Completions"}, weekRows); err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	s.log.Info("progress exported", zap.Int("mentees", len(mentees)), zap.String("by", actor.ID))
	return buf.Bytes(), ProgressFilename(s.now()), nil
}

// writeSheet fills a sheet with a bold, filterable header and sizes the columns
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	for c, h := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(header))
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", last+"1", bold)
	}
	_ = f.AutoFilter(sheet, "A1:"+last+"1", nil)

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	for c, h := range header {
		width := len(h)
		for r := 0; r < len(rows) && r < 50; r++ {
			if l := len(rows[r][c]); l > width {
				width = l
			}
		}
		w := float64(width) * 1.1
		if w < 10 {
			w = 10
		}
		if w > 40 {
			w = 40
		}
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}
	return nil
}
