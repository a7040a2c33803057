package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dash5s/backend/config"
	"dash5s/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportAreaHistory 导出区域 N 周历史与最近评分为 Excel
	ExportAreaHistory(ctx context.Context, areaID uint) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    *config.AuditConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.AuditConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

const (
	sheetHistory = "History"
	sheetRecent  = "Recent"
)

var exportHeader = []string{"Week", "Year", "1S", "2S", "3S", "4S", "5S", "Overall", "Notes"}

// ═══════════════════════════════════════════════════════════
// ExportAreaHistory — 导出区域评分
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "History"：最近 history_weeks 周，由新到旧；缺失周分数列为 "-"
//   - Sheet "Recent"：最近 recent_limit 次评分，含录入时间
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportAreaHistory(ctx context.Context, areaID uint) (*bytes.Buffer, string, error) {
	area, err := s.repo.Area.GetByID(ctx, areaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrAreaNotFound
		}
		s.logger.Error("查询区域失败", zap.Uint("area_id", areaID), zap.Error(err))
		return nil, "", err
	}

	now := s.now().UTC()
	keys := HistoryKeys(now, s.cfg.HistoryWeeks)
	records, err := s.repo.Audit.ListByAreaYears(ctx, areaID, HistoryYears(keys))
	if err != nil {
		s.logger.Error("查询区域历史失败", zap.Uint("area_id", areaID), zap.Error(err))
		return nil, "", err
	}
	history := BuildHistory(now, s.cfg.HistoryWeeks, records)

	recent, err := s.repo.Audit.ListRecent(ctx, areaID, s.cfg.RecentLimit)
	if err != nil {
		s.logger.Error("查询最近评分失败", zap.Uint("area_id", areaID), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetHistory); err != nil {
		return nil, "", ErrExportGenerateFail
	}
	if _, err := f.NewSheet(sheetRecent); err != nil {
		return nil, "", ErrExportGenerateFail
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── History ──
	f.SetCellValue(sheetHistory, "A1", fmt.Sprintf("%s (%s)", area.Name, area.Code))
	writeHeader(f, sheetHistory, 2, exportHeader, headerStyle)
	for i, w := range history {
		row := 3 + i
		f.SetCellValue(sheetHistory, cell("A", row), w.Week)
		f.SetCellValue(sheetHistory, cell("B", row), w.Year)
		if w.Audit == nil {
			for c := 3; c <= 8; c++ {
				f.SetCellValue(sheetHistory, cell(colName(c-1), row), "-")
			}
			continue
		}
		writeScores(f, sheetHistory, row, w.Audit.Scores(), w.Score)
		f.SetCellValue(sheetHistory, cell("I", row), w.Audit.Notes)
	}

	// ── Recent ──
	writeHeader(f, sheetRecent, 1, append(append([]string(nil), exportHeader...), "Timestamp"), headerStyle)
	for i := range recent {
		a := &recent[i]
		row := 2 + i
		f.SetCellValue(sheetRecent, cell("A", row), a.WeekNumber)
		f.SetCellValue(sheetRecent, cell("B", row), a.Year)
		writeScores(f, sheetRecent, row, a.Scores(), a.OverallScore)
		f.SetCellValue(sheetRecent, cell("I", row), a.Notes)
		f.SetCellValue(sheetRecent, cell("J", row), formatTime(a.Timestamp))
	}

	f.SetColWidth(sheetHistory, "I", "I", 40)
	f.SetColWidth(sheetRecent, "I", "I", 40)
	f.SetColWidth(sheetRecent, "J", "J", 22)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("5s_%s_%s.xlsx", area.Code, now.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, row int, titles []string, style int) {
	for i, t := range titles {
		f.SetCellValue(sheet, cell(colName(i), row), t)
	}
	f.SetCellStyle(sheet, cell("A", row), cell(colName(len(titles)-1), row), style)
}

func writeScores(f *excelize.File, sheet string, row int, scores [5]float64, overall float64) {
	for i, v := range scores {
		f.SetCellValue(sheet, cell(colName(2+i), row), v)
	}
	f.SetCellValue(sheet, cell("H", row), overall)
}

// colName 0 起始列号转列名：0 → "A"
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
