package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dash5s/backend/config"
	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
	pkgerrors "dash5s/backend/pkg/errors"
	"dash5s/backend/pkg/metrics"
)

// ── 评分模块业务错误 ──

var (
	ErrAuditNotFound           = errors.New("评分记录不存在")
	ErrDuplicateAudit          = errors.New("该区域本周已有评分记录")
	ErrDuplicateResponse       = errors.New("该问题已作答")
	ErrQuestionNotInChecklist  = errors.New("问题不属于该评分记录的检查表")
	ErrWeekOutOfRange          = fmt.Errorf("%w: 周次必须在 1-53 之间", ErrInvalidInput)
	ErrYearOutOfRange          = fmt.Errorf("%w: 年份超出允许范围", ErrInvalidInput)
	ErrScoreOutOfRange         = fmt.Errorf("%w: 分值必须在 0-2 之间", ErrInvalidInput)
	ErrResponseScoreOutOfRange = fmt.Errorf("%w: 作答分值超出问题允许范围", ErrInvalidInput)
)

const (
	minScore = 0
	maxScore = 2
)

// DuplicateAuditError 重复评分，携带已存在记录以便客户端跳转
type DuplicateAuditError struct {
	AreaID  uint
	AuditID uint
	Week    int
	Year    int
}

func (e *DuplicateAuditError) Error() string {
	return fmt.Sprintf("%s (area=%d, week=%d, year=%d)", ErrDuplicateAudit, e.AreaID, e.Week, e.Year)
}

func (e *DuplicateAuditError) Unwrap() error { return ErrDuplicateAudit }

// AuditService 评分业务接口
type AuditService interface {
	// Create 创建周评分；overall_score 在此计算并固化
	Create(ctx context.Context, req *dto.CreateAuditRequest, caller Caller) (*dto.AuditResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.AuditResponse, error)
	// RecordResponses 批量记录逐题作答（全部成功或全部回滚），不影响 overall_score
	RecordResponses(ctx context.Context, auditID uint, req *dto.RecordResponsesRequest, caller Caller) ([]dto.AuditAnswerResponse, error)
	ListResponses(ctx context.Context, auditID uint) ([]dto.AuditAnswerResponse, error)
}

type auditService struct {
	cfg     *config.AuditConfig
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(cfg *config.AuditConfig, repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) AuditService {
	return &auditService{cfg: cfg, repo: repo, metrics: m, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *auditService) Create(ctx context.Context, req *dto.CreateAuditRequest, caller Caller) (*dto.AuditResponse, error) {
	// 1. 权限
	if !caller.canEdit() {
		return nil, ErrPermissionDenied
	}

	// 2. 参数
	scores, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	// 3. 区域
	if _, err := s.repo.Area.GetByID(ctx, req.AreaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAreaNotFound
		}
		s.logger.Error("查询区域失败", zap.Uint("area_id", req.AreaID), zap.Error(err))
		return nil, err
	}

	// 4. 同周唯一
	existing, err := s.repo.Audit.GetByKey(ctx, req.AreaID, req.WeekNumber, req.Year)
	if err == nil {
		return nil, &DuplicateAuditError{AreaID: req.AreaID, AuditID: existing.ID, Week: req.WeekNumber, Year: req.Year}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询评分记录失败", zap.Uint("area_id", req.AreaID), zap.Error(err))
		return nil, err
	}

	// 5. 检查表：显式指定优先，否则取区域绑定
	checklistID, err := s.resolveChecklist(ctx, req)
	if err != nil {
		return nil, err
	}

	audit := &model.AuditRecord{
		AreaID:       req.AreaID,
		ChecklistID:  checklistID,
		WeekNumber:   req.WeekNumber,
		Year:         req.Year,
		Score1S:      scores[0],
		Score2S:      scores[1],
		Score3S:      scores[2],
		Score4S:      scores[3],
		Score5S:      scores[4],
		OverallScore: OverallScore(scores),
		Notes:        req.Notes,
		EditorID:     caller.UserID,
		Timestamp:    s.now().UTC(),
	}

	if err := s.repo.Audit.Create(ctx, audit); err != nil {
		// 并发创建输给唯一约束的一方
		if pkgerrors.IsUniqueViolation(err) {
			dup := &DuplicateAuditError{AreaID: req.AreaID, Week: req.WeekNumber, Year: req.Year}
			if winner, gerr := s.repo.Audit.GetByKey(ctx, req.AreaID, req.WeekNumber, req.Year); gerr == nil {
				dup.AuditID = winner.ID
			}
			return nil, dup
		}
		s.logger.Error("创建评分记录失败", zap.Uint("area_id", req.AreaID), zap.Error(err))
		return nil, err
	}

	s.metrics.IncAuditsCreated()
	s.logger.Info("评分记录已创建",
		zap.Uint("audit_id", audit.ID),
		zap.Uint("area_id", audit.AreaID),
		zap.Int("week", audit.WeekNumber),
		zap.Int("year", audit.Year),
		zap.Float64("overall_score", audit.OverallScore),
		zap.Uint("editor_id", caller.UserID),
	)

	// 与 GetByID 返回同一形状（含 editor）
	return s.GetByID(ctx, audit.ID)
}

func (s *auditService) validate(req *dto.CreateAuditRequest) ([5]float64, error) {
	var scores [5]float64

	if req.WeekNumber < 1 || req.WeekNumber > 53 {
		return scores, ErrWeekOutOfRange
	}
	if req.Year < s.cfg.MinYear || req.Year > s.cfg.MaxYear {
		return scores, fmt.Errorf("%w (%d-%d)", ErrYearOutOfRange, s.cfg.MinYear, s.cfg.MaxYear)
	}

	for i, p := range []*float64{req.Score1S, req.Score2S, req.Score3S, req.Score4S, req.Score5S} {
		if p == nil {
			continue
		}
		if *p < minScore || *p > maxScore {
			return scores, fmt.Errorf("%w: %dS=%v", ErrScoreOutOfRange, i+1, *p)
		}
		scores[i] = *p
	}
	return scores, nil
}

func (s *auditService) resolveChecklist(ctx context.Context, req *dto.CreateAuditRequest) (*uint, error) {
	if req.ChecklistID != nil {
		if _, err := s.repo.Checklist.GetByID(ctx, *req.ChecklistID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrChecklistNotFound
			}
			s.logger.Error("查询检查表失败", zap.Uint("checklist_id", *req.ChecklistID), zap.Error(err))
			return nil, err
		}
		return req.ChecklistID, nil
	}

	a, err := s.repo.Assignment.GetByEntity(ctx, model.EntityTypeArea, req.AreaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询区域检查表绑定失败", zap.Uint("area_id", req.AreaID), zap.Error(err))
		return nil, err
	}
	id := a.ChecklistID
	return &id, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *auditService) GetByID(ctx context.Context, id uint) (*dto.AuditResponse, error) {
	audit, err := s.repo.Audit.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditNotFound
		}
		s.logger.Error("查询评分记录失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return toAuditResponse(audit), nil
}

// ────────────────────── RecordResponses ──────────────────────

func (s *auditService) RecordResponses(ctx context.Context, auditID uint, req *dto.RecordResponsesRequest, caller Caller) ([]dto.AuditAnswerResponse, error) {
	if !caller.canEdit() {
		return nil, ErrPermissionDenied
	}

	audit, err := s.repo.Audit.GetByID(ctx, auditID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditNotFound
		}
		s.logger.Error("查询评分记录失败", zap.Uint("id", auditID), zap.Error(err))
		return nil, err
	}

	// 限定检查表时，问题必须属于该检查表的某个分节
	var allowedSections map[uint]bool
	if audit.ChecklistID != nil {
		sections, err := s.repo.Section.ListByChecklist(ctx, *audit.ChecklistID)
		if err != nil {
			s.logger.Error("查询检查表分节失败", zap.Uint("checklist_id", *audit.ChecklistID), zap.Error(err))
			return nil, err
		}
		allowedSections = make(map[uint]bool, len(sections))
		for _, sec := range sections {
			allowedSections[sec.ID] = true
		}
	}

	// 先完成全部校验，再在事务中写入
	rows := make([]*model.AuditResponse, 0, len(req.Responses))
	questions := make(map[uint]*model.ChecklistQuestion, len(req.Responses))
	for _, item := range req.Responses {
		if _, dup := questions[item.QuestionID]; dup {
			return nil, ErrDuplicateResponse
		}

		q, err := s.repo.Question.GetByID(ctx, item.QuestionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrQuestionNotFound
			}
			s.logger.Error("查询问题失败", zap.Uint("question_id", item.QuestionID), zap.Error(err))
			return nil, err
		}
		if allowedSections != nil && !allowedSections[q.SectionID] {
			return nil, ErrQuestionNotInChecklist
		}

		score := 0
		if item.Score != nil {
			score = *item.Score
		}
		limit := q.MaxScore
		if limit <= 0 || limit > maxScore {
			limit = maxScore
		}
		if score < minScore || score > limit {
			return nil, fmt.Errorf("%w: question=%d score=%d", ErrResponseScoreOutOfRange, q.ID, score)
		}

		questions[q.ID] = q
		rows = append(rows, &model.AuditResponse{
			AuditID:    auditID,
			QuestionID: q.ID,
			Score:      score,
			Comment:    item.Comment,
		})
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		for _, row := range rows {
			if err := txRepo.AuditResponse.Create(ctx, row); err != nil {
				if pkgerrors.IsUniqueViolation(err) {
					return ErrDuplicateResponse
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateResponse) {
			s.logger.Error("记录作答失败", zap.Uint("audit_id", auditID), zap.Error(err))
		}
		return nil, err
	}

	result := make([]dto.AuditAnswerResponse, 0, len(rows))
	for _, row := range rows {
		row.Question = questions[row.QuestionID]
		result = append(result, toAnswerResponse(row))
	}
	return result, nil
}

// ────────────────────── ListResponses ──────────────────────

func (s *auditService) ListResponses(ctx context.Context, auditID uint) ([]dto.AuditAnswerResponse, error) {
	if _, err := s.repo.Audit.GetByID(ctx, auditID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditNotFound
		}
		s.logger.Error("查询评分记录失败", zap.Uint("id", auditID), zap.Error(err))
		return nil, err
	}

	rows, err := s.repo.AuditResponse.ListByAudit(ctx, auditID)
	if err != nil {
		s.logger.Error("查询作答失败", zap.Uint("audit_id", auditID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AuditAnswerResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toAnswerResponse(&rows[i]))
	}
	return result, nil
}

// ── 转换 ──

func toAuditResponse(a *model.AuditRecord) *dto.AuditResponse {
	if a == nil {
		return nil
	}
	return &dto.AuditResponse{
		ID:           a.ID,
		AreaID:       a.AreaID,
		ChecklistID:  a.ChecklistID,
		WeekNumber:   a.WeekNumber,
		Year:         a.Year,
		Score1S:      a.Score1S,
		Score2S:      a.Score2S,
		Score3S:      a.Score3S,
		Score4S:      a.Score4S,
		Score5S:      a.Score5S,
		OverallScore: a.OverallScore,
		Notes:        a.Notes,
		EditorID:     a.EditorID,
		Editor:       toUserBrief(a.Editor),
		Timestamp:    formatTime(a.Timestamp),
	}
}

func toAnswerResponse(r *model.AuditResponse) dto.AuditAnswerResponse {
	resp := dto.AuditAnswerResponse{
		ID:         r.ID,
		AuditID:    r.AuditID,
		QuestionID: r.QuestionID,
		Score:      r.Score,
		Comment:    r.Comment,
	}
	if r.Question != nil {
		resp.QuestionText = r.Question.QuestionText
	}
	return resp
}
