package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
	pkgerrors "dash5s/backend/pkg/errors"
)

// ── 检查表模块业务错误 ──

var (
	ErrChecklistNotFound     = errors.New("检查表不存在")
	ErrSectionNotFound       = errors.New("分节不存在")
	ErrQuestionNotFound      = errors.New("问题不存在")
	ErrAssignmentNotFound    = errors.New("检查表绑定不存在")
	ErrAssignmentConflict    = errors.New("该对象已绑定检查表")
	ErrChecklistInUse        = errors.New("检查表已被评分记录引用，无法删除")
	ErrSectionInUse          = errors.New("分节中的问题已有评分作答，无法删除")
	ErrSectionParentMismatch = fmt.Errorf("%w: 父分节不属于同一检查表", ErrInvalidInput)
	ErrInvalidEntityType     = fmt.Errorf("%w: entity_type 必须为 area 或 workplace_type", ErrInvalidInput)
	ErrInvalidQuestion       = fmt.Errorf("%w: max_score 必须为 1-2，weight 必须大于 0", ErrInvalidInput)
)

// ChecklistService 检查表与绑定业务接口
type ChecklistService interface {
	Create(ctx context.Context, req *dto.CreateChecklistRequest, caller Caller) (*dto.ChecklistResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.ChecklistResponse, error)
	List(ctx context.Context, req *dto.ChecklistListRequest) ([]dto.ChecklistResponse, error)
	Update(ctx context.Context, id uint, req *dto.UpdateChecklistRequest, caller Caller) (*dto.ChecklistResponse, error)
	Delete(ctx context.Context, id uint, caller Caller) error

	AddSection(ctx context.Context, checklistID uint, req *dto.CreateSectionRequest, caller Caller) (*dto.SectionResponse, error)
	DeleteSection(ctx context.Context, sectionID uint, caller Caller) error
	AddQuestion(ctx context.Context, sectionID uint, req *dto.CreateQuestionRequest, caller Caller) (*dto.QuestionResponse, error)
	// GetTree 按 order_num 构建完整分节树
	GetTree(ctx context.Context, checklistID uint) (*dto.ChecklistTreeResponse, error)

	// Assign 绑定检查表；唯一性由存储约束保证，冲突返回 ErrAssignmentConflict
	Assign(ctx context.Context, checklistID uint, req *dto.AssignChecklistRequest, caller Caller) (*dto.AssignmentResponse, error)
	Unassign(ctx context.Context, assignmentID uint, caller Caller) error
	ListAssignments(ctx context.Context, checklistID uint) ([]dto.AssignmentResponse, error)
	GetForEntity(ctx context.Context, entityType string, entityID uint) (*dto.AssignmentResponse, error)
}

type checklistService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewChecklistService 创建 ChecklistService 实例
func NewChecklistService(repo *repository.Repository, logger *zap.Logger) ChecklistService {
	return &checklistService{repo: repo, logger: logger}
}

// ────────────────────── Checklist CRUD ──────────────────────

func (s *checklistService) Create(ctx context.Context, req *dto.CreateChecklistRequest, caller Caller) (*dto.ChecklistResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}

	cl := &model.Checklist{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Module:      req.Module,
		Version:     req.Version,
		IsActive:    true,
	}
	if cl.Module == "" {
		cl.Module = "dashboard"
	}
	if cl.Version == "" {
		cl.Version = "1.0"
	}
	if caller.UserID != 0 {
		uid := caller.UserID
		cl.CreatedBy = &uid
	}

	if err := s.repo.Checklist.Create(ctx, cl); err != nil {
		s.logger.Error("创建检查表失败", zap.Error(err))
		return nil, err
	}
	return toChecklistResponse(cl), nil
}

func (s *checklistService) GetByID(ctx context.Context, id uint) (*dto.ChecklistResponse, error) {
	cl, err := s.getChecklist(ctx, id)
	if err != nil {
		return nil, err
	}
	return toChecklistResponse(cl), nil
}

func (s *checklistService) getChecklist(ctx context.Context, id uint) (*model.Checklist, error) {
	cl, err := s.repo.Checklist.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChecklistNotFound
		}
		s.logger.Error("查询检查表失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return cl, nil
}

func (s *checklistService) List(ctx context.Context, req *dto.ChecklistListRequest) ([]dto.ChecklistResponse, error) {
	lists, err := s.repo.Checklist.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出检查表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.ChecklistResponse, 0, len(lists))
	for i := range lists {
		result = append(result, *toChecklistResponse(&lists[i]))
	}
	return result, nil
}

func (s *checklistService) Update(ctx context.Context, id uint, req *dto.UpdateChecklistRequest, caller Caller) (*dto.ChecklistResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}

	cl, err := s.getChecklist(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		cl.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		cl.Description = *req.Description
	}
	if req.Module != nil {
		cl.Module = *req.Module
	}
	if req.Version != nil {
		cl.Version = *req.Version
	}
	if req.IsActive != nil {
		cl.IsActive = *req.IsActive
	}

	if err := s.repo.Checklist.Update(ctx, cl); err != nil {
		s.logger.Error("更新检查表失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return toChecklistResponse(cl), nil
}

// Delete 删除检查表及其分节、问题、绑定；被评分记录引用时拒绝
func (s *checklistService) Delete(ctx context.Context, id uint, caller Caller) error {
	if !caller.isAdmin() {
		return ErrPermissionDenied
	}

	if _, err := s.getChecklist(ctx, id); err != nil {
		return err
	}

	inUse, err := s.repo.Audit.CountByChecklist(ctx, id)
	if err != nil {
		s.logger.Error("统计检查表引用失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	if inUse > 0 {
		return ErrChecklistInUse
	}

	sections, err := s.repo.Section.ListByChecklist(ctx, id)
	if err != nil {
		s.logger.Error("查询检查表分节失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	sectionIDs := make([]uint, 0, len(sections))
	for _, sec := range sections {
		sectionIDs = append(sectionIDs, sec.ID)
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := s.deleteSections(ctx, txRepo, sectionIDs); err != nil {
			return err
		}
		if err := txRepo.Assignment.DeleteByChecklist(ctx, id); err != nil {
			return err
		}
		return txRepo.Checklist.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, ErrSectionInUse) || pkgerrors.IsForeignKeyViolation(err) {
			return ErrChecklistInUse
		}
		s.logger.Error("删除检查表失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

// deleteSections 删除分节及其问题（调用方负责事务）
// 任一问题已被作答引用时返回 ErrSectionInUse，作答只随评分记录删除
func (s *checklistService) deleteSections(ctx context.Context, txRepo *repository.Repository, sectionIDs []uint) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	questions, err := txRepo.Question.ListBySections(ctx, sectionIDs)
	if err != nil {
		return err
	}
	questionIDs := make([]uint, 0, len(questions))
	for _, q := range questions {
		questionIDs = append(questionIDs, q.ID)
	}
	answered, err := txRepo.AuditResponse.CountByQuestions(ctx, questionIDs)
	if err != nil {
		return err
	}
	if answered > 0 {
		return ErrSectionInUse
	}
	if err := txRepo.Question.DeleteBySections(ctx, sectionIDs); err != nil {
		return err
	}
	return txRepo.Section.DeleteByIDs(ctx, sectionIDs)
}

// ────────────────────── Sections / Questions ──────────────────────

func (s *checklistService) AddSection(ctx context.Context, checklistID uint, req *dto.CreateSectionRequest, caller Caller) (*dto.SectionResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}

	if _, err := s.getChecklist(ctx, checklistID); err != nil {
		return nil, err
	}

	if req.ParentSectionID != nil {
		parent, err := s.getSection(ctx, *req.ParentSectionID)
		if err != nil {
			return nil, err
		}
		if parent.ChecklistID != checklistID {
			return nil, ErrSectionParentMismatch
		}
	}

	sec := &model.ChecklistSection{
		ChecklistID:     checklistID,
		ParentSectionID: req.ParentSectionID,
		OrderNum:        req.OrderNum,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
	}
	if err := s.repo.Section.Create(ctx, sec); err != nil {
		s.logger.Error("创建分节失败", zap.Uint("checklist_id", checklistID), zap.Error(err))
		return nil, err
	}
	resp := toSectionResponse(sec)
	return &resp, nil
}

func (s *checklistService) getSection(ctx context.Context, id uint) (*model.ChecklistSection, error) {
	sec, err := s.repo.Section.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		s.logger.Error("查询分节失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return sec, nil
}

// DeleteSection 删除分节及整棵子树
func (s *checklistService) DeleteSection(ctx context.Context, sectionID uint, caller Caller) error {
	if !caller.isAdmin() {
		return ErrPermissionDenied
	}

	sec, err := s.getSection(ctx, sectionID)
	if err != nil {
		return err
	}

	all, err := s.repo.Section.ListByChecklist(ctx, sec.ChecklistID)
	if err != nil {
		s.logger.Error("查询检查表分节失败", zap.Uint("checklist_id", sec.ChecklistID), zap.Error(err))
		return err
	}
	subtree := newSectionArena(all).subtree(sectionID)

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return s.deleteSections(ctx, txRepo, subtree)
	})
	if err != nil {
		if errors.Is(err, ErrSectionInUse) || pkgerrors.IsForeignKeyViolation(err) {
			return ErrSectionInUse
		}
		s.logger.Error("删除分节失败", zap.Uint("id", sectionID), zap.Error(err))
		return err
	}
	return nil
}

func (s *checklistService) AddQuestion(ctx context.Context, sectionID uint, req *dto.CreateQuestionRequest, caller Caller) (*dto.QuestionResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}

	if _, err := s.getSection(ctx, sectionID); err != nil {
		return nil, err
	}

	q := &model.ChecklistQuestion{
		SectionID:    sectionID,
		OrderNum:     req.OrderNum,
		QuestionText: strings.TrimSpace(req.QuestionText),
		HelpText:     req.HelpText,
		Weight:       1,
		IsRequired:   true,
		MaxScore:     maxScore,
	}
	if req.Weight != nil {
		q.Weight = *req.Weight
	}
	if req.IsRequired != nil {
		q.IsRequired = *req.IsRequired
	}
	if req.MaxScore != nil {
		q.MaxScore = *req.MaxScore
	}
	if q.Weight <= 0 || q.MaxScore < 1 || q.MaxScore > maxScore {
		return nil, ErrInvalidQuestion
	}

	if err := s.repo.Question.Create(ctx, q); err != nil {
		s.logger.Error("创建问题失败", zap.Uint("section_id", sectionID), zap.Error(err))
		return nil, err
	}
	resp := toQuestionResponse(q)
	return &resp, nil
}

// ────────────────────── GetTree ──────────────────────

func (s *checklistService) GetTree(ctx context.Context, checklistID uint) (*dto.ChecklistTreeResponse, error) {
	cl, err := s.getChecklist(ctx, checklistID)
	if err != nil {
		return nil, err
	}

	sections, err := s.repo.Section.ListByChecklist(ctx, checklistID)
	if err != nil {
		s.logger.Error("查询检查表分节失败", zap.Uint("checklist_id", checklistID), zap.Error(err))
		return nil, err
	}

	ids := make([]uint, 0, len(sections))
	for _, sec := range sections {
		ids = append(ids, sec.ID)
	}
	questions, err := s.repo.Question.ListBySections(ctx, ids)
	if err != nil {
		s.logger.Error("查询检查表问题失败", zap.Uint("checklist_id", checklistID), zap.Error(err))
		return nil, err
	}

	return &dto.ChecklistTreeResponse{
		Checklist: *toChecklistResponse(cl),
		Sections:  newSectionArena(sections).build(questions),
	}, nil
}

// sectionArena 以 id 为索引的分节集合，父子关系只通过 parent id 表达
type sectionArena struct {
	byID     map[uint]*model.ChecklistSection
	children map[uint][]uint // parent id → child ids；0 表示根
}

func newSectionArena(sections []model.ChecklistSection) *sectionArena {
	a := &sectionArena{
		byID:     make(map[uint]*model.ChecklistSection, len(sections)),
		children: make(map[uint][]uint),
	}
	for i := range sections {
		a.byID[sections[i].ID] = &sections[i]
	}
	for i := range sections {
		parent := uint(0)
		if p := sections[i].ParentSectionID; p != nil {
			if _, ok := a.byID[*p]; ok {
				parent = *p
			}
		}
		a.children[parent] = append(a.children[parent], sections[i].ID)
	}
	for _, ids := range a.children {
		a.sortIDs(ids)
	}
	return a
}

func (a *sectionArena) sortIDs(ids []uint) {
	sort.SliceStable(ids, func(i, j int) bool {
		si, sj := a.byID[ids[i]], a.byID[ids[j]]
		if si.OrderNum != sj.OrderNum {
			return si.OrderNum < sj.OrderNum
		}
		return si.ID < sj.ID
	})
}

// subtree 返回 root 及其全部后代 id（广度优先）
func (a *sectionArena) subtree(root uint) []uint {
	if _, ok := a.byID[root]; !ok {
		return nil
	}
	result := []uint{root}
	seen := map[uint]bool{root: true}
	for i := 0; i < len(result); i++ {
		for _, child := range a.children[result[i]] {
			if !seen[child] {
				seen[child] = true
				result = append(result, child)
			}
		}
	}
	return result
}

// build 生成有序树；visited 防止脏数据中的环导致死循环
func (a *sectionArena) build(questions []model.ChecklistQuestion) []dto.SectionNode {
	bySection := make(map[uint][]dto.QuestionResponse)
	for i := range questions {
		q := &questions[i]
		bySection[q.SectionID] = append(bySection[q.SectionID], toQuestionResponse(q))
	}

	visited := make(map[uint]bool, len(a.byID))
	var walk func(parent uint) []dto.SectionNode
	walk = func(parent uint) []dto.SectionNode {
		ids := a.children[parent]
		nodes := make([]dto.SectionNode, 0, len(ids))
		for _, id := range ids {
			if visited[id] {
				continue
			}
			visited[id] = true
			qs := bySection[id]
			if qs == nil {
				qs = []dto.QuestionResponse{}
			}
			nodes = append(nodes, dto.SectionNode{
				SectionResponse: toSectionResponse(a.byID[id]),
				Questions:       qs,
				Children:        walk(id),
			})
		}
		return nodes
	}
	return walk(0)
}

// ────────────────────── Assignments ──────────────────────

func (s *checklistService) Assign(ctx context.Context, checklistID uint, req *dto.AssignChecklistRequest, caller Caller) (*dto.AssignmentResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}

	if _, err := s.getChecklist(ctx, checklistID); err != nil {
		return nil, err
	}

	switch req.EntityType {
	case model.EntityTypeArea:
		if _, err := s.repo.Area.GetByID(ctx, req.EntityID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAreaNotFound
			}
			s.logger.Error("查询区域失败", zap.Uint("area_id", req.EntityID), zap.Error(err))
			return nil, err
		}
	case model.EntityTypeWorkplaceType:
	default:
		return nil, ErrInvalidEntityType
	}

	a := &model.ChecklistAssignment{
		ChecklistID: checklistID,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
	}
	if err := s.repo.Assignment.Create(ctx, a); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrAssignmentConflict
		}
		s.logger.Error("绑定检查表失败",
			zap.Uint("checklist_id", checklistID),
			zap.String("entity_type", req.EntityType),
			zap.Uint("entity_id", req.EntityID),
			zap.Error(err))
		return nil, err
	}

	resp := toAssignmentResponse(a)
	return &resp, nil
}

func (s *checklistService) Unassign(ctx context.Context, assignmentID uint, caller Caller) error {
	if !caller.isAdmin() {
		return ErrPermissionDenied
	}
	if err := s.repo.Assignment.Delete(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("解除绑定失败", zap.Uint("id", assignmentID), zap.Error(err))
		return err
	}
	return nil
}

func (s *checklistService) ListAssignments(ctx context.Context, checklistID uint) ([]dto.AssignmentResponse, error) {
	if _, err := s.getChecklist(ctx, checklistID); err != nil {
		return nil, err
	}
	list, err := s.repo.Assignment.ListByChecklist(ctx, checklistID)
	if err != nil {
		s.logger.Error("列出绑定失败", zap.Uint("checklist_id", checklistID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, toAssignmentResponse(&list[i]))
	}
	return result, nil
}

func (s *checklistService) GetForEntity(ctx context.Context, entityType string, entityID uint) (*dto.AssignmentResponse, error) {
	if entityType != model.EntityTypeArea && entityType != model.EntityTypeWorkplaceType {
		return nil, ErrInvalidEntityType
	}
	a, err := s.repo.Assignment.GetByEntity(ctx, entityType, entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询绑定失败", zap.String("entity_type", entityType), zap.Uint("entity_id", entityID), zap.Error(err))
		return nil, err
	}
	resp := toAssignmentResponse(a)
	return &resp, nil
}

// ── 转换 ──

func toChecklistResponse(c *model.Checklist) *dto.ChecklistResponse {
	return &dto.ChecklistResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Module:      c.Module,
		Version:     c.Version,
		IsActive:    c.IsActive,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
}

func toSectionResponse(sec *model.ChecklistSection) dto.SectionResponse {
	return dto.SectionResponse{
		ID:              sec.ID,
		ChecklistID:     sec.ChecklistID,
		ParentSectionID: sec.ParentSectionID,
		OrderNum:        sec.OrderNum,
		Title:           sec.Title,
		Description:     sec.Description,
	}
}

func toQuestionResponse(q *model.ChecklistQuestion) dto.QuestionResponse {
	return dto.QuestionResponse{
		ID:           q.ID,
		SectionID:    q.SectionID,
		OrderNum:     q.OrderNum,
		QuestionText: q.QuestionText,
		HelpText:     q.HelpText,
		Weight:       q.Weight,
		IsRequired:   q.IsRequired,
		MaxScore:     q.MaxScore,
	}
}

func toAssignmentResponse(a *model.ChecklistAssignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:          a.ID,
		ChecklistID: a.ChecklistID,
		EntityType:  a.EntityType,
		EntityID:    a.EntityID,
	}
}
