package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
)

const minFeedbackLength = 10

// ── 反馈模块业务错误 ──

var (
	ErrFeedbackNotFound      = errors.New("反馈不存在")
	ErrFeedbackTooShort      = fmt.Errorf("%w: 反馈内容不能少于 %d 个字符", ErrInvalidInput, minFeedbackLength)
	ErrInvalidFeedbackStatus = fmt.Errorf("%w: 无效的反馈状态", ErrInvalidInput)
)

// FeedbackService 用户反馈业务接口
type FeedbackService interface {
	Send(ctx context.Context, req *dto.SendFeedbackRequest, caller Caller) (*dto.FeedbackResponse, error)
	ListMine(ctx context.Context, caller Caller) ([]dto.FeedbackResponse, error)
	ListAll(ctx context.Context, req *dto.FeedbackListRequest, caller Caller) ([]dto.FeedbackResponse, int64, error)
	UpdateStatus(ctx context.Context, id uint, req *dto.UpdateFeedbackStatusRequest, caller Caller) (*dto.FeedbackResponse, error)
}

type feedbackService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFeedbackService 创建 FeedbackService 实例
func NewFeedbackService(repo *repository.Repository, logger *zap.Logger) FeedbackService {
	return &feedbackService{repo: repo, logger: logger}
}

func (s *feedbackService) Send(ctx context.Context, req *dto.SendFeedbackRequest, caller Caller) (*dto.FeedbackResponse, error) {
	text := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(text) < minFeedbackLength {
		return nil, ErrFeedbackTooShort
	}

	msg := &model.FeedbackMessage{
		UserID:  caller.UserID,
		Message: text,
		Status:  model.FeedbackStatusNew,
	}
	if err := s.repo.Feedback.Create(ctx, msg); err != nil {
		s.logger.Error("保存反馈失败", zap.Uint("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	return toFeedbackResponse(msg), nil
}

func (s *feedbackService) ListMine(ctx context.Context, caller Caller) ([]dto.FeedbackResponse, error) {
	list, err := s.repo.Feedback.ListByUser(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("查询反馈失败", zap.Uint("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.FeedbackResponse, 0, len(list))
	for i := range list {
		result = append(result, *toFeedbackResponse(&list[i]))
	}
	return result, nil
}

func (s *feedbackService) ListAll(ctx context.Context, req *dto.FeedbackListRequest, caller Caller) ([]dto.FeedbackResponse, int64, error) {
	if !caller.isAdmin() {
		return nil, 0, ErrPermissionDenied
	}
	if req.Status != "" && !validFeedbackStatus(req.Status) {
		return nil, 0, ErrInvalidFeedbackStatus
	}

	list, total, err := s.repo.Feedback.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出反馈失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.FeedbackResponse, 0, len(list))
	for i := range list {
		result = append(result, *toFeedbackResponse(&list[i]))
	}
	return result, total, nil
}

func (s *feedbackService) UpdateStatus(ctx context.Context, id uint, req *dto.UpdateFeedbackStatusRequest, caller Caller) (*dto.FeedbackResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}
	if !validFeedbackStatus(req.Status) {
		return nil, ErrInvalidFeedbackStatus
	}

	msg, err := s.repo.Feedback.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeedbackNotFound
		}
		s.logger.Error("查询反馈失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	msg.Status = req.Status
	if req.AdminComment != "" {
		msg.AdminComment = req.AdminComment
	}
	if err := s.repo.Feedback.Update(ctx, msg); err != nil {
		s.logger.Error("更新反馈失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return toFeedbackResponse(msg), nil
}

func validFeedbackStatus(status string) bool {
	switch status {
	case model.FeedbackStatusNew, model.FeedbackStatusRead,
		model.FeedbackStatusInProgress, model.FeedbackStatusClosed:
		return true
	}
	return false
}

func toFeedbackResponse(m *model.FeedbackMessage) *dto.FeedbackResponse {
	return &dto.FeedbackResponse{
		ID:           m.ID,
		UserID:       m.UserID,
		User:         toUserBrief(m.User),
		Message:      m.Message,
		Status:       m.Status,
		AdminComment: m.AdminComment,
		CreatedAt:    formatTime(m.CreatedAt),
		UpdatedAt:    formatTime(m.UpdatedAt),
	}
}
