package dto

// ── 区域模块 DTO ──

// CreateAreaRequest 创建区域请求
type CreateAreaRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=100"`
	Code        string `json:"code"        binding:"required,min=1,max=20"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	ManagerID   *uint  `json:"manager_id"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateAreaRequest 更新区域请求（仅更新非空字段）
type UpdateAreaRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=100"`
	Code         *string `json:"code"          binding:"omitempty,min=1,max=20"`
	Description  *string `json:"description"   binding:"omitempty,max=2000"`
	ManagerID    *uint   `json:"manager_id"`
	ClearManager bool    `json:"clear_manager"`
	IsActive     *bool   `json:"is_active"`
}

// AreaListRequest 区域列表查询参数
type AreaListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// AreaResponse 区域信息响应（含滚动得分）
type AreaResponse struct {
	ID           uint           `json:"id"`
	Name         string         `json:"name"`
	Code         string         `json:"code"`
	Description  string         `json:"description,omitempty"`
	Manager      *UserBrief     `json:"manager,omitempty"`
	IsActive     bool           `json:"is_active"`
	CurrentScore float64        `json:"current_score"`
	LastAudit    *AuditResponse `json:"last_audit,omitempty"`
	CreatedAt    string         `json:"created_at"`
}

// HistoryEntry 历史周条目；无记录时 Audit 为 nil、Score 为 0
type HistoryEntry struct {
	Week  int            `json:"week"`
	Year  int            `json:"year"`
	Audit *AuditResponse `json:"audit"`
	Score float64        `json:"score"`
}

// AreaDetailResponse 区域详情：当前得分 + N 周历史 + 最近评分
type AreaDetailResponse struct {
	Area         AreaResponse    `json:"area"`
	History      []HistoryEntry  `json:"history"`
	RecentAudits []AuditResponse `json:"recent_audits"`
}

// DashboardResponse 仪表盘汇总
type DashboardResponse struct {
	Areas          []AreaResponse `json:"areas"`
	TotalAreas     int64          `json:"total_areas"`
	ActiveAreas    int64          `json:"active_areas"`
	AuditsThisWeek int64          `json:"audits_this_week"`
	CurrentWeek    int            `json:"current_week"`
	CurrentYear    int            `json:"current_year"`
}

// ── 图表 ──

// ScoreSeriesResponse 得分折线数据（由旧到新）
type ScoreSeriesResponse struct {
	Weeks  []string  `json:"weeks"`
	Scores []float64 `json:"scores"`
	S1     []float64 `json:"s1"`
	S2     []float64 `json:"s2"`
	S3     []float64 `json:"s3"`
	S4     []float64 `json:"s4"`
	S5     []float64 `json:"s5"`
}

// RadarDataset 雷达图数据集
type RadarDataset struct {
	Label                     string    `json:"label"`
	Data                      []float64 `json:"data"`
	BackgroundColor           string    `json:"backgroundColor"`
	BorderColor               string    `json:"borderColor"`
	PointBackgroundColor      string    `json:"pointBackgroundColor"`
	PointBorderColor          string    `json:"pointBorderColor"`
	PointHoverBackgroundColor string    `json:"pointHoverBackgroundColor"`
	PointHoverBorderColor     string    `json:"pointHoverBorderColor"`
}

// RadarResponse 五维雷达图数据
type RadarResponse struct {
	Labels   []string       `json:"labels"`
	Datasets []RadarDataset `json:"datasets"`
}
