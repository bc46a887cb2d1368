package service

import (
	"context"
	"fmt"
	"time"

	"github.com/buildhub/sitestock/internal/project/entity"
	"github.com/buildhub/sitestock/internal/project/repository"
	"github.com/google/uuid"
)

// ProjectService 工程项目业务逻辑
type ProjectService struct {
	repo *repository.ProjectRepository
}

func NewProjectService(repo *repository.ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo}
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Code        string     `json:"code" binding:"required"`
	Name        string     `json:"name" binding:"required"`
	Client      string     `json:"client"`
	SiteAddress string     `json:"site_address"`
	Manager     string     `json:"manager"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Notes       string     `json:"notes"`
}

func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest, userID string) (*entity.Project, error) {
	existing, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil && err != repository.ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("项目编码已存在: %s", req.Code)
	}

	project := &entity.Project{
		ID:          uuid.New().String(),
		Code:        req.Code,
		Name:        req.Name,
		Client:      req.Client,
		SiteAddress: req.SiteAddress,
		Manager:     req.Manager,
		Status:      entity.ProjectStatusActive,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Notes:       req.Notes,
		CreatedBy:   userID,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("创建项目失败: %w", err)
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProjectService) List(ctx context.Context, params repository.ProjectListParams) ([]entity.Project, int64, error) {
	return s.repo.List(ctx, params)
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Name        *string    `json:"name"`
	Client      *string    `json:"client"`
	SiteAddress *string    `json:"site_address"`
	Manager     *string    `json:"manager"`
	Status      *string    `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Notes       *string    `json:"notes"`
}

func (s *ProjectService) Update(ctx context.Context, id string, req UpdateProjectRequest) (*entity.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Client != nil {
		project.Client = *req.Client
	}
	if req.SiteAddress != nil {
		project.SiteAddress = *req.SiteAddress
	}
	if req.Manager != nil {
		project.Manager = *req.Manager
	}
	if req.Status != nil {
		if !entity.ValidProjectStatus(*req.Status) {
			return nil, fmt.Errorf("无效的项目状态: %s", *req.Status)
		}
		project.Status = *req.Status
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}
	if req.Notes != nil {
		project.Notes = *req.Notes
	}
	project.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("更新项目失败: %w", err)
	}
	return project, nil
}
