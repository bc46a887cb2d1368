package entity

import "time"

// ProjectStatus 工程项目状态
const (
	ProjectStatusActive    = "active"    // 进行中
	ProjectStatusOnHold    = "on_hold"   // 暂停
	ProjectStatusCompleted = "completed" // 已完工
	ProjectStatusCancelled = "cancelled" // 已取消
)

// Project 工程项目
type Project struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	Code        string     `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name        string     `json:"name" gorm:"size:200;not null"`
	Client      string     `json:"client" gorm:"size:200"`
	SiteAddress string     `json:"site_address" gorm:"size:500"`
	Manager     string     `json:"manager" gorm:"size:36"`
	Status      string     `json:"status" gorm:"size:20;not null;default:active"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Notes       string     `json:"notes" gorm:"type:text"`
	CreatedBy   string     `json:"created_by" gorm:"size:36"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// ValidProjectStatus 校验项目状态取值
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}
