package repository

import (
	"context"
	"errors"

	"github.com/buildhub/sitestock/internal/auth/entity"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// UserRepository 用户数据访问
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// LoadRolesAndPermissions 展开用户的角色码和权限码到运行时字段
func (r *UserRepository) LoadRolesAndPermissions(ctx context.Context, user *entity.User) error {
	var roles []entity.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", user.ID).
		Preload("Permissions").
		Find(&roles).Error
	if err != nil {
		return err
	}

	user.Roles = roles
	user.RoleCodes = make([]string, 0, len(roles))
	permSet := make(map[string]struct{})
	for _, role := range roles {
		user.RoleCodes = append(user.RoleCodes, role.Code)
		for _, perm := range role.Permissions {
			permSet[perm.Code] = struct{}{}
		}
	}
	user.PermissionCodes = make([]string, 0, len(permSet))
	for code := range permSet {
		user.PermissionCodes = append(user.PermissionCodes, code)
	}
	return nil
}

// AssignRole 给用户绑定角色
func (r *UserRepository) AssignRole(ctx context.Context, userID, roleID string) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO user_roles (user_id, role_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		userID, roleID).Error
}
