package services

import (
	"context"
	"errors"
	"ihfiction/app/server/constants"
	"ihfiction/app/server/domain"
	"ihfiction/app/server/models"
	"ihfiction/app/server/oidc"
	"slices"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoleAssigner 身份提供方的角色授予接口，由 keycloak.Admin 实现
type RoleAssigner interface {
	AssignRealmRole(ctx context.Context, subject string, role string) error
}

// Users 把外部身份映射到本地 User / Author 记录
type Users struct {
	l     *zap.Logger
	db    *gorm.DB
	roles RoleAssigner // 可为 nil（未接入身份提供方管理接口时）
}

func NewUsers(l *zap.Logger, db *gorm.DB, roles RoleAssigner) *Users {
	return &Users{l: l, db: db, roles: roles}
}

// GetOrCreateUser 按 subject 幂等获取本地用户，首次见到时落库。
// 并发的首次请求可能撞在唯一索引上，这里不做重读重试，直接上抛
func (u *Users) GetOrCreateUser(ctx context.Context, principal *oidc.Principal) (*models.User, *domain.Error) {
	var user models.User
	err := u.db.WithContext(ctx).First(&user, "subject = ?", principal.Subject).Error
	if err == nil {
		// 角色以令牌为准，身份提供方侧变更后在这里同步
		if !slices.Equal([]string(user.Roles), principal.Roles) {
			user.Roles = principal.Roles
			if err = u.db.WithContext(ctx).Model(&user).Update("roles", user.Roles).Error; err != nil {
				return nil, domain.Database("Update", err)
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Database("Query", err)
	}

	user = models.User{
		Subject: principal.Subject,
		Name:    principal.Name,
		Roles:   principal.Roles,
	}
	if err = u.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, domain.Database("Insert", err)
	}

	return &user, nil
}

// AuthorBySubject 解析 subject 对应的作者；不是作者时返回 (nil, nil)
func (u *Users) AuthorBySubject(ctx context.Context, subject string) (*models.Author, *domain.Error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, "subject = ?", subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, domain.Database("Query", err)
	}

	var author models.Author
	if err := u.db.WithContext(ctx).Preload("Profile").First(&author, "id = ?", user.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, domain.Database("Query", err)
	}

	return &author, nil
}

// PromoteToAuthor 把用户晋升为作者（共享主键），幂等；
// 同 ID 的孤儿简介若存在则原样保留，并授予 realm 作者角色
func (u *Users) PromoteToAuthor(ctx context.Context, principal *oidc.Principal) (*models.Author, *domain.Error) {
	user, derr := u.GetOrCreateUser(ctx, principal)
	if derr != nil {
		return nil, derr
	}

	var author models.Author
	err := u.db.WithContext(ctx).Preload("Profile").First(&author, "id = ?", user.ID).Error
	exists := err == nil
	if !exists && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Database("Query", err)
	}

	if !exists {
		if err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			author = models.Author{
				Base: models.Base{ID: user.ID},
				Name: user.Name,
			}
			if err := tx.Create(&author).Error; err != nil {
				return err
			}

			// 孤儿简介：同 ID 的 Profile 若存在（包括被软删除的）则恢复并保留
			var profile models.Profile
			if err := tx.Unscoped().First(&profile, "id = ?", user.ID).Error; err == nil {
				if profile.DeletedAt.Valid {
					if err := tx.Unscoped().Model(&profile).Update("deleted_at", nil).Error; err != nil {
						return err
					}
					profile.DeletedAt = gorm.DeletedAt{}
				}
				author.Profile = &profile
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			return nil
		}); err != nil {
			return nil, domain.Database("Insert", err)
		}
	}

	// 授予 realm 作者角色；授予是幂等的，作者记录已存在的重试也要补发，
	// 否则一次身份提供方故障会让账号永远缺少角色
	if u.roles != nil {
		if err = u.roles.AssignRealmRole(ctx, user.Subject, constants.AuthorRoleName); err != nil {
			u.l.Error("failed to assign author role", zap.String("subject", user.Subject), zap.Error(err))
			return nil, domain.NewError("Keycloak.RoleAssignment", err.Error())
		}
	}

	return &author, nil
}

// UpdateProfile 更新（或创建）作者简介
func (u *Users) UpdateProfile(ctx context.Context, authorID string, bio string) (*models.Profile, *domain.Error) {
	var author models.Author
	if err := u.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("Author", authorID)
		}
		return nil, domain.Database("Query", err)
	}

	var profile models.Profile
	err := u.db.WithContext(ctx).First(&profile, "id = ?", authorID).Error
	switch {
	case err == nil:
		if err = u.db.WithContext(ctx).Model(&profile).Update("bio", bio).Error; err != nil {
			return nil, domain.Database("Update", err)
		}
		profile.Bio = bio
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = models.Profile{
			Base: models.Base{ID: authorID},
			Bio:  bio,
		}
		if err = u.db.WithContext(ctx).Create(&profile).Error; err != nil {
			return nil, domain.Database("Insert", err)
		}
	default:
		return nil, domain.Database("Query", err)
	}

	return &profile, nil
}
