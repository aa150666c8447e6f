package services

import (
	"context"
	"ihfiction/app/server/models"
	"ihfiction/app/server/oidc"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newTestDB 内存 sqlite ，每个测试独立一份
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Author{},
		&models.Profile{},
		&models.Story{},
		&models.Book{},
		&models.Chapter{},
		&models.Tag{},
	))

	return db
}

// seedAuthor 建一对共享主键的 User + Author
func seedAuthor(t *testing.T, db *gorm.DB, subject string, name string) *models.Author {
	t.Helper()

	user := models.User{Subject: subject, Name: name}
	require.NoError(t, db.Create(&user).Error)

	author := models.Author{Base: models.Base{ID: user.ID}, Name: name}
	require.NoError(t, db.Create(&author).Error)

	return &author
}

func testPrincipal(subject string, name string) *oidc.Principal {
	return &oidc.Principal{Subject: subject, Name: name}
}

func testServices(t *testing.T, db *gorm.DB, roles RoleAssigner) (*Users, *Loader, *Authorization) {
	t.Helper()

	l := zap.NewNop()
	users := NewUsers(l, db, roles)
	loader := NewLoader(db)
	auth := NewAuthorization(l, loader, users)
	return users, loader, auth
}

// recordingRoleAssigner 记录被授予的角色
type recordingRoleAssigner struct {
	subjects []string
	roles    []string
}

func (r *recordingRoleAssigner) AssignRealmRole(_ context.Context, subject string, role string) error {
	r.subjects = append(r.subjects, subject)
	r.roles = append(r.roles, role)
	return nil
}
