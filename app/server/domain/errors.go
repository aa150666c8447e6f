package domain

import "fmt"

// Error 业务错误，值类型； Code 按约定映射到 HTTP 状态码
type Error struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func NewError(code string, description string) *Error {
	return &Error{Code: code, Description: description}
}

// NotFound 实体不存在，例如 Story.NotFound
func NotFound(entity string, id string) *Error {
	return NewError(entity+".NotFound", fmt.Sprintf("%s %q does not exist", entity, id))
}

// AlreadyDeleted 实体已被软删除
func AlreadyDeleted(entity string, id string) *Error {
	return NewError(entity+".AlreadyDeleted", fmt.Sprintf("%s %q has already been deleted", entity, id))
}

// Database 数据库层失败
func Database(op string, err error) *Error {
	return NewError("Database."+op, err.Error())
}

// Validation 请求校验失败
func Validation(kind string, description string) *Error {
	return NewError("Validation."+kind, description)
}

// 授权相关错误
var (
	ErrOwnerOnlyOperation      = NewError("Authorization.OwnerOnlyOperation", "only the owner may perform this operation")
	ErrCollaboratorRequired    = NewError("Authorization.CollaboratorRequired", "only the owner or a collaborator may perform this operation")
	ErrInsufficientPermissions = NewError("Authorization.InsufficientPermissions", "the acting user is not permitted to perform this operation")
	ErrAuthorRequired          = NewError("Authorization.AuthorRequired", "the acting user is not an author")
)
