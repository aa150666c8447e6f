package domain

// StoryAccessLevel 一次操作要求的访问级别
type StoryAccessLevel int

const (
	AccessLevelRead StoryAccessLevel = iota
	AccessLevelEdit
	AccessLevelDelete
	AccessLevelPublish
)

func (l StoryAccessLevel) String() string {
	switch l {
	case AccessLevelRead:
		return "read"
	case AccessLevelEdit:
		return "edit"
	case AccessLevelDelete:
		return "delete"
	case AccessLevelPublish:
		return "publish"
	default:
		return "unknown"
	}
}

// StoryPermissions 按请求推导出来的权限集合，不落库
type StoryPermissions struct {
	IsOwner        bool `json:"isOwner"`
	IsCollaborator bool `json:"isCollaborator"`
	CanRead        bool `json:"canRead"`
	CanEdit        bool `json:"canEdit"`
	CanDelete      bool `json:"canDelete"`
	CanPublish     bool `json:"canPublish"`
}

// ComputeStoryPermissions 由 (isOwner, isCollaborator) 推导四个能力位：
// 拥有者视同协作者获得读写，删除与发布仅拥有者可用
func ComputeStoryPermissions(isOwner bool, isCollaborator bool) StoryPermissions {
	return StoryPermissions{
		IsOwner:        isOwner,
		IsCollaborator: isCollaborator,
		CanRead:        isOwner || isCollaborator,
		CanEdit:        isOwner || isCollaborator,
		CanDelete:      isOwner,
		CanPublish:     isOwner,
	}
}

// Allows 判断权限集合是否满足要求的访问级别
func (p StoryPermissions) Allows(level StoryAccessLevel) bool {
	switch level {
	case AccessLevelRead:
		return p.CanRead
	case AccessLevelEdit:
		return p.CanEdit
	case AccessLevelDelete:
		return p.CanDelete
	case AccessLevelPublish:
		return p.CanPublish
	default:
		return false
	}
}
