package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkBodyCollection MongoDB 中存放作品正文的集合名
const WorkBodyCollection = "WorkBody"

// WorkBody 作品正文，存放在 MongoDB ，由关系型实体的 work_body_id 单向引用
type WorkBody struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Content       string             `bson:"content"` // Markdown 正文
	Note          string             `bson:"note,omitempty"`
	PendingDelete bool               `bson:"pending_delete,omitempty"` // 待删除标记，见双写补偿流程
	UpdatedAt     time.Time          `bson:"updated_at"`
}
