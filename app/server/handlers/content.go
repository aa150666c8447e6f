package handlers

import (
	"context"
	"errors"
	"ihfiction/app/server/domain"
	"ihfiction/app/server/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func (a *App) bodies() *mongo.Collection {
	return a.mdb.Collection(models.WorkBodyCollection)
}

// fetchBody 按 ObjectID 拉取正文
func (a *App) fetchBody(ctx context.Context, bodyID string) (*models.WorkBody, *domain.Error) {
	oid, err := primitive.ObjectIDFromHex(bodyID)
	if err != nil {
		return nil, domain.NotFound("WorkBody", bodyID)
	}

	var body models.WorkBody
	if err = a.bodies().FindOne(ctx, bson.M{"_id": oid}).Decode(&body); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("WorkBody", bodyID)
		}
		a.l.Error("failed to fetch work body", zap.String("id", bodyID), zap.Error(err))
		return nil, domain.Database("Query", err)
	}

	return &body, nil
}

// upsertBody 更新（或创建）正文，返回 ObjectID 的十六进制形式。
// 双写顺序：先写正文，再把关系型实体的 work_body_id 指过去
func (a *App) upsertBody(ctx context.Context, bodyID string, content string, note string) (string, *domain.Error) {
	now := time.Now()

	if bodyID == "" {
		body := models.WorkBody{Content: content, Note: note, UpdatedAt: now}
		res, err := a.bodies().InsertOne(ctx, &body)
		if err != nil {
			a.l.Error("failed to insert work body", zap.Error(err))
			return "", domain.Database("Insert", err)
		}
		oid, _ := res.InsertedID.(primitive.ObjectID)
		return oid.Hex(), nil
	}

	oid, err := primitive.ObjectIDFromHex(bodyID)
	if err != nil {
		return "", domain.NotFound("WorkBody", bodyID)
	}

	if _, err = a.bodies().UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"content": content, "note": note, "updated_at": now}},
	); err != nil {
		a.l.Error("failed to update work body", zap.String("id", bodyID), zap.Error(err))
		return "", domain.Database("Update", err)
	}

	return bodyID, nil
}

// markBodyPendingDelete 补偿式删除流程的第一步：
// 先打待删除标记，调用方随后删除关系型元数据再尽力删除正文本体；
// 删除失败的正文由启动时的 ReapPendingBodies 清理
func (a *App) markBodyPendingDelete(ctx context.Context, bodyID string) *domain.Error {
	oid, err := primitive.ObjectIDFromHex(bodyID)
	if err != nil {
		return domain.NotFound("WorkBody", bodyID)
	}

	if _, err = a.bodies().UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"pending_delete": true}},
	); err != nil {
		a.l.Error("failed to mark work body pending delete", zap.String("id", bodyID), zap.Error(err))
		return domain.Database("Update", err)
	}

	return nil
}

func (a *App) deleteBody(ctx context.Context, bodyID string) {
	oid, err := primitive.ObjectIDFromHex(bodyID)
	if err != nil {
		return
	}

	// 尽力而为；失败的留给清理流程
	if _, err = a.bodies().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		a.l.Error("failed to delete work body, leaving for reap", zap.String("id", bodyID), zap.Error(err))
	}
}

// ReapPendingBodies 清理仍带待删除标记的正文，启动时调用
func (a *App) ReapPendingBodies(ctx context.Context) error {
	res, err := a.bodies().DeleteMany(ctx, bson.M{"pending_delete": true})
	if err != nil {
		return err
	}

	if res.DeletedCount > 0 {
		a.l.Info("reaped pending work bodies", zap.Int64("count", res.DeletedCount))
	}
	return nil
}
