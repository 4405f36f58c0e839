package repository

import (
	"context"
	"time"

	"shopping/internal/domain/model"
)

// GET /admin/audit-logs の絞り込み。nil / 空は条件なし
type AuditLogListFilter struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

type AuditLogRepository interface {
	// 在庫変更・商品削除・ステータス上書きのたびに同じトランザクションで書く
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順。件数も返す
	List(ctx context.Context, f AuditLogListFilter) ([]model.AuditLog, int64, error)
}
