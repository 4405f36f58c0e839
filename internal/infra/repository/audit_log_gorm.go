package repository

import (
	"context"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return r.db.WithContext(ctx).Create(&log).Error
}

func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogListFilter) ([]model.AuditLog, int64, error) {
	page, limit := normalizePage(f.Page, f.Limit, 100, 50)

	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if f.ActorUserID != nil {
		q = q.Where("actor_user_id = ?", *f.ActorUserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.ResourceType != "" {
		q = q.Where("resource_type = ?", f.ResourceType)
	}
	if f.ResourceID != nil {
		q = q.Where("resource_id = ?", *f.ResourceID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.AuditLog{}, 0, err
	}

	var logs []model.AuditLog
	if err := q.Order("created_at desc").Order("id desc").
		Limit(limit).Offset((page - 1) * limit).
		Find(&logs).Error; err != nil {
		return []model.AuditLog{}, 0, err
	}
	return logs, total, nil
}
