package repository

import (
	"context"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&rv).Error; err != nil {
		return model.Review{}, translate(err)
	}
	return rv, nil
}

func (r *ReviewGormRepository) FindByID(ctx context.Context, id int64) (model.Review, error) {
	var rv model.Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		return model.Review{}, translate(err)
	}
	return rv, nil
}

func (r *ReviewGormRepository) ExistsByProductAndUser(ctx context.Context, productID int64, userID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID int64, page int, limit int) ([]model.Review, int64, error) {
	page, limit = normalizePage(page, limit, 100, 20)

	q := r.db.WithContext(ctx).Model(&model.Review{}).Where("product_id = ?", productID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Review{}, 0, err
	}

	var items []model.Review
	if err := q.Order("created_at desc").Order("id desc").
		Limit(limit).Offset((page - 1) * limit).
		Find(&items).Error; err != nil {
		return []model.Review{}, 0, err
	}
	return items, total, nil
}

func (r *ReviewGormRepository) Update(ctx context.Context, rv model.Review) error {
	res := r.db.WithContext(ctx).Model(&model.Review{}).Where("id = ?", rv.ID).Updates(map[string]interface{}{
		"rating":  rv.Rating,
		"comment": rv.Comment,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ReviewGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type ratingStatsRow struct {
	Avg float64
	Cnt int64
}

func (r *ReviewGormRepository) RatingStats(ctx context.Context, productID int64) (float64, int64, error) {
	var row ratingStatsRow
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS cnt").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Avg, row.Cnt, nil
}
