package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"
)

type ReviewUsecase struct {
	tx          repo.TransactionManager
	reviewRepo  repo.ReviewRepository
	productRepo repo.ProductRepository
}

func NewReviewUsecase(tx repo.TransactionManager, reviewRepo repo.ReviewRepository, productRepo repo.ProductRepository) *ReviewUsecase {
	return &ReviewUsecase{tx: tx, reviewRepo: reviewRepo, productRepo: productRepo}
}

type CreateReviewInput struct {
	ProductID int64
	Rating    int
	Comment   string
}

type UpdateReviewInput struct {
	Rating  int
	Comment string
}

type ReviewListOutput struct {
	Items []model.Review `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

var errAlreadyReviewed = NewHTTPError(http.StatusBadRequest, "you have already reviewed this product")

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}
	return nil
}

// 1ユーザー1商品につき1件
func (u *ReviewUsecase) Create(ctx context.Context, userID int64, in CreateReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if err := validateRating(in.Rating); err != nil {
		return model.Review{}, err
	}

	var out model.Review

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, in.ProductID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "product not found")
			}
			return err
		}

		exists, err := r.Reviews().ExistsByProductAndUser(ctx, in.ProductID, userID)
		if err != nil {
			return err
		}
		if exists {
			return errAlreadyReviewed
		}

		created, err := r.Reviews().Create(ctx, model.Review{
			ProductID: in.ProductID,
			UserID:    userID,
			Rating:    in.Rating,
			Comment:   strings.TrimSpace(in.Comment),
		})
		if errors.Is(err, repo.ErrDuplicate) {
			return errAlreadyReviewed
		}
		if err != nil {
			return err
		}

		out = created
		return refreshProductRating(ctx, r, in.ProductID)
	})
	if err != nil {
		return model.Review{}, toHTTPError(err)
	}
	return out, nil
}

func (u *ReviewUsecase) ListByProduct(ctx context.Context, productID int64, page int, limit int) (ReviewListOutput, error) {
	if productID <= 0 {
		return ReviewListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := validatePaging(page, limit); err != nil {
		return ReviewListOutput{}, err
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ReviewListOutput{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return ReviewListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, total, err := u.reviewRepo.ListByProductID(ctx, productID, page, limit)
	if err != nil {
		return ReviewListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ReviewListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (u *ReviewUsecase) Update(ctx context.Context, userID int64, reviewID int64, in UpdateReviewInput) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if reviewID <= 0 {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := validateRating(in.Rating); err != nil {
		return model.Review{}, err
	}

	var out model.Review

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rv, err := findOwnReview(ctx, r, userID, reviewID)
		if err != nil {
			return err
		}

		rv.Rating = in.Rating
		rv.Comment = strings.TrimSpace(in.Comment)
		if err := r.Reviews().Update(ctx, rv); err != nil {
			return err
		}

		out = rv
		return refreshProductRating(ctx, r, rv.ProductID)
	})
	if err != nil {
		return model.Review{}, toHTTPError(err)
	}
	return out, nil
}

func (u *ReviewUsecase) Delete(ctx context.Context, userID int64, reviewID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if reviewID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rv, err := findOwnReview(ctx, r, userID, reviewID)
		if err != nil {
			return err
		}
		if err := r.Reviews().Delete(ctx, reviewID); err != nil {
			return err
		}
		return refreshProductRating(ctx, r, rv.ProductID)
	})
	return toHTTPError(err)
}

func findOwnReview(ctx context.Context, r repo.TxRepos, userID int64, reviewID int64) (model.Review, error) {
	rv, err := r.Reviews().FindByID(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, NewHTTPError(http.StatusNotFound, "review not found")
	}
	if err != nil {
		return model.Review{}, err
	}
	if rv.UserID != userID {
		return model.Review{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return rv, nil
}

// 平均評価（小数2桁）と件数を商品に反映
func refreshProductRating(ctx context.Context, r repo.TxRepos, productID int64) error {
	avg, count, err := r.Reviews().RatingStats(ctx, productID)
	if err != nil {
		return err
	}
	return r.Products().UpdateRating(ctx, productID, math.Round(avg*100)/100, count)
}
