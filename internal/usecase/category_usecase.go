package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
	productRepo  repo.ProductRepository
}

func NewCategoryUsecase(categoryRepo repo.CategoryRepository, productRepo repo.ProductRepository) *CategoryUsecase {
	return &CategoryUsecase{categoryRepo: categoryRepo, productRepo: productRepo}
}

type CategoryInput struct {
	Name        string
	Description string
	ImageURL    string
}

var errCategoryNameTaken = NewHTTPError(http.StatusBadRequest, "category name already exists")

func (u *CategoryUsecase) List(ctx context.Context) ([]model.Category, error) {
	cats, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cats, nil
}

func (u *CategoryUsecase) Get(ctx context.Context, id int64) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	c, err := u.categoryRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

// 名前は一意
func (u *CategoryUsecase) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	exists, err := u.categoryRepo.ExistsByName(ctx, name)
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if exists {
		return model.Category{}, errCategoryNameTaken
	}

	c, err := u.categoryRepo.Create(ctx, model.Category{
		Name:        name,
		Description: in.Description,
		ImageURL:    strings.TrimSpace(in.ImageURL),
	})
	// 同時作成は一意制約で弾かれる
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Category{}, errCategoryNameTaken
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, id int64, in CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	c, err := u.Get(ctx, id)
	if err != nil {
		return model.Category{}, err
	}

	if name != c.Name {
		exists, err := u.categoryRepo.ExistsByName(ctx, name)
		if err != nil {
			return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if exists {
			return model.Category{}, errCategoryNameTaken
		}
	}

	c.Name = name
	c.Description = in.Description
	c.ImageURL = strings.TrimSpace(in.ImageURL)

	err = u.categoryRepo.Update(ctx, c)
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Category{}, errCategoryNameTaken
	}
	if errors.Is(err, repo.ErrNotFound) {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

// 商品が残っているカテゴリは消さない
func (u *CategoryUsecase) Delete(ctx context.Context, id int64) error {
	if _, err := u.Get(ctx, id); err != nil {
		return err
	}

	_, total, err := u.productRepo.List(ctx, repo.ProductListQuery{Page: 1, Limit: 1, CategoryID: &id})
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if total > 0 {
		return NewHTTPError(http.StatusBadRequest, "category has products")
	}

	err = u.categoryRepo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
