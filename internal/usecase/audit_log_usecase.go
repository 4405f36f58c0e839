package usecase

import (
	"context"
	"net/http"
	"strings"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"
)

// 管理者向けの監査ログ参照
type AuditLogUsecase struct {
	repo repo.AuditLogRepository
}

func NewAuditLogUsecase(r repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{repo: r}
}

type AuditLogListInput struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         string // RFC3339
	To           string
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// 新しい順
func (u *AuditLogUsecase) List(ctx context.Context, in AuditLogListInput) (AuditLogListOutput, error) {
	if err := validatePaging(in.Page, in.Limit); err != nil {
		return AuditLogListOutput{}, err
	}

	f := repo.AuditLogListFilter{
		Page:        in.Page,
		Limit:       in.Limit,
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
	}

	if v := strings.ToUpper(strings.TrimSpace(in.Action)); v != "" {
		a := model.AuditAction(v)
		switch a {
		case model.AuditActionUpdateStock, model.AuditActionUpdateOrderStatus, model.AuditActionDeleteProduct:
		default:
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = a
	}
	if v := strings.ToLower(strings.TrimSpace(in.ResourceType)); v != "" {
		rt := model.AuditResourceType(v)
		if rt != model.AuditResourceProduct && rt != model.AuditResourceOrder {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		f.ResourceType = rt
	}

	from, err := ParseDateTimeRFC3339(in.From)
	if err != nil {
		return AuditLogListOutput{}, err
	}
	to, err := ParseDateTimeRFC3339(in.To)
	if err != nil {
		return AuditLogListOutput{}, err
	}
	f.From, f.To = from, to

	logs, total, err := u.repo.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return AuditLogListOutput{Items: logs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}
