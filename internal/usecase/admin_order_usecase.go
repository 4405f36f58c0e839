package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"
)

type AdminOrderUsecase struct {
	tx repo.TransactionManager
}

func NewAdminOrderUsecase(tx repo.TransactionManager) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 全ユーザーの注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	if err := validatePaging(f.Page, f.Limit); err != nil {
		return OrderListOutput{}, err
	}
	if f.Status != "" {
		if _, ok := model.ParseOrderStatus(f.Status); !ok {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	out := OrderListOutput{Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return err
		}
		items, err := loadOrderOutputs(ctx, r, orders)
		if err != nil {
			return err
		}
		out.Items = items
		out.Total = total
		return nil
	})
	if err != nil {
		return OrderListOutput{}, toHTTPError(err)
	}
	return out, nil
}

// ステータスを上書きする。遷移表のチェックも在庫の増減もしない（管理者の手動修正用）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return err
		}

		before := o.Status
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			return err
		}

		// 監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(before) + `"}`,
			AfterJSON:    `{"status":"` + string(newStatus) + `"}`,
			CreatedAt:    time.Now(),
		}); err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		o.Status = newStatus
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}
	return out, nil
}

// 期間パラメータ（RFC3339）。空なら nil
func ParseDateTimeRFC3339(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid datetime")
	}
	return &t, nil
}
