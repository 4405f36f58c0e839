package usecase

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 注文確定の通知先。送信はキューに積むだけで、失敗しても注文には影響しない
type OrderNotifier interface {
	SendOrderConfirmation(ctx context.Context, user model.User, order model.Order)
}

type OrderUsecase struct {
	tx       repo.TransactionManager
	users    repo.UserRepository
	notifier OrderNotifier
	log      *zap.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, users repo.UserRepository, notifier OrderNotifier, log *zap.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, users: users, notifier: notifier, log: log}
}

type PlaceOrderInput struct {
	ShippingAddress string
	PaymentID       string
}

type OrderItemOutput struct {
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int64           `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID               int64             `json:"id"`
	UserID           int64             `json:"user_id"`
	Status           string            `json:"status"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	PaymentReference string            `json:"payment_reference"`
	ShippingAddress  string            `json:"shipping_address"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Items            []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func insufficientStock(name string) error {
	return NewHTTPError(http.StatusBadRequest, "insufficient stock for product: "+name)
}

// カートから注文を作る。
// 在庫チェックは全明細を通してから減算する（途中で失敗したら何も変わらない）
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "shipping_address is required")
	}
	paymentID := strings.TrimSpace(in.PaymentID)
	if paymentID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "payment_id is required")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var created model.Order

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return err
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		// 商品行をロック（id昇順）
		ids := make([]int64, 0, len(cartItems))
		for _, ci := range cartItems {
			ids = append(ids, ci.ProductID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		locked, err := r.Products().FindByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		products := make(map[int64]model.Product, len(locked))
		for _, p := range locked {
			products[p.ID] = p
		}

		// 先に全明細を検証
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		for _, ci := range cartItems {
			p, ok := products[ci.ProductID]
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "product not available")
			}
			if p.Stock < ci.Quantity {
				return insufficientStock(p.Name)
			}
			orderItems = append(orderItems, model.NewOrderItem(p, ci.Quantity))
		}

		order := model.Order{
			UserID:           userID,
			Status:           model.OrderStatusPending,
			TotalAmount:      model.SumSubtotals(orderItems),
			PaymentReference: paymentID,
			ShippingAddress:  address,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}

		//在庫減算（足りないなら false）
		for _, it := range orderItems {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return insufficientStock(it.ProductNameSnapshot)
			}
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}

		// カートは残して明細だけ空にする
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return err
		}

		created, err = r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		created.Items = orderItems
		return nil
	})
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}

	u.log.Info("order placed",
		zap.Int64("order_id", created.ID),
		zap.Int64("user_id", userID),
		zap.String("total", created.TotalAmount.StringFixed(2)),
	)
	u.notifier.SendOrderConfirmation(ctx, *user, created)

	return toOrderOutput(created, created.Items), nil
}

// 自分の注文を新しい順に
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validatePaging(page, limit); err != nil {
		return OrderListOutput{}, err
	}

	out := OrderListOutput{Page: page, Limit: limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
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

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
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
		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}
	return out, nil
}

// 在庫を全明細ぶん戻して CANCELLED にする。二回目はエラー
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
		switch o.Status {
		case model.OrderStatusDelivered:
			return NewHTTPError(http.StatusBadRequest, "cannot cancel delivered order")
		case model.OrderStatusCancelled:
			return NewHTTPError(http.StatusBadRequest, "order already cancelled")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return err
		}
		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}

	u.log.Info("order cancelled", zap.Int64("order_id", orderID), zap.Int64("user_id", userID))
	return out, nil
}

// 明細はまとめて1回で取る
func loadOrderOutputs(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := r.OrderItems().ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, byOrder[o.ID]))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:       it.ProductID,
			ProductName:     it.ProductNameSnapshot,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
			Subtotal:        it.Subtotal,
		})
	}

	return OrderOutput{
		ID:               o.ID,
		UserID:           o.UserID,
		Status:           string(o.Status),
		TotalAmount:      o.TotalAmount,
		PaymentReference: o.PaymentReference,
		ShippingAddress:  o.ShippingAddress,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		Items:            outItems,
	}
}
