package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"github.com/wiproedx/synergeticsopenedx/database"
	"github.com/wiproedx/synergeticsopenedx/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseNotifier is told about an order right after its purchase commits.
// Implementations must not fail the purchase.
type PurchaseNotifier interface {
	OrderPurchased(ctx context.Context, order *model.ProgramOrder)
}

// OrderService is the order ledger: it creates pending orders and moves them
// forward through initiate, purchased and refunded.
type OrderService struct {
	db       *gorm.DB
	notifier PurchaseNotifier
	now      func() time.Time
}

// NewOrderService creates a new order service. notifier may be nil.
func NewOrderService(db *gorm.DB, notifier PurchaseNotifier) *OrderService {
	return &OrderService{db: db, notifier: notifier, now: time.Now}
}

// OrderHistoryEntry is one purchased order as shown in the dashboard.
type OrderHistoryEntry struct {
	Number     uint            `json:"number"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	ReceiptURL string          `json:"receipt_url"`
	OrderDate  *time.Time      `json:"order_date"`
	Status     string          `json:"status"`
}

// GetOrCreate returns the user's pending order for program, creating it when
// none exists. Item name and price are refreshed from the program.
func (s *OrderService) GetOrCreate(ctx context.Context, userID uint, program *model.Program) (*model.ProgramOrder, error) {
	db := s.db.WithContext(ctx)
	where := model.ProgramOrder{UserID: userID, ProgramID: program.ID, Status: model.OrderStatusInitiate}

	var order model.ProgramOrder
	err := db.Where(&where).
		Attrs(model.ProgramOrder{ItemName: program.Name, ItemPrice: program.Price}).
		FirstOrCreate(&order).Error
	if database.IsUniqueViolation(err) {
		// Lost a race with a concurrent request for the same program.
		err = db.Where(&where).First(&order).Error
	}
	if err != nil {
		return nil, fmt.Errorf("get or create order for user %d program %d: %w", userID, program.ID, err)
	}

	if order.ItemName != program.Name || !order.ItemPrice.Equal(program.Price) {
		err := db.Model(&order).Updates(map[string]interface{}{
			"item_name":  program.Name,
			"item_price": program.Price,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("refresh order %d: %w", order.ID, err)
		}
	}
	order.Program = *program
	return &order, nil
}

// FindOrder loads an order with its program. It returns nil, nil when the
// order does not exist.
func (s *OrderService) FindOrder(ctx context.Context, id uint) (*model.ProgramOrder, error) {
	var order model.ProgramOrder
	err := s.db.WithContext(ctx).Preload("Program").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder is FindOrder that reports a missing order as ErrOrderNotFound.
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*model.ProgramOrder, error) {
	order, err := s.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Purchase marks a pending order as purchased and stores the billing snapshot
// and processor payload. The status change is a compare-and-set on initiate,
// so only one concurrent caller wins; the others get false and no error.
// The receipt and confirmation email are sent after commit and never fail
// the purchase.
func (s *OrderService) Purchase(ctx context.Context, orderID uint, billing model.BillingAddress, payload map[string]string) (bool, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal processor response: %w", err)
	}
	now := s.now().UTC()

	var order model.ProgramOrder
	purchased := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ProgramOrder{}).
			Where("id = ? AND status = ?", orderID, model.OrderStatusInitiate).
			Updates(map[string]interface{}{
				"status":             model.OrderStatusPurchased,
				"purchase_time":      now,
				"processor_response": datatypes.JSON(raw),
				"bill_to_first":      billing.First,
				"bill_to_last":       billing.Last,
				"bill_to_street1":    billing.Street1,
				"bill_to_street2":    billing.Street2,
				"bill_to_city":       billing.City,
				"bill_to_state":      billing.State,
				"bill_to_postalcode": billing.PostalCode,
				"bill_to_country":    billing.Country,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Preload("Program").Preload("User").First(&order, orderID).Error; err != nil {
			return err
		}
		purchased = true
		return enqueueEvent(tx, model.EventOrderPurchased, OrderEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			ProgramID: order.ProgramID,
			Amount:    order.ExpectedCharge(),
			Status:    string(order.Status),
		})
	})
	if err != nil {
		return false, fmt.Errorf("purchase order %d: %w", orderID, err)
	}
	if !purchased {
		log.Errorf("Purchase called on order %d, but the order is not in the initiate state", orderID)
		return false, nil
	}

	log.Infof("Order %d purchased by user %d for %s", order.ID, order.UserID, order.ExpectedCharge().StringFixed(2))
	if s.notifier != nil {
		s.notifier.OrderPurchased(ctx, &order)
	}
	return true, nil
}

// RecordProcessorResponse stores the raw callback on a pending order without
// finalizing it. Settled orders keep the payload that settled them.
func (s *OrderService) RecordProcessorResponse(ctx context.Context, orderID uint, payload map[string]string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal processor response: %w", err)
	}
	return s.db.WithContext(ctx).Model(&model.ProgramOrder{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusInitiate).
		Update("processor_response", datatypes.JSON(raw)).Error
}

// Refund moves a purchased order to refunded.
func (s *OrderService) Refund(ctx context.Context, orderID uint) (*model.ProgramOrder, error) {
	now := s.now().UTC()
	var order model.ProgramOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.ProgramOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !current.Status.CanTransitionTo(model.OrderStatusRefunded) {
			return ErrOrderNotRefundable
		}

		err := tx.Model(&current).Updates(map[string]interface{}{
			"status":        model.OrderStatusRefunded,
			"refunded_time": now,
		}).Error
		if err != nil {
			return err
		}

		if err := tx.Preload("Program").First(&order, orderID).Error; err != nil {
			return err
		}
		return enqueueEvent(tx, model.EventOrderRefunded, OrderEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			ProgramID: order.ProgramID,
			Amount:    order.ExpectedCharge(),
			Status:    string(order.Status),
		})
	})
	if err != nil {
		return nil, err
	}
	log.Infof("Order %d refunded", order.ID)
	return &order, nil
}

// History lists the user's purchased and refunded orders, newest first.
func (s *OrderService) History(ctx context.Context, userID uint) ([]OrderHistoryEntry, error) {
	var orders []model.ProgramOrder
	err := s.db.WithContext(ctx).
		Preload("Program").
		Where("user_id = ? AND status IN ?", userID,
			[]model.OrderStatus{model.OrderStatusPurchased, model.OrderStatusRefunded}).
		Order("purchase_time DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	entries := make([]OrderHistoryEntry, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		title := o.Program.Name
		if title == "" {
			title = o.ItemName
		}
		entries = append(entries, OrderHistoryEntry{
			Number:     o.ID,
			Title:      title,
			Price:      o.ExpectedCharge(),
			ReceiptURL: fmt.Sprintf("/api/v1/programs/receipt/%d", o.ID),
			OrderDate:  o.PurchaseTime,
			Status:     string(o.Status),
		})
	}
	return entries, nil
}

// Receipt returns a settled order owned by userID.
func (s *OrderService) Receipt(ctx context.Context, userID, orderID uint) (*model.ProgramOrder, error) {
	var order model.ProgramOrder
	err := s.db.WithContext(ctx).
		Preload("Program").
		Preload("User").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if !order.IsSettled() {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// OrderFilter narrows the admin order list.
type OrderFilter struct {
	Status    model.OrderStatus
	UserID    uint
	ProgramID uint
	Page      int
	Limit     int
}

// List returns orders matching filter, newest first, with the total count.
func (s *OrderService) List(ctx context.Context, filter OrderFilter) ([]model.ProgramOrder, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.ProgramOrder{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ProgramID != 0 {
		q = q.Where("program_id = ?", filter.ProgramID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []model.ProgramOrder
	err := q.Preload("Program").
		Omit("processor_response").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&orders).Error
	return orders, total, err
}
