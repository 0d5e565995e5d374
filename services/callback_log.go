package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/utils/crypto"
	"gorm.io/gorm"
)

// CallbackEntry describes one processed postpay callback.
type CallbackEntry struct {
	OrderID  *uint
	Outcome  string
	Detail   string
	RemoteIP string
	Payload  map[string]string
}

// CallbackLogStore persists processor callbacks. Payloads are sealed with
// AES-GCM when a sealing secret is configured.
type CallbackLogStore struct {
	db     *gorm.DB
	sealer *crypto.PayloadSealer
}

// NewCallbackLogStore creates a callback log store. sealer may be nil.
func NewCallbackLogStore(db *gorm.DB, sealer *crypto.PayloadSealer) *CallbackLogStore {
	return &CallbackLogStore{db: db, sealer: sealer}
}

// RecordCallback writes an audit row for entry.
func (s *CallbackLogStore) RecordCallback(ctx context.Context, entry CallbackEntry) error {
	raw, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}
	sealed, nonce, err := s.sealer.Seal(raw)
	if err != nil {
		return fmt.Errorf("seal callback payload: %w", err)
	}

	var signed pq.StringArray
	if names := entry.Payload["signed_field_names"]; names != "" {
		signed = strings.Split(names, ",")
	}

	row := model.PaymentCallbackLog{
		OrderID:         entry.OrderID,
		ReferenceNumber: truncate(entry.Payload["req_reference_number"], 64),
		Decision:        truncate(entry.Payload["decision"], 32),
		Outcome:         entry.Outcome,
		Detail:          entry.Detail,
		SignedFields:    signed,
		Payload:         sealed,
		PayloadNonce:    nonce,
		RemoteIP:        entry.RemoteIP,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record callback: %w", err)
	}
	return nil
}

// CallbackLogView is a stored callback with its payload opened.
type CallbackLogView struct {
	model.PaymentCallbackLog
	Params map[string]string `json:"params"`
}

// Get loads a callback row and opens its payload.
func (s *CallbackLogStore) Get(ctx context.Context, id uint) (*CallbackLogView, error) {
	var row model.PaymentCallbackLog
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCallbackNotFound
	}
	if err != nil {
		return nil, err
	}

	params, err := s.OpenPayload(&row)
	if err != nil {
		return nil, err
	}
	return &CallbackLogView{PaymentCallbackLog: row, Params: params}, nil
}

// OpenPayload decrypts and decodes a stored payload.
func (s *CallbackLogStore) OpenPayload(row *model.PaymentCallbackLog) (map[string]string, error) {
	raw, err := s.sealer.Open(row.Payload, row.PayloadNonce)
	if err != nil {
		return nil, fmt.Errorf("open callback %d: %w", row.ID, err)
	}
	params := map[string]string{}
	if len(raw) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("decode callback %d: %w", row.ID, err)
	}
	return params, nil
}

// List returns callback rows newest first, optionally filtered by order and
// outcome.
func (s *CallbackLogStore) List(ctx context.Context, orderID uint, outcome string, limit int) ([]model.PaymentCallbackLog, error) {
	q := s.db.WithContext(ctx).Model(&model.PaymentCallbackLog{}).Order("created_at DESC")
	if orderID != 0 {
		q = q.Where("order_id = ?", orderID)
	}
	if outcome != "" {
		q = q.Where("outcome = ?", outcome)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []model.PaymentCallbackLog
	if err := q.Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
