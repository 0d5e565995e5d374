package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services/storage"
	"gorm.io/gorm"
)

// ReceiptStore archives rendered receipts.
type ReceiptStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// ReceiptRenderer turns an order into a PDF.
type ReceiptRenderer interface {
	Render(order *model.ProgramOrder) ([]byte, error)
}

// MailerConfig holds the values quoted in confirmation emails.
type MailerConfig struct {
	PlatformName   string
	SiteName       string
	SupportEmail   string
	CurrencySymbol string
}

// ReceiptMailer renders, archives and emails the receipt of a purchased
// order. Every step is best effort: failures are logged and the purchase
// stands.
type ReceiptMailer struct {
	db       *gorm.DB
	renderer ReceiptRenderer
	store    ReceiptStore
	email    EmailService
	cfg      MailerConfig
}

// NewReceiptMailer creates a purchase notifier. store may be nil, in which
// case receipts are only attached to the email.
func NewReceiptMailer(db *gorm.DB, renderer ReceiptRenderer, store ReceiptStore, email EmailService, cfg MailerConfig) *ReceiptMailer {
	return &ReceiptMailer{db: db, renderer: renderer, store: store, email: email, cfg: cfg}
}

// OrderPurchased implements PurchaseNotifier.
func (m *ReceiptMailer) OrderPurchased(ctx context.Context, order *model.ProgramOrder) {
	pdf, err := m.renderer.Render(order)
	if err != nil {
		log.Errorf("Failed to render receipt for order %d: %v", order.ID, err)
		pdf = nil
	}

	if pdf != nil && m.store != nil {
		m.archive(ctx, order, pdf)
	}

	if err := m.email.Send(ctx, m.confirmation(order, pdf)); err != nil {
		log.Errorf("Failed sending confirmation e-mail for order %d: %v", order.ID, err)
	}
}

func (m *ReceiptMailer) archive(ctx context.Context, order *model.ProgramOrder, pdf []byte) {
	key := storage.ReceiptKey(order.ID)
	if err := m.store.Put(ctx, key, pdf, "application/pdf"); err != nil {
		log.Errorf("Failed to upload receipt for order %d: %v", order.ID, err)
		return
	}
	err := m.db.WithContext(ctx).Model(&model.ProgramOrder{}).
		Where("id = ?", order.ID).
		Update("receipt_key", key).Error
	if err != nil {
		log.Errorf("Failed to store receipt key for order %d: %v", order.ID, err)
		return
	}
	order.ReceiptKey = key
}

func (m *ReceiptMailer) confirmation(order *model.ProgramOrder, pdf []byte) EmailMessage {
	msg := EmailMessage{
		To:       []mail.Address{{Name: order.User.Username, Address: order.User.Email}},
		Subject:  "Order Payment Confirmation",
		TextBody: m.confirmationBody(order),
	}
	if pdf != nil {
		msg.Attachments = []EmailAttachment{{
			Filename:    "Receipt.pdf",
			ContentType: "application/pdf",
			Content:     pdf,
		}}
	} else {
		msg.Attachments = []EmailAttachment{{
			Filename:    "pdf_not_available.txt",
			ContentType: "text/plain",
			Content:     []byte("pdf download unavailable right now, please contact support."),
		}}
	}
	return msg
}

func (m *ReceiptMailer) confirmationBody(order *model.ProgramOrder) string {
	title := order.ItemName
	if title == "" {
		title = order.Program.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", order.User.DisplayName())
	fmt.Fprintf(&b, "Thank you for your purchase of %s.\n\n", title)
	fmt.Fprintf(&b, "Order number: %d\n", order.ID)
	fmt.Fprintf(&b, "Amount paid: %s%s\n", m.cfg.CurrencySymbol, order.ExpectedCharge().StringFixed(2))
	fmt.Fprintf(&b, "Order placed by: %s (%s)\n\n", order.User.Username, order.User.Email)
	fmt.Fprintf(&b, "You can find your programs on your dashboard: %s/dashboard\n\n", strings.TrimRight(m.cfg.SiteName, "/"))
	fmt.Fprintf(&b, "If you have any questions, please contact %s.\n\n", m.cfg.SupportEmail)
	fmt.Fprintf(&b, "The %s Team\n", m.cfg.PlatformName)
	return b.String()
}
