package repository

import (
	"context"

	"intercompany/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *model.InvoiceMessage) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.InvoiceMessage, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *model.InvoiceMessage) error {
	return GetDB(ctx, r.db).Create(message).Error
}

func (r *messageRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.InvoiceMessage, error) {
	var messages []model.InvoiceMessage
	if err := GetDB(ctx, r.db).Where("invoice_id = ?", invoiceID).Order("created_at").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
