package repository

import (
	"context"
	"fmt"

	"intercompany/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceFilter narrows List results. Zero values mean "any".
type InvoiceFilter struct {
	CompanyID     *uuid.UUID
	State         string
	MoveType      string
	AutoGenerated *bool
	Search        string
}

// MirrorFilter narrows FindMirrors results. Zero values mean "any".
type MirrorFilter struct {
	CompanyID *uuid.UUID
	State     string
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter, page, limit int) ([]model.Invoice, int64, error)
	Update(ctx context.Context, invoice *model.Invoice) error
	ReplaceLines(ctx context.Context, invoice *model.Invoice, lines []model.InvoiceLine) error
	UpdateLineSubtotal(ctx context.Context, line *model.InvoiceLine) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	FindMirrors(ctx context.Context, sourceID uuid.UUID, filter MirrorFilter) ([]model.Invoice, error)
	LastNameByPrefix(ctx context.Context, companyID uuid.UUID, prefix string) (string, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := GetDB(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence, created_at")
		}).
		Preload("Lines.AnalyticTags").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceFilter, page, limit int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Invoice{})
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if filter.MoveType != "" {
		query = query.Where("move_type = ?", filter.MoveType)
	}
	if filter.AutoGenerated != nil {
		query = query.Where("auto_generated = ?", *filter.AutoGenerated)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ? OR ref LIKE ? OR invoice_origin LIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// Update writes every header column of the invoice. Lines are not touched.
func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	result := GetDB(ctx, r.db).Model(invoice).
		Select("*").
		Omit("ID", "CreatedAt", "Lines").
		Updates(invoice)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceLines deletes the current lines of the invoice and inserts the given ones.
func (r *invoiceRepository) ReplaceLines(ctx context.Context, invoice *model.Invoice, lines []model.InvoiceLine) error {
	db := GetDB(ctx, r.db)
	if err := r.deleteLines(db, invoice.ID); err != nil {
		return err
	}
	for i := range lines {
		lines[i].ID = uuid.Nil
		lines[i].InvoiceID = invoice.ID
	}
	if len(lines) > 0 {
		if err := db.Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to insert lines: %w", err)
		}
	}
	invoice.Lines = lines
	return nil
}

func (r *invoiceRepository) UpdateLineSubtotal(ctx context.Context, line *model.InvoiceLine) error {
	return GetDB(ctx, r.db).Model(line).Update("price_subtotal", line.PriceSubtotal).Error
}

// HardDelete removes the invoice and its lines regardless of state. Mirrors
// generated from it keep existing with their source references cleared.
func (r *invoiceRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Exec("UPDATE invoices SET auto_invoice_id = NULL WHERE auto_invoice_id = ?", id).Error; err != nil {
		return err
	}
	if err := r.deleteLines(db, id); err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM invoice_messages WHERE invoice_id = ?", id).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&model.Invoice{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteLines removes the lines of an invoice. Mirror lines copied from them
// keep existing with their back-reference cleared.
func (r *invoiceRepository) deleteLines(db *gorm.DB, invoiceID uuid.UUID) error {
	err := db.Exec(
		"UPDATE invoice_lines SET auto_invoice_line_id = NULL WHERE auto_invoice_line_id IN (SELECT id FROM invoice_lines WHERE invoice_id = ?)",
		invoiceID,
	).Error
	if err != nil {
		return err
	}
	err = db.Exec(
		"DELETE FROM invoice_line_analytic_tags WHERE invoice_line_id IN (SELECT id FROM invoice_lines WHERE invoice_id = ?)",
		invoiceID,
	).Error
	if err != nil {
		return err
	}
	return db.Where("invoice_id = ?", invoiceID).Delete(&model.InvoiceLine{}).Error
}

// FindMirrors returns the documents generated from sourceID, oldest first.
func (r *invoiceRepository) FindMirrors(ctx context.Context, sourceID uuid.UUID, filter MirrorFilter) ([]model.Invoice, error) {
	var mirrors []model.Invoice
	query := GetDB(ctx, r.db).Where("auto_invoice_id = ?", sourceID)
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if err := query.Order("created_at").Find(&mirrors).Error; err != nil {
		return nil, err
	}
	return mirrors, nil
}

// LastNameByPrefix returns the highest document number starting with prefix, or "".
func (r *invoiceRepository) LastNameByPrefix(ctx context.Context, companyID uuid.UUID, prefix string) (string, error) {
	var names []string
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("company_id = ? AND name LIKE ?", companyID, prefix+"%").
		Order("name desc").
		Limit(1).
		Pluck("name", &names).Error
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}
