// Package sales persists checked-out carts. A sale, its items and the sale_created
// outbox row commit in one transaction.
package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/registers"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox/payloads"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/pagination"
)

// Service exposes sale persistence and lookup.
type Service interface {
	Create(ctx context.Context, record Record, registerID uuid.UUID) (*SaleDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*SaleDTO, error)
	ListByRegister(ctx context.Context, registerID uuid.UUID, params pagination.Params) (*ListResult, error)
}

// ListResult is one page of a register's sales. NextCursor is empty on the last page.
type ListResult struct {
	Sales      []SaleDTO `json:"sales"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	outbox   *outbox.Service
	logg     *logger.Logger
}

// NewService builds the sales service.
func NewService(repo *Repository, dbClient *db.Client, outboxSvc *outbox.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, outbox: outboxSvc, logg: logg}, nil
}

// Create persists record against registerID. The register must exist and be open.
func (s *service) Create(ctx context.Context, record Record, registerID uuid.UUID) (*SaleDTO, error) {
	if err := validateRecord(record); err != nil {
		return nil, err
	}
	details, err := json.Marshal(record.PaymentDetails)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode payment details")
	}

	sale := buildSaleModel(record, registerID, details)
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := registers.EnsureOpenTx(ctx, tx, registerID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert sale")
		}

		var actor *outbox.ActorRef
		if record.OperatorID != nil {
			actor = &outbox.ActorRef{OperatorID: *record.OperatorID}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleCreated,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         actor,
			Data:          saleCreatedEvent(sale, record.SplitParts()),
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(s.logg.WithRegisterID(ctx, registerID.String()), map[string]any{
		"sale_id":      sale.ID.String(),
		"total_amount": sale.TotalAmount.String(),
		"payment_type": sale.PaymentType,
		"items":        len(sale.Items),
	})
	s.logg.Info(logCtx, "sale.created")
	return mapSaleDTO(sale), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SaleDTO, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load sale")
	}
	return mapSaleDTO(sale), nil
}

func (s *service) ListByRegister(ctx context.Context, registerID uuid.UUID, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByRegister(ctx, registerID, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list sales")
	}

	rows, next := pagination.Trim(rows, limit, func(sale models.Sale) pagination.Cursor {
		return pagination.Cursor{CreatedAt: sale.CreatedAt, ID: sale.ID}
	})
	result := &ListResult{Sales: make([]SaleDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Sales = append(result.Sales, *mapSaleDTO(&rows[i]))
	}
	return result, nil
}

func validateRecord(record Record) error {
	var fields []pkgerrors.FieldError
	if len(record.Items) == 0 {
		fields = append(fields, pkgerrors.FieldError{Field: "items", Message: "at least one item is required"})
	}
	if !record.PaymentType.IsValid() {
		fields = append(fields, pkgerrors.FieldError{Field: "payment_type", Message: "unknown payment method"})
	}
	if record.TotalAmount.IsNegative() {
		fields = append(fields, pkgerrors.FieldError{Field: "total_amount", Message: "total must not be negative"})
	}
	if strings.TrimSpace(record.CustomerName) == "" {
		fields = append(fields, pkgerrors.FieldError{Field: "customer_name", Message: "customer name is required"})
	}
	for i, item := range record.Items {
		if item.ProductID == uuid.Nil {
			fields = append(fields, pkgerrors.FieldError{Field: fmt.Sprintf("items[%d].product_id", i), Message: "product is required"})
		}
		if item.Quantity < 1 {
			fields = append(fields, pkgerrors.FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "quantity must be at least 1"})
		}
	}
	if len(fields) > 0 {
		return pkgerrors.Validation("invalid sale", fields...)
	}
	return nil
}

func buildSaleModel(record Record, registerID uuid.UUID, details []byte) *models.Sale {
	channel := record.Channel
	if channel == "" {
		channel = ChannelPDV
	}
	items := make([]models.SaleItem, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, models.SaleItem{
			ProductID:      item.ProductID,
			ProductCode:    item.ProductCode,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			WeightKg:       item.WeightKg,
			UnitPrice:      item.UnitPrice,
			PricePerGram:   item.PricePerGram,
			DiscountAmount: item.DiscountAmount,
			Subtotal:       item.Subtotal,
		})
	}
	return &models.Sale{
		RegisterID:         registerID,
		OperatorID:         record.OperatorID,
		CustomerName:       strings.TrimSpace(record.CustomerName),
		CustomerPhone:      strings.TrimSpace(record.CustomerPhone),
		Subtotal:           record.Subtotal,
		DiscountAmount:     record.DiscountAmount,
		DiscountPercentage: record.DiscountPercentage,
		TotalAmount:        record.TotalAmount,
		PaymentType:        record.PaymentType,
		PaymentDetails:     json.RawMessage(details),
		ChangeAmount:       record.ChangeAmount,
		Notes:              record.Notes,
		Channel:            channel,
		Items:              items,
		CreatedAt:          time.Now().UTC(),
	}
}

func saleCreatedEvent(sale *models.Sale, splitParts int) payloads.SaleCreatedEvent {
	items := make([]payloads.SaleItemSummary, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, payloads.SaleItemSummary{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			WeightKg:    item.WeightKg,
			Subtotal:    item.Subtotal,
		})
	}
	return payloads.SaleCreatedEvent{
		SaleID:         sale.ID,
		RegisterID:     sale.RegisterID,
		OperatorID:     sale.OperatorID,
		Channel:        sale.Channel,
		PaymentType:    sale.PaymentType,
		Subtotal:       sale.Subtotal,
		DiscountAmount: sale.DiscountAmount,
		TotalAmount:    sale.TotalAmount,
		ChangeAmount:   sale.ChangeAmount,
		SplitParts:     splitParts,
		Items:          items,
		CreatedAt:      sale.CreatedAt,
	}
}
