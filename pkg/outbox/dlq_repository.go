package outbox

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db/models"
)

// maxDLQErrorLen caps the stored error message, in bytes.
const maxDLQErrorLen = 1024

// DLQRepository stores events the relay gave up on, for manual inspection.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// Park records entry inside tx. Parking the same event twice keeps the first row.
func (r *DLQRepository) Park(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("outbox: park requires a transaction")
	}
	if entry.ErrorMessage != nil {
		msg := truncateDLQError(*entry.ErrorMessage)
		entry.ErrorMessage = &msg
	}
	return tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&entry).Error
}

// FindByEventID returns the parked row for an outbox event, or nil.
func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var parked models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Take(&parked).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &parked, nil
}

// truncateDLQError cuts msg to maxDLQErrorLen without splitting a UTF-8 sequence.
func truncateDLQError(msg string) string {
	if len(msg) <= maxDLQErrorLen {
		return msg
	}
	cut := maxDLQErrorLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
