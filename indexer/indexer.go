// Package indexer maintains a queryable table of escrow listings built from
// committed escrow events.
package indexer

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/StorkBison/escrow-sell-SC/core/events"
	"github.com/StorkBison/escrow-sell-SC/native/escrow"
)

var (
	ErrNotFound          = errors.New("indexer: escrow not found")
	ErrUnsupportedDriver = errors.New("indexer: unsupported driver")
)

// Status is the lifecycle position of a listing.
type Status string

const (
	StatusOpen      Status = "open"
	StatusSettled   Status = "settled"
	StatusCancelled Status = "cancelled"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// EscrowRow is one listing.
type EscrowRow struct {
	Address     string    `gorm:"primaryKey;size:44" json:"address"`
	Initializer string    `gorm:"size:44;index" json:"initializer"`
	Mint        string    `gorm:"size:44;index" json:"mint"`
	HeldAccount string    `gorm:"size:44" json:"heldAccount"`
	Price       uint64    `gorm:"not null" json:"price"`
	Status      Status    `gorm:"size:16;index" json:"status"`
	Taker       string    `gorm:"size:44" json:"taker,omitempty"`
	Tax         uint64    `json:"tax"`
	Royalty     uint64    `json:"royalty"`
	Proceeds    uint64    `json:"proceeds"`
	InitTx      string    `gorm:"size:88" json:"initTx,omitempty"`
	CloseTx     string    `gorm:"size:88" json:"closeTx,omitempty"`
	OpenedSlot  uint64    `json:"openedSlot"`
	ClosedSlot  uint64    `json:"closedSlot,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Status      Status
	Initializer string
	Mint        string
	Limit       int
	Offset      int
}

// Indexer writes escrow events into a SQL table.
type Indexer struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to driver ("sqlite" or "postgres") at dsn and migrates the
// schema.
func Open(driver, dsn string, log *slog.Logger) (*Indexer, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open %s: %w", driver, err)
	}
	return New(db, log)
}

// New wraps an open database and migrates the schema.
func New(db *gorm.DB, log *slog.Logger) (*Indexer, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := db.AutoMigrate(&EscrowRow{}); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	return &Indexer{db: db, logger: log}, nil
}

// Emit implements events.Emitter. Failures are logged; the ledger is the
// source of truth and the index can be rebuilt.
func (ix *Indexer) Emit(evt events.Event) {
	committed, ok := evt.(events.Committed)
	if !ok || !strings.HasPrefix(committed.EventType(), "escrow.") {
		return
	}
	if err := ix.Apply(committed); err != nil {
		ix.logger.Error("index escrow event",
			slog.String("type", committed.EventType()),
			slog.String("tx", committed.TxID),
			slog.Any("error", err))
	}
}

// Apply folds one committed escrow event into the table.
func (ix *Indexer) Apply(c events.Committed) error {
	address := c.Attr("escrow")
	if address == "" {
		return fmt.Errorf("indexer: %s event without escrow attribute", c.EventType())
	}
	price, err := parseAmount(c.Attr("price"))
	if err != nil {
		return err
	}
	row := EscrowRow{
		Address:     address,
		Initializer: c.Attr("initializer"),
		Mint:        c.Attr("mint"),
		HeldAccount: c.Attr("heldAccount"),
		Price:       price,
	}

	switch c.EventType() {
	case escrow.EventTypeEscrowInitialized:
		row.Status = StatusOpen
		row.InitTx = c.TxID
		row.OpenedSlot = c.Slot
		return ix.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	case escrow.EventTypeEscrowSettled, escrow.EventTypeEscrowCancelled:
		return ix.db.Transaction(func(tx *gorm.DB) error {
			var existing EscrowRow
			err := tx.First(&existing, "address = ?", address).Error
			switch {
			case err == nil:
				row.InitTx = existing.InitTx
				row.OpenedSlot = existing.OpenedSlot
				row.CreatedAt = existing.CreatedAt
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
			row.Status = StatusCancelled
			if c.EventType() == escrow.EventTypeEscrowSettled {
				row.Status = StatusSettled
				if row.Tax, err = parseAmount(c.Attr("tax")); err != nil {
					return err
				}
				if row.Royalty, err = parseAmount(c.Attr("royalty")); err != nil {
					return err
				}
				if row.Proceeds, err = parseAmount(c.Attr("proceeds")); err != nil {
					return err
				}
			}
			row.Taker = c.Attr("taker")
			row.CloseTx = c.TxID
			row.ClosedSlot = c.Slot
			return tx.Save(&row).Error
		})
	}
	return nil
}

func parseAmount(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("indexer: parse amount %q: %w", raw, err)
	}
	return v, nil
}

// Get returns the listing stored under address.
func (ix *Indexer) Get(address string) (*EscrowRow, error) {
	var row EscrowRow
	err := ix.db.First(&row, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns listings matching f, most recently opened first.
func (ix *Indexer) List(f Filter) ([]EscrowRow, error) {
	q := ix.db.Model(&EscrowRow{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Initializer != "" {
		q = q.Where("initializer = ?", f.Initializer)
	}
	if f.Mint != "" {
		q = q.Where("mint = ?", f.Mint)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	var rows []EscrowRow
	err := q.Order("opened_slot DESC").Order("address").Limit(limit).Offset(f.Offset).Find(&rows).Error
	return rows, err
}

// Close releases the database connection.
func (ix *Indexer) Close() error {
	sqlDB, err := ix.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
