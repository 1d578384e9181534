package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockLine identifies one inventory variant of the order.
type StockLine struct {
	ProductID uint64
	Color     string
	Size      string
	Qty       int
}

func (l StockLine) key() string {
	return fmt.Sprintf("%d|%s|%s", l.ProductID, l.Color, l.Size)
}

// CheckStockInTx verifies availability without deducting. Used before
// creating the provider order so the buyer is not sent to PayPal for a
// cart that can no longer be fulfilled.
func CheckStockInTx(ctx context.Context, tx *gorm.DB, lines []StockLine) error {
	_, err := lockAndDiff(ctx, tx, lines, false)
	return err
}

// DeductStockInTx runs inside a CALLER-OWNED tx (no nested tx). Called
// from the capture finalization transaction, after verification passed.
func DeductStockInTx(ctx context.Context, tx *gorm.DB, lines []StockLine) error {
	want, err := lockAndDiff(ctx, tx, lines, true)
	if err != nil {
		return err
	}

	products := map[uint64]struct{}{}
	for _, ln := range want {
		res := tx.WithContext(ctx).
			Table("product_inventory").
			Where("product_id = ? AND color = ? AND size = ?", ln.ProductID, ln.Color, ln.Size).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", ln.Qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return &OutOfStockError{Items: []OutOfStockItem{{
				ProductID: ln.ProductID, Color: ln.Color, Size: ln.Size, Requested: ln.Qty,
			}}}
		}
		products[ln.ProductID] = struct{}{}
	}

	// keep the denormalized per-product total in sync
	for pid := range products {
		if err := tx.WithContext(ctx).
			Table("products").
			Where("id = ?", pid).
			UpdateColumn("stock", gorm.Expr(
				"(SELECT COALESCE(SUM(quantity), 0) FROM product_inventory WHERE product_id = ?)", pid,
			)).Error; err != nil {
			return err
		}
	}
	return nil
}

func lockAndDiff(ctx context.Context, tx *gorm.DB, lines []StockLine, forUpdate bool) ([]StockLine, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	// merge duplicates, deterministic order
	merged := map[string]StockLine{}
	for _, ln := range lines {
		if ln.Qty < 1 {
			ln.Qty = 1
		}
		k := ln.key()
		got := merged[k]
		ln.Qty += got.Qty
		merged[k] = ln
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	want := make([]StockLine, 0, len(keys))
	for _, k := range keys {
		want = append(want, merged[k])
	}

	var oos []OutOfStockItem
	for _, ln := range want {
		q := tx.WithContext(ctx).
			Table("product_inventory").
			Select("quantity").
			Where("product_id = ? AND color = ? AND size = ?", ln.ProductID, ln.Color, ln.Size)
		if forUpdate {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var avail int
		err := q.Row().Scan(&avail)
		if errors.Is(err, sql.ErrNoRows) {
			avail = 0 // variant never stocked
		} else if err != nil {
			return nil, err
		}
		if avail < ln.Qty {
			oos = append(oos, OutOfStockItem{
				ProductID: ln.ProductID, Color: ln.Color, Size: ln.Size,
				Requested: ln.Qty, Available: avail,
			})
		}
	}
	if len(oos) > 0 {
		return nil, &OutOfStockError{Items: oos}
	}
	return want, nil
}

// --- retry helpers (deadlock/lock timeout) ---

// WithTxRetry runs fn in a transaction and replays it when MySQL kills
// the tx with a deadlock or lock wait timeout. The inventory row locks
// taken by DeductStockInTx make concurrent captures prone to exactly
// those errors, so finalization transactions should go through here.
// fn must be safe to re-run from scratch.
func WithTxRetry(ctx context.Context, db *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(tx)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if isRetryableMySQLError(err) && i < attempts-1 {
			time.Sleep(time.Duration(50*(i+1)) * time.Millisecond)
			continue
		}
		return err
	}
	return lastErr
}

func isRetryableMySQLError(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		// 1213: Deadlock found; 1205: Lock wait timeout
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}
