package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/shopcarts/internal/logging"
	"github.com/Skotchmaster/shopcarts/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("cart item not found")

// PersistenceError wraps a store failure. The change that caused it has
// been rolled back by the time the caller sees it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s cart item: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type Scope = func(*gorm.DB) *gorm.DB

// QuantityChange sets one item's quantity; zero removes the item.
type QuantityChange struct {
	ItemID   int64
	Quantity int
}

type GormRepo struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (r *GormRepo) now() time.Time {
	t := time.Now()
	if r.Now != nil {
		t = r.Now()
	}
	return t.UTC().Truncate(time.Microsecond)
}

func persistErr(ctx context.Context, op string, err error) error {
	logging.FromContext(ctx).Error("cart_store_error", "op", op, "error", err)
	return &PersistenceError{Op: op, Err: err}
}

// finish turns whatever a transaction returned into the repo's error
// contract: errors raised by the closure pass through, anything else
// (begin, commit) is a persistence failure.
func finish(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var passthrough *passErr
	if errors.As(err, &passthrough) {
		return passthrough.err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) || errors.Is(err, models.ErrInvalidItem) || errors.Is(err, ErrNotFound) {
		return err
	}
	return persistErr(ctx, op, err)
}

// passErr marks a caller-supplied error returned from inside a transaction.
type passErr struct{ err error }

func (p *passErr) Error() string { return p.err.Error() }
func (p *passErr) Unwrap() error { return p.err }

func byKey(ownerID, itemID int64) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ? AND item_id = ?", ownerID, itemID)
	}
}

func byOwner(ownerID int64) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ?", ownerID)
	}
}

func byItems(ids []int64) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.IN{Column: clause.Column{Name: "item_id"}, Values: int64sToAny(ids)})
	}
}

func int64sToAny(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Create inserts a new line item. Timestamps left zero are set to now.
func (r *GormRepo) Create(ctx context.Context, item *models.CartItem) error {
	now := r.now()
	if item != nil {
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		if item.LastUpdated.IsZero() {
			item.LastUpdated = item.CreatedAt
		}
	}
	if err := models.Validate(item); err != nil {
		return err
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return persistErr(ctx, "create", err)
		}
		return nil
	})
	if err := finish(ctx, "create", err); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("cart_item_created", "owner_id", item.OwnerID, "item_id", item.ItemID, "quantity", item.Quantity)
	return nil
}

// Find returns nil, nil when the item does not exist.
func (r *GormRepo) Find(ctx context.Context, ownerID, itemID int64) (*models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Scopes(byKey(ownerID, itemID)).Limit(1).Find(&items).Error; err != nil {
		return nil, persistErr(ctx, "find", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *GormRepo) FindByOwner(ctx context.Context, ownerID int64, scopes ...Scope) ([]models.CartItem, error) {
	return r.Query(ctx, append([]Scope{byOwner(ownerID)}, scopes...)...)
}

func (r *GormRepo) All(ctx context.Context) ([]models.CartItem, error) {
	return r.Query(ctx)
}

// Query returns every line item matching all scopes, ordered by owner then item.
func (r *GormRepo) Query(ctx context.Context, scopes ...Scope) ([]models.CartItem, error) {
	items := []models.CartItem{}
	q := r.DB.WithContext(ctx).Model(&models.CartItem{}).Scopes(scopes...)
	if err := q.Order("owner_id ASC").Order("item_id ASC").Find(&items).Error; err != nil {
		return nil, persistErr(ctx, "query", err)
	}
	return items, nil
}

// Update writes description, quantity and price of an existing item and
// bumps LastUpdated. CreatedAt is never touched.
func (r *GormRepo) Update(ctx context.Context, item *models.CartItem) error {
	if err := models.Validate(item); err != nil {
		return err
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.update(ctx, tx, item)
	})
	if err := finish(ctx, "update", err); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("cart_item_updated", "owner_id", item.OwnerID, "item_id", item.ItemID, "quantity", item.Quantity)
	return nil
}

func (r *GormRepo) update(ctx context.Context, tx *gorm.DB, item *models.CartItem) error {
	var existing models.CartItem
	res := tx.Scopes(byKey(item.OwnerID, item.ItemID), forUpdate).Limit(1).Find(&existing)
	if res.Error != nil {
		return persistErr(ctx, "update", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	item.CreatedAt = existing.CreatedAt
	item.LastUpdated = r.now()
	if item.LastUpdated.Before(item.CreatedAt) {
		item.LastUpdated = item.CreatedAt
	}
	if err := models.Validate(item); err != nil {
		return err
	}

	err := tx.Model(&models.CartItem{}).Scopes(byKey(item.OwnerID, item.ItemID)).Updates(map[string]any{
		"description":  item.Description,
		"quantity":     item.Quantity,
		"price":        item.UnitPrice,
		"last_updated": item.LastUpdated,
	}).Error
	if err != nil {
		return persistErr(ctx, "update", err)
	}
	return nil
}

// Delete reports whether a row was removed.
func (r *GormRepo) Delete(ctx context.Context, ownerID, itemID int64) (bool, error) {
	res := r.DB.WithContext(ctx).Scopes(byKey(ownerID, itemID)).Delete(&models.CartItem{})
	if res.Error != nil {
		return false, persistErr(ctx, "delete", res.Error)
	}
	if res.RowsAffected > 0 {
		logging.FromContext(ctx).Info("cart_item_deleted", "owner_id", ownerID, "item_id", itemID)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) DeleteByOwner(ctx context.Context, ownerID int64) (int64, error) {
	res := r.DB.WithContext(ctx).Scopes(byOwner(ownerID)).Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, persistErr(ctx, "delete", res.Error)
	}
	logging.FromContext(ctx).Info("cart_cleared", "owner_id", ownerID, "deleted", res.RowsAffected)
	return res.RowsAffected, nil
}

// AddQuantity inserts seed, or adds seed.Quantity to the existing row for
// the same key. check sees the resulting quantity before anything is
// written; its error aborts the operation and is returned unchanged.
// created is true when a new row was inserted. If a concurrent writer
// inserts the same key first, the add is retried once as an increment.
func (r *GormRepo) AddQuantity(ctx context.Context, seed models.CartItem, check func(quantity int) error) (item *models.CartItem, created bool, err error) {
	if err := models.Validate(&seed); err != nil {
		return nil, false, err
	}

	for attempt := 0; ; attempt++ {
		item, created, err = r.addQuantity(ctx, seed, check)
		if !errors.Is(err, errKeyTaken) || attempt > 0 {
			break
		}
		logging.FromContext(ctx).Info("cart_item_add_retry", "owner_id", seed.OwnerID, "item_id", seed.ItemID)
	}
	if errors.Is(err, errKeyTaken) {
		err = persistErr(ctx, "add", err)
	}
	if err != nil {
		return nil, false, err
	}

	logging.FromContext(ctx).Info("cart_item_added", "owner_id", item.OwnerID, "item_id", item.ItemID, "quantity", item.Quantity, "created", created)
	return item, created, nil
}

// errKeyTaken reports that another writer inserted the same key between our
// read and our insert.
var errKeyTaken = errors.New("cart item inserted concurrently")

func (r *GormRepo) addQuantity(ctx context.Context, seed models.CartItem, check func(quantity int) error) (item *models.CartItem, created bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CartItem
		res := tx.Scopes(byKey(seed.OwnerID, seed.ItemID), forUpdate).Limit(1).Find(&existing)
		if res.Error != nil {
			return persistErr(ctx, "add", res.Error)
		}

		if res.RowsAffected == 0 {
			if check != nil {
				if err := check(seed.Quantity); err != nil {
					return &passErr{err}
				}
			}
			now := r.now()
			seed.CreatedAt, seed.LastUpdated = now, now
			if err := tx.Create(&seed).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return &passErr{fmt.Errorf("%w: %w", errKeyTaken, err)}
				}
				return persistErr(ctx, "add", err)
			}
			item, created = &seed, true
			return nil
		}

		existing.Quantity += seed.Quantity
		if check != nil {
			if err := check(existing.Quantity); err != nil {
				return &passErr{err}
			}
		}
		if err := r.update(ctx, tx, &existing); err != nil {
			return err
		}
		item = &existing
		return nil
	})
	if err := finish(ctx, "add", err); err != nil {
		return nil, false, err
	}
	return item, created, nil
}

// SetQuantities applies every change or none. An unknown item aborts with
// ErrNotFound.
func (r *GormRepo) SetQuantities(ctx context.Context, ownerID int64, changes []QuantityChange) error {
	for _, ch := range changes {
		if ch.Quantity < 0 {
			return fmt.Errorf("%w: quantity cannot be negative", models.ErrInvalidItem)
		}
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ch := range changes {
			var existing models.CartItem
			res := tx.Scopes(byKey(ownerID, ch.ItemID), forUpdate).Limit(1).Find(&existing)
			if res.Error != nil {
				return persistErr(ctx, "update", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("item %d: %w", ch.ItemID, ErrNotFound)
			}

			if ch.Quantity == 0 {
				if err := tx.Scopes(byKey(ownerID, ch.ItemID)).Delete(&models.CartItem{}).Error; err != nil {
					return persistErr(ctx, "delete", err)
				}
				continue
			}
			existing.Quantity = ch.Quantity
			if err := r.update(ctx, tx, &existing); err != nil {
				return err
			}
		}
		return nil
	})
	if err := finish(ctx, "update", err); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("cart_quantities_set", "owner_id", ownerID, "changes", len(changes))
	return nil
}

// Consume locks the owner's rows, hands them to fn and, if fn succeeds,
// deletes exactly the rows fn saw. Rows inserted after the read survive.
// An error from fn rolls back and is returned unchanged.
func (r *GormRepo) Consume(ctx context.Context, ownerID int64, fn func([]models.CartItem) error) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(byOwner(ownerID), forUpdate).Order("item_id ASC").Find(&items).Error; err != nil {
			return persistErr(ctx, "checkout", err)
		}
		if err := fn(items); err != nil {
			return &passErr{err}
		}
		if len(items) == 0 {
			return nil
		}
		ids := make([]int64, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ItemID)
		}
		if err := tx.Scopes(byOwner(ownerID), byItems(ids)).Delete(&models.CartItem{}).Error; err != nil {
			return persistErr(ctx, "checkout", err)
		}
		return nil
	})
	if err := finish(ctx, "checkout", err); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("cart_consumed", "owner_id", ownerID, "items", len(items))
	return items, nil
}

// Ping checks the underlying connection.
func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
