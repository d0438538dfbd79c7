package ordering

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/database"
	"gorm.io/gorm"
)

// Scope narrows the sibling set, e.g. members of one group.
type Scope func(*gorm.DB) *gorm.DB

func All(db *gorm.DB) *gorm.DB { return db }

func label(column string) string {
	s := strings.ReplaceAll(column, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func siblingOrders(db *gorm.DB, table, column string, excludeID uint, scope Scope) ([]int, error) {
	if scope == nil {
		scope = All
	}
	var orders []int
	q := db.Table(table).Scopes(scope).Where(column + " IS NOT NULL")
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Pluck(column, &orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// EnsureOrderAvailable rejects order when a sibling other than excludeID holds it.
func EnsureOrderAvailable(db *gorm.DB, table, column string, order int, excludeID uint, scope Scope) error {
	if order < 0 {
		return apperr.Validation("%s must be zero or greater", label(column))
	}

	orders, err := siblingOrders(db, table, column, excludeID, scope)
	if err != nil {
		return apperr.Upstream("Failed to read existing order", err)
	}

	for _, v := range orders {
		if v == order {
			next := NextAvailableOrder(orders)
			return apperr.Validation("%s %d is already used. Next available: %d", label(column), order, next).
				WithDetails(map[string]any{"nextAvailable": next})
		}
	}
	return nil
}

func NextOrder(db *gorm.DB, table, column string, scope Scope) (int, error) {
	orders, err := siblingOrders(db, table, column, 0, scope)
	if err != nil {
		return 0, apperr.Upstream("Failed to read existing order", err)
	}
	return NextAvailableOrder(orders), nil
}

type Row struct {
	ID    uint `json:"id"`
	Order *int `json:"order"`
}

// Rows returns the current (id, order) pairs of a table, ordered.
func Rows(db *gorm.DB, table, column string, scope Scope) ([]Row, error) {
	if scope == nil {
		scope = All
	}
	var rows []Row
	err := db.Table(table).Scopes(scope).
		Select("id, " + column + " AS \"order\"").
		Order(column).Order("id").
		Scan(&rows).Error
	return rows, err
}

func setOrder(ctx context.Context, db *gorm.DB, table, column string, id uint, value int) error {
	return database.WithRetry(ctx, func() error {
		return db.WithContext(ctx).Table(table).Where("id = ?", id).Update(column, value).Error
	})
}

// Swap exchanges the order values of two rows as three single-row writes.
// The first row is parked on -1-idA so no two rows share a value in between.
func Swap(ctx context.Context, db *gorm.DB, table, column string, idA, idB uint, scope Scope) error {
	if idA == 0 || idB == 0 {
		return apperr.Validation("idA and idB are required")
	}
	if idA == idB {
		return apperr.Validation("Cannot swap an item with itself")
	}

	var rows []Row
	err := db.WithContext(ctx).Table(table).
		Select("id, "+column+" AS \"order\"").
		Where("id IN ?", []uint{idA, idB}).
		Scan(&rows).Error
	if err != nil {
		return apperr.Upstream("Failed to load items", err)
	}

	var orderA, orderB *int
	for _, r := range rows {
		switch r.ID {
		case idA:
			orderA = r.Order
		case idB:
			orderB = r.Order
		}
	}
	if len(rows) != 2 {
		return apperr.NotFound("Item")
	}
	if orderA == nil || orderB == nil {
		return apperr.Validation("Both items must have a %s", strings.ToLower(label(column)))
	}
	a, b := *orderA, *orderB
	parked := -1 - int(idA)

	saga := Saga{Steps: []Step{
		{
			Name: "park",
			Do:   func(ctx context.Context) error { return setOrder(ctx, db, table, column, idA, parked) },
			Undo: func(ctx context.Context) error { return setOrder(ctx, db, table, column, idA, a) },
		},
		{
			Name: "move",
			Do:   func(ctx context.Context) error { return setOrder(ctx, db, table, column, idB, a) },
			Undo: func(ctx context.Context) error { return setOrder(ctx, db, table, column, idB, b) },
		},
		{
			Name: "place",
			Do:   func(ctx context.Context) error { return setOrder(ctx, db, table, column, idA, b) },
		},
	}}

	if err := saga.Run(ctx); err != nil {
		var sagaErr *SagaError
		if !errors.As(err, &sagaErr) {
			return apperr.Upstream("Swap failed", err)
		}
		if !sagaErr.Compensated() {
			if current, rerr := Rows(db.WithContext(context.Background()), table, column, scope); rerr == nil {
				sagaErr.Reconcile = current
			}
			return apperr.Upstream("Swap partially applied, refetch and reconcile", sagaErr).
				WithDetails(map[string]any{"reconcile": sagaErr.Reconcile})
		}
		return apperr.Upstream(fmt.Sprintf("Swap failed at step %s and was rolled back", sagaErr.Step), err)
	}
	return nil
}
