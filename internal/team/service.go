// Package team manages team groups and the ordering of their members.
package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/ordering"
	"gorm.io/gorm"
)

const (
	groupsTable  = "team_groups"
	membersTable = "team_members"
)

func ungrouped(db *gorm.DB) *gorm.DB {
	return db.Where("group_id IS NULL")
}

func inGroup(groupID uint) ordering.Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("group_id = ?", groupID)
	}
}

func LoadMember(ctx context.Context, db *gorm.DB, id uint) (*models.TeamMember, error) {
	var m models.TeamMember
	if err := db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Team member")
		}
		return nil, err
	}
	return &m, nil
}

func LoadGroup(ctx context.Context, db *gorm.DB, id uint) (*models.TeamGroup, error) {
	var g models.TeamGroup
	if err := db.WithContext(ctx).First(&g, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Team group")
		}
		return nil, err
	}
	return &g, nil
}

func GroupMembers(ctx context.Context, db *gorm.DB, groupID uint) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("group_order").Order("id").
		Find(&members).Error
	return members, err
}

func sameGroup(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func updateMember(ctx context.Context, db *gorm.DB, id uint, values map[string]interface{}) error {
	return database.WithRetry(ctx, func() error {
		return db.WithContext(ctx).Model(&models.TeamMember{}).Where("id = ?", id).Updates(values).Error
	})
}

// renumberStep rewrites groupOrder of members to 0..n-1; Undo restores the
// previous values.
func renumberStep(db *gorm.DB, members []models.TeamMember) ordering.Step {
	return ordering.Step{
		Name: "renumber",
		Do: func(ctx context.Context) error {
			for i, m := range members {
				if err := updateMember(ctx, db, m.ID, map[string]interface{}{"group_order": i}); err != nil {
					return err
				}
			}
			return nil
		},
		Undo: func(ctx context.Context) error {
			for _, m := range members {
				if err := updateMember(ctx, db, m.ID, map[string]interface{}{"group_order": m.GroupOrder}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func sagaFailure(db *gorm.DB, err error) error {
	var sagaErr *ordering.SagaError
	if errors.As(err, &sagaErr) && !sagaErr.Compensated() {
		var groups []models.TeamGroup
		if rerr := db.Preload("Members", func(q *gorm.DB) *gorm.DB {
			return q.Order("group_order")
		}).Order("display_order").Find(&groups).Error; rerr == nil {
			sagaErr.Reconcile = groups
		}
		return apperr.Upstream("Move partially applied, refetch and reconcile", sagaErr).
			WithDetails(map[string]any{"reconcile": sagaErr.Reconcile})
	}
	return apperr.Upstream("Move failed and was rolled back", err)
}

// ReassignGroup appends the member to the end of newGroupID (or detaches it
// when nil) and closes the gap it leaves in its previous group. A target whose
// orders have a gap is compacted first so the appended order is free. The
// steps run as a saga without a transaction.
func ReassignGroup(ctx context.Context, db *gorm.DB, memberID uint, newGroupID *uint) (*models.TeamMember, error) {
	return ReassignGroupAt(ctx, db, memberID, newGroupID, nil)
}

// ReassignGroupAt is ReassignGroup with an explicit groupOrder in the target
// group. The order must be free there; nil appends.
func ReassignGroupAt(ctx context.Context, db *gorm.DB, memberID uint, newGroupID *uint, groupOrder *int) (*models.TeamMember, error) {
	member, err := LoadMember(ctx, db, memberID)
	if err != nil {
		return nil, err
	}
	if newGroupID != nil {
		if _, err := LoadGroup(ctx, db, *newGroupID); err != nil {
			return nil, err
		}
	}
	if sameGroup(member.GroupID, newGroupID) {
		return member, nil
	}

	previous := map[string]interface{}{
		"group_id":      member.GroupID,
		"group_order":   member.GroupOrder,
		"display_order": member.DisplayOrder,
	}

	var steps []ordering.Step
	var target map[string]interface{}
	if newGroupID != nil && groupOrder != nil {
		if err := ordering.EnsureOrderAvailable(db.WithContext(ctx), membersTable, "group_order", *groupOrder, member.ID, inGroup(*newGroupID)); err != nil {
			return nil, err
		}
		target = map[string]interface{}{"group_id": *newGroupID, "group_order": *groupOrder}
	} else if newGroupID != nil {
		members, err := GroupMembers(ctx, db, *newGroupID)
		if err != nil {
			return nil, err
		}
		end := len(members)
		for _, m := range members {
			if m.GroupOrder != nil && *m.GroupOrder == end {
				// A gap below end; compact the target so end is free.
				steps = append(steps, renumberStep(db, members))
				break
			}
		}
		target = map[string]interface{}{"group_id": *newGroupID, "group_order": end}
	} else {
		next, err := ordering.NextOrder(db.WithContext(ctx), membersTable, "display_order", ungrouped)
		if err != nil {
			return nil, err
		}
		target = map[string]interface{}{"group_id": nil, "group_order": nil, "display_order": next}
	}

	steps = append(steps, ordering.Step{
		Name: "append",
		Do:   func(ctx context.Context) error { return updateMember(ctx, db, member.ID, target) },
		Undo: func(ctx context.Context) error { return updateMember(ctx, db, member.ID, previous) },
	})

	if member.GroupID != nil {
		var siblings []models.TeamMember
		err := db.WithContext(ctx).
			Where("group_id = ? AND id <> ?", *member.GroupID, member.ID).
			Order("group_order").Order("id").
			Find(&siblings).Error
		if err != nil {
			return nil, err
		}
		steps = append(steps, renumberStep(db, siblings))
	}

	saga := ordering.Saga{Steps: steps}
	if err := saga.Run(ctx); err != nil {
		return nil, sagaFailure(db, err)
	}

	return LoadMember(ctx, db, member.ID)
}

// ReorderWithinGroup sets groupOrder from the position of each id. Members of
// the group that are not listed are detached.
func ReorderWithinGroup(ctx context.Context, db *gorm.DB, groupID uint, memberIDs []uint) ([]models.TeamMember, error) {
	seen := make(map[uint]bool, len(memberIDs))
	for _, id := range memberIDs {
		if seen[id] {
			return nil, apperr.Validation("Duplicate member id %d", id)
		}
		seen[id] = true
	}

	if _, err := LoadGroup(ctx, db, groupID); err != nil {
		return nil, err
	}

	if len(memberIDs) > 0 {
		var found []uint
		if err := db.WithContext(ctx).Model(&models.TeamMember{}).Where("id IN ?", memberIDs).Pluck("id", &found).Error; err != nil {
			return nil, err
		}
		if len(found) != len(memberIDs) {
			exists := make(map[uint]bool, len(found))
			for _, id := range found {
				exists[id] = true
			}
			var missing []uint
			for _, id := range memberIDs {
				if !exists[id] {
					missing = append(missing, id)
				}
			}
			return nil, apperr.NotFound("Team member").WithDetails(map[string]any{"missing": missing})
		}
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sources []uint
		if len(memberIDs) > 0 {
			err := tx.Model(&models.TeamMember{}).
				Where("id IN ? AND group_id IS NOT NULL AND group_id <> ?", memberIDs, groupID).
				Distinct().Pluck("group_id", &sources).Error
			if err != nil {
				return err
			}
		}

		var current []models.TeamMember
		if err := tx.Where("group_id = ?", groupID).Order("group_order").Find(&current).Error; err != nil {
			return err
		}
		for _, m := range current {
			if seen[m.ID] {
				continue
			}
			next, err := ordering.NextOrder(tx, membersTable, "display_order", ungrouped)
			if err != nil {
				return err
			}
			err = tx.Model(&models.TeamMember{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
				"group_id":      nil,
				"group_order":   nil,
				"display_order": next,
			}).Error
			if err != nil {
				return err
			}
		}
		for i, id := range memberIDs {
			err := tx.Model(&models.TeamMember{}).Where("id = ?", id).Updates(map[string]interface{}{
				"group_id":    groupID,
				"group_order": i,
			}).Error
			if err != nil {
				return err
			}
		}

		// Adopted members leave gaps behind them.
		for _, source := range sources {
			left, err := GroupMembers(ctx, tx, source)
			if err != nil {
				return err
			}
			for i, m := range left {
				if m.GroupOrder != nil && *m.GroupOrder == i {
					continue
				}
				if err := tx.Model(&models.TeamMember{}).Where("id = ?", m.ID).Update("group_order", i).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.As(err)
	}

	return GroupMembers(ctx, db, groupID)
}

// SetFeatured marks exactly one member as featured in a single statement.
// A nil id clears the flag everywhere.
func SetFeatured(ctx context.Context, db *gorm.DB, memberID *uint) error {
	if memberID == nil {
		return database.WithRetry(ctx, func() error {
			return db.WithContext(ctx).Model(&models.TeamMember{}).
				Where("is_featured = ?", true).
				Update("is_featured", false).Error
		})
	}

	if _, err := LoadMember(ctx, db, *memberID); err != nil {
		return err
	}

	return database.WithRetry(ctx, func() error {
		return db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&models.TeamMember{}).
			Update("is_featured", gorm.Expr("CASE WHEN id = ? THEN ? ELSE ? END", *memberID, true, false)).Error
	})
}

func Featured(ctx context.Context, db *gorm.DB) (*models.TeamMember, error) {
	var m models.TeamMember
	err := db.WithContext(ctx).Where("is_featured = ?", true).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ensureUnclaimed rejects the first of orders already held by a member
// outside the payload.
func ensureUnclaimed(label string, orders, taken []int, groupID uint) error {
	held := make(map[int]bool, len(taken))
	for _, v := range taken {
		held[v] = true
	}
	for _, o := range orders {
		if !held[o] {
			continue
		}
		next := ordering.NextAvailableOrder(append(append([]int{}, taken...), orders...))
		details := map[string]any{"nextAvailable": next}
		if groupID != 0 {
			details["groupId"] = groupID
		}
		return apperr.Validation("%s %d is already used. Next available: %d", label, o, next).WithDetails(details)
	}
	return nil
}

type BulkItem struct {
	ID           uint  `json:"id"`
	GroupID      *uint `json:"groupId"`
	GroupOrder   *int  `json:"groupOrder"`
	DisplayOrder *int  `json:"displayOrder"`
}

// BulkUpdate validates the whole payload, then writes each row on its own.
func BulkUpdate(ctx context.Context, db *gorm.DB, items []BulkItem) ([]models.TeamMember, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("No members provided")
	}

	ids := make([]uint, 0, len(items))
	seen := map[uint]bool{}
	groupOrders := map[uint][]int{}

	for _, item := range items {
		if item.ID == 0 {
			return nil, apperr.Validation("Every item needs an id")
		}
		if seen[item.ID] {
			return nil, apperr.Validation("Duplicate member id %d", item.ID)
		}
		seen[item.ID] = true
		ids = append(ids, item.ID)

		if item.GroupID != nil {
			if item.GroupOrder == nil {
				return nil, apperr.Validation("groupOrder is required for member %d", item.ID)
			}
			groupOrders[*item.GroupID] = append(groupOrders[*item.GroupID], *item.GroupOrder)
		}
	}

	for groupID, orders := range groupOrders {
		if dups := ordering.FindDuplicates(orders); len(dups) > 0 {
			return nil, apperr.Validation("Duplicate groupOrder %d in group %d", dups[0], groupID)
		}
	}

	var current []models.TeamMember
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&current).Error; err != nil {
		return nil, err
	}
	if len(current) != len(ids) {
		return nil, apperr.NotFound("Team member")
	}
	currentOrder := make(map[uint]int, len(current))
	for _, m := range current {
		currentOrder[m.ID] = m.DisplayOrder
	}

	// Ungrouped items keep their displayOrder unless the payload sets one.
	var ungroupedOrders []int
	for _, item := range items {
		if item.GroupID != nil {
			continue
		}
		if item.DisplayOrder != nil {
			ungroupedOrders = append(ungroupedOrders, *item.DisplayOrder)
		} else {
			ungroupedOrders = append(ungroupedOrders, currentOrder[item.ID])
		}
	}
	if dups := ordering.FindDuplicates(ungroupedOrders); len(dups) > 0 {
		return nil, apperr.Validation("Duplicate displayOrder %d among ungrouped members", dups[0])
	}

	for groupID, orders := range groupOrders {
		if _, err := LoadGroup(ctx, db, groupID); err != nil {
			return nil, err
		}
		var taken []int
		err := db.WithContext(ctx).Model(&models.TeamMember{}).
			Where("group_id = ? AND id NOT IN ? AND group_order IS NOT NULL", groupID, ids).
			Pluck("group_order", &taken).Error
		if err != nil {
			return nil, err
		}
		if err := ensureUnclaimed("Group order", orders, taken, groupID); err != nil {
			return nil, err
		}
	}
	if len(ungroupedOrders) > 0 {
		var taken []int
		err := db.WithContext(ctx).Model(&models.TeamMember{}).
			Where("group_id IS NULL AND id NOT IN ?", ids).
			Pluck("display_order", &taken).Error
		if err != nil {
			return nil, err
		}
		if err := ensureUnclaimed("Display order", ungroupedOrders, taken, 0); err != nil {
			return nil, err
		}
	}

	var written []uint
	for _, item := range items {
		values := map[string]interface{}{}
		if item.GroupID != nil {
			values["group_id"] = *item.GroupID
			values["group_order"] = *item.GroupOrder
		} else {
			values["group_id"] = nil
			values["group_order"] = nil
		}
		if item.DisplayOrder != nil {
			values["display_order"] = *item.DisplayOrder
		}
		if err := updateMember(ctx, db, item.ID, values); err != nil {
			return nil, apperr.Upstream(fmt.Sprintf("Failed to update member %d", item.ID), err).
				WithDetails(map[string]any{"written": written})
		}
		written = append(written, item.ID)
	}

	var members []models.TeamMember
	if err := db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// SwapMembers swaps groupOrder inside one group, or displayOrder between two
// ungrouped members.
func SwapMembers(ctx context.Context, db *gorm.DB, idA, idB uint) error {
	if idA == 0 || idB == 0 {
		return apperr.Validation("idA and idB are required")
	}
	a, err := LoadMember(ctx, db, idA)
	if err != nil {
		return err
	}
	b, err := LoadMember(ctx, db, idB)
	if err != nil {
		return err
	}

	switch {
	case a.GroupID == nil && b.GroupID == nil:
		return ordering.Swap(ctx, db, membersTable, "display_order", idA, idB, ungrouped)
	case sameGroup(a.GroupID, b.GroupID):
		return ordering.Swap(ctx, db, membersTable, "group_order", idA, idB, inGroup(*a.GroupID))
	default:
		return apperr.Validation("Members must be in the same group to swap")
	}
}

// DeleteGroup detaches the group's members, then removes the group.
func DeleteGroup(ctx context.Context, db *gorm.DB, groupID uint) error {
	if _, err := LoadGroup(ctx, db, groupID); err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		members, err := GroupMembers(ctx, tx, groupID)
		if err != nil {
			return err
		}
		for _, m := range members {
			next, err := ordering.NextOrder(tx, membersTable, "display_order", ungrouped)
			if err != nil {
				return err
			}
			err = tx.Model(&models.TeamMember{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
				"group_id":      nil,
				"group_order":   nil,
				"display_order": next,
			}).Error
			if err != nil {
				return err
			}
		}
		return tx.Delete(&models.TeamGroup{}, groupID).Error
	})
}

// DeleteMember removes a member and closes the gap in its group.
func DeleteMember(ctx context.Context, db *gorm.DB, memberID uint) error {
	member, err := LoadMember(ctx, db, memberID)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Delete(&models.TeamMember{}, member.ID).Error; err != nil {
		return err
	}

	if member.GroupID != nil {
		siblings, err := GroupMembers(ctx, db, *member.GroupID)
		if err != nil {
			return err
		}
		if err := renumberStep(db, siblings).Do(ctx); err != nil {
			return apperr.Upstream("Member deleted but group order could not be compacted", err)
		}
	}
	return nil
}
