package team_test

import (
	"context"
	"testing"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/team"
	"github.com/Kyz7/sitecms/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func intPtr(v int) *int { return &v }

func seedGroup(t *testing.T, db *gorm.DB, name string, order int, members ...string) (models.TeamGroup, []models.TeamMember) {
	g := models.TeamGroup{Name: name, DisplayOrder: order}
	require.NoError(t, db.Create(&g).Error)

	out := make([]models.TeamMember, 0, len(members))
	for i, n := range members {
		m := models.TeamMember{Name: n, GroupID: &g.ID, GroupOrder: intPtr(i), IsActive: true}
		require.NoError(t, db.Create(&m).Error)
		out = append(out, m)
	}
	return g, out
}

func groupOrders(t *testing.T, db *gorm.DB, groupID uint) map[string]int {
	members, err := team.GroupMembers(context.Background(), db, groupID)
	require.NoError(t, err)
	out := map[string]int{}
	for _, m := range members {
		require.NotNil(t, m.GroupOrder)
		out[m.Name] = *m.GroupOrder
	}
	return out
}

func TestReassignGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Appends to target and compacts source", func(t *testing.T) {
		db := testutils.TestDB(t)
		a, am := seedGroup(t, db, "A", 0, "a0", "a1", "a2")
		b, _ := seedGroup(t, db, "B", 1, "b0", "b1")

		moved, err := team.ReassignGroup(ctx, db, am[1].ID, &b.ID)
		require.NoError(t, err)
		require.NotNil(t, moved.GroupID)
		assert.Equal(t, b.ID, *moved.GroupID)
		assert.Equal(t, 2, *moved.GroupOrder)

		assert.Equal(t, map[string]int{"a0": 0, "a2": 1}, groupOrders(t, db, a.ID))
		assert.Equal(t, map[string]int{"b0": 0, "b1": 1, "a1": 2}, groupOrders(t, db, b.ID))
	})

	t.Run("Success - Detach gives next ungrouped displayOrder", func(t *testing.T) {
		db := testutils.TestDB(t)
		a, am := seedGroup(t, db, "A", 0, "a0", "a1")
		require.NoError(t, db.Create(&models.TeamMember{Name: "solo", DisplayOrder: 0}).Error)

		moved, err := team.ReassignGroup(ctx, db, am[0].ID, nil)
		require.NoError(t, err)
		assert.Nil(t, moved.GroupID)
		assert.Nil(t, moved.GroupOrder)
		assert.Equal(t, 1, moved.DisplayOrder)
		assert.Equal(t, map[string]int{"a1": 0}, groupOrders(t, db, a.ID))
	})

	t.Run("Success - Same group is a no-op", func(t *testing.T) {
		db := testutils.TestDB(t)
		a, am := seedGroup(t, db, "A", 0, "a0", "a1")

		_, err := team.ReassignGroup(ctx, db, am[0].ID, &a.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a0": 0, "a1": 1}, groupOrders(t, db, a.ID))
	})

	t.Run("Success - Gap in target is compacted before append", func(t *testing.T) {
		db := testutils.TestDB(t)
		a, am := seedGroup(t, db, "A", 0, "a0", "a1")
		_, bm := seedGroup(t, db, "B", 1, "b0")
		require.NoError(t, db.Model(&models.TeamMember{}).Where("id = ?", am[1].ID).Update("group_order", 2).Error)

		moved, err := team.ReassignGroup(ctx, db, bm[0].ID, &a.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, *moved.GroupOrder)
		assert.Equal(t, map[string]int{"a0": 0, "a1": 1, "b0": 2}, groupOrders(t, db, a.ID))
	})

	t.Run("Success - Gap above the end needs no compaction", func(t *testing.T) {
		db := testutils.TestDB(t)
		a, am := seedGroup(t, db, "A", 0, "a0", "a1")
		_, bm := seedGroup(t, db, "B", 1, "b0")
		require.NoError(t, db.Model(&models.TeamMember{}).Where("id = ?", am[1].ID).Update("group_order", 5).Error)

		_, err := team.ReassignGroup(ctx, db, bm[0].ID, &a.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a0": 0, "a1": 5, "b0": 2}, groupOrders(t, db, a.ID))
	})

	t.Run("Error - Explicit order already held", func(t *testing.T) {
		db := testutils.TestDB(t)
		a, am := seedGroup(t, db, "A", 0, "a0")
		b, _ := seedGroup(t, db, "B", 1, "b0")

		_, err := team.ReassignGroupAt(ctx, db, am[0].ID, &b.ID, intPtr(0))
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, map[string]int{"a0": 0}, groupOrders(t, db, a.ID))
		assert.Equal(t, map[string]int{"b0": 0}, groupOrders(t, db, b.ID))

		moved, err := team.ReassignGroupAt(ctx, db, am[0].ID, &b.ID, intPtr(3))
		require.NoError(t, err)
		assert.Equal(t, 3, *moved.GroupOrder)
		assert.Equal(t, map[string]int{"b0": 0, "a0": 3}, groupOrders(t, db, b.ID))
	})

	t.Run("Error - Unknown member or group", func(t *testing.T) {
		db := testutils.TestDB(t)
		a, am := seedGroup(t, db, "A", 0, "a0")

		_, err := team.ReassignGroup(ctx, db, 999, &a.ID)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

		missing := uint(999)
		_, err = team.ReassignGroup(ctx, db, am[0].ID, &missing)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, map[string]int{"a0": 0}, groupOrders(t, db, a.ID))
	})
}

func TestReorderWithinGroup(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	a, am := seedGroup(t, db, "A", 0, "a0", "a1", "a2")
	_, bm := seedGroup(t, db, "B", 1, "b0")

	t.Run("Error - Duplicate ids", func(t *testing.T) {
		_, err := team.ReorderWithinGroup(ctx, db, a.ID, []uint{am[0].ID, am[0].ID})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("Error - Unknown id", func(t *testing.T) {
		_, err := team.ReorderWithinGroup(ctx, db, a.ID, []uint{am[0].ID, 999})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, map[string]int{"a0": 0, "a1": 1, "a2": 2}, groupOrders(t, db, a.ID))
	})

	t.Run("Success - Reorder, adopt and detach", func(t *testing.T) {
		members, err := team.ReorderWithinGroup(ctx, db, a.ID, []uint{am[2].ID, bm[0].ID, am[0].ID})
		require.NoError(t, err)
		assert.Len(t, members, 3)
		assert.Equal(t, map[string]int{"a2": 0, "b0": 1, "a0": 2}, groupOrders(t, db, a.ID))

		var detached models.TeamMember
		require.NoError(t, db.First(&detached, am[1].ID).Error)
		assert.Nil(t, detached.GroupID)
		assert.Nil(t, detached.GroupOrder)
	})
}

func TestReorderWithinGroupCompactsSourceGroup(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	a, am := seedGroup(t, db, "A", 0, "a0")
	b, bm := seedGroup(t, db, "B", 1, "b0", "b1", "b2")

	_, err := team.ReorderWithinGroup(ctx, db, a.ID, []uint{am[0].ID, bm[1].ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a0": 0, "b1": 1}, groupOrders(t, db, a.ID))
	assert.Equal(t, map[string]int{"b0": 0, "b2": 1}, groupOrders(t, db, b.ID))
}

func featuredCount(t *testing.T, db *gorm.DB) int64 {
	var n int64
	require.NoError(t, db.Model(&models.TeamMember{}).Where("is_featured = ?", true).Count(&n).Error)
	return n
}

func TestSetFeatured(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	_, am := seedGroup(t, db, "A", 0, "a0", "a1", "a2")

	sequence := []*uint{&am[0].ID, &am[1].ID, &am[1].ID, nil, &am[2].ID, &am[0].ID}
	for _, id := range sequence {
		require.NoError(t, team.SetFeatured(ctx, db, id))
		n := featuredCount(t, db)
		assert.LessOrEqual(t, n, int64(1))

		featured, err := team.Featured(ctx, db)
		require.NoError(t, err)
		if id == nil {
			assert.Zero(t, n)
			assert.Nil(t, featured)
		} else {
			require.NotNil(t, featured)
			assert.Equal(t, *id, featured.ID)
		}
	}

	t.Run("Error - Unknown id leaves current featured", func(t *testing.T) {
		missing := uint(999)
		err := team.SetFeatured(ctx, db, &missing)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

		featured, err := team.Featured(ctx, db)
		require.NoError(t, err)
		require.NotNil(t, featured)
		assert.Equal(t, am[0].ID, featured.ID)
	})
}

func TestBulkUpdate(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	a, am := seedGroup(t, db, "A", 0, "a0", "a1")
	b, _ := seedGroup(t, db, "B", 1)

	t.Run("Error - Duplicate groupOrder in payload", func(t *testing.T) {
		_, err := team.BulkUpdate(ctx, db, []team.BulkItem{
			{ID: am[0].ID, GroupID: &a.ID, GroupOrder: intPtr(1)},
			{ID: am[1].ID, GroupID: &a.ID, GroupOrder: intPtr(1)},
		})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, map[string]int{"a0": 0, "a1": 1}, groupOrders(t, db, a.ID))
	})

	t.Run("Error - Unknown id", func(t *testing.T) {
		_, err := team.BulkUpdate(ctx, db, []team.BulkItem{
			{ID: am[0].ID, GroupID: &b.ID, GroupOrder: intPtr(0)},
			{ID: 999, GroupID: &a.ID, GroupOrder: intPtr(0)},
		})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Empty(t, groupOrders(t, db, b.ID))
	})

	t.Run("Success - Writes every row", func(t *testing.T) {
		members, err := team.BulkUpdate(ctx, db, []team.BulkItem{
			{ID: am[0].ID, GroupID: &b.ID, GroupOrder: intPtr(0)},
			{ID: am[1].ID, DisplayOrder: intPtr(4)},
		})
		require.NoError(t, err)
		assert.Len(t, members, 2)
		assert.Equal(t, map[string]int{"a0": 0}, groupOrders(t, db, b.ID))

		var m models.TeamMember
		require.NoError(t, db.First(&m, am[1].ID).Error)
		assert.Nil(t, m.GroupID)
		assert.Equal(t, 4, m.DisplayOrder)
	})
}

func TestBulkUpdateRejectsOrdersHeldOutsidePayload(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	a, am := seedGroup(t, db, "A", 0, "x")
	y := models.TeamMember{Name: "y", DisplayOrder: 0}
	z := models.TeamMember{Name: "z", DisplayOrder: 1}
	require.NoError(t, db.Create(&y).Error)
	require.NoError(t, db.Create(&z).Error)

	displayOrder := func(id uint) int {
		var m models.TeamMember
		require.NoError(t, db.First(&m, id).Error)
		return m.DisplayOrder
	}

	t.Run("Error - groupOrder held by a member of the group", func(t *testing.T) {
		_, err := team.BulkUpdate(ctx, db, []team.BulkItem{{ID: y.ID, GroupID: &a.ID, GroupOrder: intPtr(0)}})
		require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "Next available: 1")
		assert.Equal(t, map[string]int{"x": 0}, groupOrders(t, db, a.ID))
	})

	t.Run("Error - displayOrder held by an ungrouped member", func(t *testing.T) {
		_, err := team.BulkUpdate(ctx, db, []team.BulkItem{{ID: y.ID, DisplayOrder: intPtr(1)}})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, 0, displayOrder(y.ID))
	})

	t.Run("Error - Detached member keeps a held displayOrder", func(t *testing.T) {
		_, err := team.BulkUpdate(ctx, db, []team.BulkItem{{ID: am[0].ID}})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, map[string]int{"x": 0}, groupOrders(t, db, a.ID))
	})

	t.Run("Success - Orders exchanged inside the payload", func(t *testing.T) {
		_, err := team.BulkUpdate(ctx, db, []team.BulkItem{
			{ID: am[0].ID, GroupID: &a.ID, GroupOrder: intPtr(1)},
			{ID: y.ID, GroupID: &a.ID, GroupOrder: intPtr(0)},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"y": 0, "x": 1}, groupOrders(t, db, a.ID))
	})
}

func TestSwapMembers(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	a, am := seedGroup(t, db, "A", 0, "a0", "a1")
	_, bm := seedGroup(t, db, "B", 1, "b0")

	require.NoError(t, team.SwapMembers(ctx, db, am[0].ID, am[1].ID))
	assert.Equal(t, map[string]int{"a0": 1, "a1": 0}, groupOrders(t, db, a.ID))

	err := team.SwapMembers(ctx, db, am[0].ID, bm[0].ID)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDeleteGroupDetachesMembers(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	a, am := seedGroup(t, db, "A", 0, "a0", "a1")
	require.NoError(t, db.Create(&models.TeamMember{Name: "solo", DisplayOrder: 0}).Error)

	require.NoError(t, team.DeleteGroup(ctx, db, a.ID))

	var members []models.TeamMember
	require.NoError(t, db.Where("id IN ?", []uint{am[0].ID, am[1].ID}).Order("id").Find(&members).Error)
	require.Len(t, members, 2)
	assert.Nil(t, members[0].GroupID)
	assert.Equal(t, 1, members[0].DisplayOrder)
	assert.Equal(t, 2, members[1].DisplayOrder)

	var groups int64
	db.Model(&models.TeamGroup{}).Count(&groups)
	assert.Zero(t, groups)
}

func TestDeleteMemberCompactsGroup(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	a, am := seedGroup(t, db, "A", 0, "a0", "a1", "a2")

	require.NoError(t, team.DeleteMember(ctx, db, am[0].ID))
	assert.Equal(t, map[string]int{"a1": 0, "a2": 1}, groupOrders(t, db, a.ID))
}
