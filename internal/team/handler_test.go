package team_test

import (
	"fmt"
	"testing"

	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, app *fiber.App, method, url string, body interface{}, token string) (int, testutils.StandardResponse) {
	resp, err := testutils.MakeRequest(app, method, url, body, token)
	require.NoError(t, err)
	var result testutils.StandardResponse
	testutils.ParseResponse(t, resp, &result)
	return resp.Code, result
}

func dataID(t *testing.T, result testutils.StandardResponse) uint {
	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok, "data is not an object: %#v", result.Data)
	return uint(data["id"].(float64))
}

func TestGroupHandlers(t *testing.T) {
	app := testutils.SetupTestApp(t)
	token := testutils.AdminToken(t)

	t.Run("Error - Missing displayOrder suggests next", func(t *testing.T) {
		code, result := post(t, app, "POST", "/api/team-groups", map[string]interface{}{"name": "Board"}, token)
		assert.Equal(t, 400, code)
		assert.Equal(t, "displayOrder is required. Next available: 0", result.Error)
	})

	code, result := post(t, app, "POST", "/api/team-groups", map[string]interface{}{"name": "Board", "displayOrder": 0}, token)
	require.Equal(t, 201, code)
	groupID := dataID(t, result)

	t.Run("Error - Duplicate displayOrder", func(t *testing.T) {
		code, result := post(t, app, "POST", "/api/team-groups", map[string]interface{}{"name": "Staff", "displayOrder": 0}, token)
		assert.Equal(t, 400, code)
		assert.Equal(t, "Display order 0 is already used. Next available: 1", result.Error)
	})

	t.Run("Success - Grouped members append", func(t *testing.T) {
		for i, name := range []string{"Ada", "Grace"} {
			code, result := post(t, app, "POST", "/api/team-members",
				map[string]interface{}{"name": name, "groupId": groupID}, token)
			require.Equal(t, 201, code, result.Error)
			data := result.Data.(map[string]interface{})
			assert.Equal(t, float64(i), data["groupOrder"])
		}

		code, result := post(t, app, "GET", fmt.Sprintf("/api/team-groups/%d", groupID), nil, "")
		assert.Equal(t, 200, code)
		members := result.Data.(map[string]interface{})["members"].([]interface{})
		assert.Len(t, members, 2)
	})

	t.Run("Success - Delete detaches members", func(t *testing.T) {
		code, _ := post(t, app, "DELETE", fmt.Sprintf("/api/team-groups/%d", groupID), nil, token)
		assert.Equal(t, 200, code)

		var grouped int64
		database.DB.Model(&models.TeamMember{}).Where("group_id IS NOT NULL").Count(&grouped)
		assert.Zero(t, grouped)

		var total int64
		database.DB.Model(&models.TeamMember{}).Count(&total)
		assert.Equal(t, int64(2), total)
	})
}

func TestMemberHandlers(t *testing.T) {
	app := testutils.SetupTestApp(t)
	token := testutils.AdminToken(t)

	_, result := post(t, app, "POST", "/api/team-groups", map[string]interface{}{"name": "A", "displayOrder": 0}, token)
	groupA := dataID(t, result)
	_, result = post(t, app, "POST", "/api/team-groups", map[string]interface{}{"name": "B", "displayOrder": 1}, token)
	groupB := dataID(t, result)

	var ids []uint
	for _, name := range []string{"a0", "a1", "a2"} {
		code, result := post(t, app, "POST", "/api/team-members", map[string]interface{}{"name": name, "groupId": groupA}, token)
		require.Equal(t, 201, code, result.Error)
		ids = append(ids, dataID(t, result))
	}

	t.Run("Error - Ungrouped without displayOrder", func(t *testing.T) {
		code, result := post(t, app, "POST", "/api/team-members", map[string]interface{}{"name": "solo"}, token)
		assert.Equal(t, 400, code)
		assert.Equal(t, "displayOrder is required. Next available: 0", result.Error)
	})

	t.Run("Error - Unsafe image URL", func(t *testing.T) {
		code, _ := post(t, app, "POST", "/api/team-members",
			map[string]interface{}{"name": "x", "displayOrder": 5, "imageUrl": "javascript:alert(1)"}, token)
		assert.Equal(t, 400, code)
	})

	t.Run("Success - Update groupId moves member", func(t *testing.T) {
		code, result := post(t, app, "PUT", fmt.Sprintf("/api/team-members/%d", ids[0]),
			map[string]interface{}{"groupId": groupB, "position": "Chair"}, token)
		require.Equal(t, 200, code, result.Error)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, float64(groupB), data["groupId"])
		assert.Equal(t, float64(0), data["groupOrder"])
		assert.Equal(t, "Chair", data["position"])

		code, result = post(t, app, "GET", fmt.Sprintf("/api/team-groups/%d/members", groupA), nil, "")
		require.Equal(t, 200, code)
		members := result.Data.([]interface{})
		require.Len(t, members, 2)
		for i, m := range members {
			assert.Equal(t, float64(i), m.(map[string]interface{})["groupOrder"])
		}
	})

	t.Run("Success - Null groupId detaches", func(t *testing.T) {
		code, result := post(t, app, "PUT", fmt.Sprintf("/api/team-members/%d", ids[0]),
			map[string]interface{}{"groupId": nil}, token)
		require.Equal(t, 200, code, result.Error)
		data := result.Data.(map[string]interface{})
		assert.Nil(t, data["groupId"])
		assert.Nil(t, data["groupOrder"])
	})

	t.Run("Error - Rejected update does not move member", func(t *testing.T) {
		load := func(id uint) models.TeamMember {
			var m models.TeamMember
			require.NoError(t, database.DB.First(&m, id).Error)
			return m
		}
		detached := load(ids[0])

		code, result := post(t, app, "PUT", fmt.Sprintf("/api/team-members/%d", ids[0]),
			map[string]interface{}{"groupId": groupA, "groupOrder": 0}, token)
		assert.Equal(t, 400, code)
		assert.Equal(t, "Group order 0 is already used. Next available: 2", result.Error)
		after := load(ids[0])
		assert.Nil(t, after.GroupID)
		assert.Equal(t, detached.DisplayOrder, after.DisplayOrder)

		for _, body := range []map[string]interface{}{
			{"groupId": groupB, "imageUrl": "javascript:alert(1)"},
			{"groupId": groupB, "name": ""},
		} {
			code, _ := post(t, app, "PUT", fmt.Sprintf("/api/team-members/%d", ids[1]), body, token)
			assert.Equal(t, 400, code)
			m := load(ids[1])
			require.NotNil(t, m.GroupID)
			assert.Equal(t, groupA, *m.GroupID)
			assert.Equal(t, 0, *m.GroupOrder)
		}

		var inB int64
		database.DB.Model(&models.TeamMember{}).Where("group_id = ?", groupB).Count(&inB)
		assert.Zero(t, inB)
	})

	t.Run("Success - Featured is exclusive", func(t *testing.T) {
		for _, id := range []uint{ids[1], ids[2]} {
			code, result := post(t, app, "PUT", "/api/team-members/featured", map[string]interface{}{"memberId": id}, token)
			require.Equal(t, 200, code, result.Error)
			featured := result.Data.(map[string]interface{})["featured"].(map[string]interface{})
			assert.Equal(t, float64(id), featured["id"])
		}

		var n int64
		database.DB.Model(&models.TeamMember{}).Where("is_featured = ?", true).Count(&n)
		assert.Equal(t, int64(1), n)

		code, _ := post(t, app, "PUT", "/api/team-members/featured", map[string]interface{}{"memberId": 999}, token)
		assert.Equal(t, 404, code)
		database.DB.Model(&models.TeamMember{}).Where("is_featured = ?", true).Count(&n)
		assert.Equal(t, int64(1), n)

		code, result := post(t, app, "PUT", "/api/team-members/featured", map[string]interface{}{"memberId": nil}, token)
		assert.Equal(t, 200, code)
		assert.Nil(t, result.Data.(map[string]interface{})["featured"])
	})

	t.Run("Error - Reorder with duplicate ids", func(t *testing.T) {
		code, result := post(t, app, "PUT", fmt.Sprintf("/api/team-groups/%d/members", groupA),
			map[string]interface{}{"memberIds": []uint{ids[1], ids[1]}}, token)
		assert.Equal(t, 400, code)
		assert.Equal(t, "VALIDATION_ERROR", result.Code)
	})

	t.Run("Error - Bulk duplicate groupOrder", func(t *testing.T) {
		body := []map[string]interface{}{
			{"id": ids[1], "groupId": groupA, "groupOrder": 0},
			{"id": ids[2], "groupId": groupA, "groupOrder": 0},
		}
		code, _ := post(t, app, "PUT", "/api/team-members/bulk", body, token)
		assert.Equal(t, 400, code)
	})

	t.Run("Error - Bulk groupOrder held outside payload", func(t *testing.T) {
		body := []map[string]interface{}{{"id": ids[0], "groupId": groupA, "groupOrder": 0}}
		code, result := post(t, app, "PUT", "/api/team-members/bulk", body, token)
		assert.Equal(t, 400, code)
		assert.Equal(t, "VALIDATION_ERROR", result.Code)

		var m models.TeamMember
		require.NoError(t, database.DB.First(&m, ids[0]).Error)
		assert.Nil(t, m.GroupID)
	})

	t.Run("Success - Swap within group", func(t *testing.T) {
		code, result := post(t, app, "POST", "/api/team-members/swap",
			map[string]interface{}{"idA": ids[1], "idB": ids[2]}, token)
		require.Equal(t, 200, code, result.Error)

		var m models.TeamMember
		require.NoError(t, database.DB.First(&m, ids[1]).Error)
		assert.Equal(t, 1, *m.GroupOrder)
	})

	t.Run("Error - Swap across groups", func(t *testing.T) {
		code, _ := post(t, app, "POST", "/api/team-members/swap",
			map[string]interface{}{"idA": ids[0], "idB": ids[1]}, token)
		assert.Equal(t, 400, code)
	})

	t.Run("Error - Remove member from wrong group", func(t *testing.T) {
		code, _ := post(t, app, "DELETE", fmt.Sprintf("/api/team-groups/%d/members/%d", groupB, ids[1]), nil, token)
		assert.Equal(t, 404, code)
	})

	t.Run("Error - Mutation requires token", func(t *testing.T) {
		code, _ := post(t, app, "DELETE", fmt.Sprintf("/api/team-members/%d", ids[1]), nil, "")
		assert.Equal(t, 401, code)

		var n int64
		database.DB.Model(&models.TeamMember{}).Count(&n)
		assert.Equal(t, int64(3), n)
	})
}
