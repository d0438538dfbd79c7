package team

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/ordering"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/Kyz7/sitecms/internal/sanitize"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GroupRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"displayOrder"`
}

type MemberRequest struct {
	Name         *string `json:"name"`
	Position     *string `json:"position"`
	Bio          *string `json:"bio"`
	ImageURL     *string `json:"imageUrl"`
	Email        *string `json:"email"`
	LinkedInURL  *string `json:"linkedinUrl"`
	GroupID      *uint   `json:"groupId"`
	GroupOrder   *int    `json:"groupOrder"`
	DisplayOrder *int    `json:"displayOrder"`
	IsActive     *bool   `json:"isActive"`
}

// Register mounts the team-groups and team-members routes.
func Register(api fiber.Router, protected fiber.Handler) {
	groups := api.Group("/team-groups")
	groups.Get("/", ListGroupsHandler)
	groups.Get("/next-order", protected, NextGroupOrderHandler)
	groups.Post("/swap", protected, SwapGroupsHandler)
	groups.Get("/:id", GetGroupHandler)
	groups.Post("/", protected, CreateGroupHandler)
	groups.Put("/:id", protected, UpdateGroupHandler)
	groups.Delete("/:id", protected, DeleteGroupHandler)
	groups.Get("/:id/members", GroupMembersHandler)
	groups.Put("/:id/members", protected, ReorderMembersHandler)
	groups.Post("/:id/members", protected, AddMemberHandler)
	groups.Delete("/:id/members/:memberId", protected, RemoveMemberHandler)

	members := api.Group("/team-members")
	members.Get("/", ListMembersHandler)
	members.Get("/next-order", protected, NextMemberOrderHandler)
	members.Put("/featured", protected, SetFeaturedHandler)
	members.Put("/bulk", protected, BulkUpdateHandler)
	members.Post("/swap", protected, SwapMembersHandler)
	members.Get("/:id", GetMemberHandler)
	members.Post("/", protected, CreateMemberHandler)
	members.Put("/:id", protected, UpdateMemberHandler)
	members.Delete("/:id", protected, DeleteMemberHandler)
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func plain(s *string) string {
	if s == nil {
		return ""
	}
	return sanitize.Plain(*s)
}

// Groups

func ListGroupsHandler(c *fiber.Ctx) error {
	activeOnly := c.Query("active") == "true"
	var groups []models.TeamGroup
	err := database.DB.Preload("Members", func(db *gorm.DB) *gorm.DB {
		if activeOnly {
			db = db.Where("is_active = ?", true)
		}
		return db.Order("group_order").Order("id")
	}).Order("display_order").Order("id").Find(&groups).Error
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, groups, "")
}

func GetGroupHandler(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid group ID", nil)
	}

	group, err := LoadGroup(c.UserContext(), database.DB, id)
	if err != nil {
		return response.FromError(c, err)
	}
	if group.Members, err = GroupMembers(c.UserContext(), database.DB, id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, group, "")
}

func NextGroupOrderHandler(c *fiber.Ctx) error {
	next, err := ordering.NextOrder(database.DB, groupsTable, "display_order", nil)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"nextOrder": next}, "")
}

func CreateGroupHandler(c *fiber.Ctx) error {
	var req GroupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	name := plain(req.Name)
	if name == "" {
		return response.ValidationError(c, map[string]string{"name": "name is required"})
	}

	if req.DisplayOrder == nil {
		next, err := ordering.NextOrder(database.DB, groupsTable, "display_order", nil)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.BadRequest(c, fmt.Sprintf("displayOrder is required. Next available: %d", next),
			fiber.Map{"nextAvailable": next})
	}
	if err := ordering.EnsureOrderAvailable(database.DB, groupsTable, "display_order", *req.DisplayOrder, 0, nil); err != nil {
		return response.FromError(c, err)
	}

	group := models.TeamGroup{
		Name:         name,
		Description:  plain(req.Description),
		DisplayOrder: *req.DisplayOrder,
	}
	if err := database.DB.Create(&group).Error; err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, group, "Team group created successfully")
}

func UpdateGroupHandler(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid group ID", nil)
	}

	var req GroupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	group, err := LoadGroup(c.UserContext(), database.DB, id)
	if err != nil {
		return response.FromError(c, err)
	}

	if req.Name != nil {
		if group.Name = plain(req.Name); group.Name == "" {
			return response.ValidationError(c, map[string]string{"name": "name cannot be empty"})
		}
	}
	if req.Description != nil {
		group.Description = plain(req.Description)
	}
	if req.DisplayOrder != nil {
		if err := ordering.EnsureOrderAvailable(database.DB, groupsTable, "display_order", *req.DisplayOrder, id, nil); err != nil {
			return response.FromError(c, err)
		}
		group.DisplayOrder = *req.DisplayOrder
	}

	err = database.DB.Model(group).Select("name", "description", "display_order", "updated_at").Updates(group).Error
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, group, "Team group updated successfully")
}

func DeleteGroupHandler(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid group ID", nil)
	}

	if err := DeleteGroup(c.UserContext(), database.DB, id); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, nil, "Team group deleted successfully")
}

func SwapGroupsHandler(c *fiber.Ctx) error {
	var body struct {
		IDA uint `json:"idA"`
		IDB uint `json:"idB"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	if err := ordering.Swap(c.UserContext(), database.DB, groupsTable, "display_order", body.IDA, body.IDB, nil); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return response.NotFound(c, "Team group")
		}
		return response.FromError(c, err)
	}
	return ListGroupsHandler(c)
}

func GroupMembersHandler(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid group ID", nil)
	}

	if _, err := LoadGroup(c.UserContext(), database.DB, id); err != nil {
		return response.FromError(c, err)
	}
	members, err := GroupMembers(c.UserContext(), database.DB, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, members, "")
}

func ReorderMembersHandler(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid group ID", nil)
	}

	var body struct {
		MemberIDs []uint `json:"memberIds"`
	}
	if err := c.BodyParser(&body); err != nil || body.MemberIDs == nil {
		return response.BadRequest(c, "memberIds must be an array", nil)
	}

	members, err := ReorderWithinGroup(c.UserContext(), database.DB, id, body.MemberIDs)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, members, "Group order updated")
}

func AddMemberHandler(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid group ID", nil)
	}

	var body struct {
		MemberID uint `json:"memberId"`
	}
	if err := c.BodyParser(&body); err != nil || body.MemberID == 0 {
		return response.BadRequest(c, "memberId is required", nil)
	}

	member, err := ReassignGroup(c.UserContext(), database.DB, body.MemberID, &id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, member, "Member added to group")
}

func RemoveMemberHandler(c *fiber.Ctx) error {
	groupID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid group ID", nil)
	}
	memberID, ok := paramID(c, "memberId")
	if !ok {
		return response.BadRequest(c, "Invalid member ID", nil)
	}

	member, err := LoadMember(c.UserContext(), database.DB, memberID)
	if err != nil {
		return response.FromError(c, err)
	}
	if member.GroupID == nil || *member.GroupID != groupID {
		return response.NotFound(c, "Team member in group")
	}

	member, err = ReassignGroup(c.UserContext(), database.DB, memberID, nil)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, member, "Member removed from group")
}

// Members

func ListMembersHandler(c *fiber.Ctx) error {
	q := database.DB.Model(&models.TeamMember{})
	if c.Query("active") == "true" {
		q = q.Where("is_active = ?", true)
	}
	if c.Query("ungrouped") == "true" {
		q = q.Where("group_id IS NULL")
	}
	if gid := c.QueryInt("groupId", 0); gid > 0 {
		q = q.Where("group_id = ?", gid).Order("group_order")
	}

	var members []models.TeamMember
	if err := q.Order("display_order").Order("id").Find(&members).Error; err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, members, "")
}

func GetMemberHandler(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID", nil)
	}

	member, err := LoadMember(c.UserContext(), database.DB, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, member, "")
}

// NextMemberOrderHandler reports the next groupOrder for ?groupId=, or the
// next ungrouped displayOrder.
func NextMemberOrderHandler(c *fiber.Ctx) error {
	var (
		next int
		err  error
	)
	if gid := c.QueryInt("groupId", 0); gid > 0 {
		next, err = ordering.NextOrder(database.DB, membersTable, "group_order", inGroup(uint(gid)))
	} else {
		next, err = ordering.NextOrder(database.DB, membersTable, "display_order", ungrouped)
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"nextOrder": next}, "")
}

// applyMember copies the provided text fields of req onto m.
func applyMember(m *models.TeamMember, req *MemberRequest) error {
	for key, u := range map[string]*string{"imageUrl": req.ImageURL, "linkedinUrl": req.LinkedInURL} {
		if u != nil && !sanitize.SafeURL(*u) {
			return apperr.Validation("%s must be an http(s) or site-relative URL", key)
		}
	}

	if req.Name != nil {
		m.Name = plain(req.Name)
	}
	if req.Position != nil {
		m.Position = plain(req.Position)
	}
	if req.Bio != nil {
		m.Bio = sanitize.Rich(*req.Bio)
	}
	if req.ImageURL != nil {
		m.ImageURL = *req.ImageURL
	}
	if req.Email != nil {
		m.Email = plain(req.Email)
	}
	if req.LinkedInURL != nil {
		m.LinkedInURL = *req.LinkedInURL
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	return nil
}

func CreateMemberHandler(c *fiber.Ctx) error {
	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	member := models.TeamMember{IsActive: true}
	if err := applyMember(&member, &req); err != nil {
		return response.FromError(c, err)
	}
	if member.Name == "" {
		return response.ValidationError(c, map[string]string{"name": "name is required"})
	}

	ctx := c.UserContext()
	if req.GroupID != nil {
		if _, err := LoadGroup(ctx, database.DB, *req.GroupID); err != nil {
			return response.FromError(c, err)
		}
		scope := inGroup(*req.GroupID)
		order := 0
		if req.GroupOrder != nil {
			order = *req.GroupOrder
			if err := ordering.EnsureOrderAvailable(database.DB, membersTable, "group_order", order, 0, scope); err != nil {
				return response.FromError(c, err)
			}
		} else {
			next, err := ordering.NextOrder(database.DB, membersTable, "group_order", scope)
			if err != nil {
				return response.FromError(c, err)
			}
			order = next
		}
		member.GroupID = req.GroupID
		member.GroupOrder = &order
		if req.DisplayOrder != nil {
			member.DisplayOrder = *req.DisplayOrder
		}
	} else {
		if req.DisplayOrder == nil {
			next, err := ordering.NextOrder(database.DB, membersTable, "display_order", ungrouped)
			if err != nil {
				return response.FromError(c, err)
			}
			return response.BadRequest(c, fmt.Sprintf("displayOrder is required. Next available: %d", next),
				fiber.Map{"nextAvailable": next})
		}
		if err := ordering.EnsureOrderAvailable(database.DB, membersTable, "display_order", *req.DisplayOrder, 0, ungrouped); err != nil {
			return response.FromError(c, err)
		}
		member.DisplayOrder = *req.DisplayOrder
	}

	err := database.WithRetry(ctx, func() error {
		return database.DB.Create(&member).Error
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, member, "Team member created successfully")
}

func UpdateMemberHandler(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID", nil)
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	var req MemberRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return response.BadRequest(c, "Invalid field value", err.Error())
	}

	ctx := c.UserContext()
	member, err := LoadMember(ctx, database.DB, id)
	if err != nil {
		return response.FromError(c, err)
	}

	// A present groupId (including null) moves the member, but only after the
	// rest of the request has been validated against the destination.
	_, hasGroup := raw["groupId"]
	moving := hasGroup && !sameGroup(member.GroupID, req.GroupID)
	destination := member.GroupID
	if moving {
		destination = req.GroupID
		if destination != nil {
			if _, err := LoadGroup(ctx, database.DB, *destination); err != nil {
				return response.FromError(c, err)
			}
		}
	}

	if err := applyMember(member, &req); err != nil {
		return response.FromError(c, err)
	}
	if req.Name != nil && member.Name == "" {
		return response.ValidationError(c, map[string]string{"name": "name cannot be empty"})
	}
	if req.GroupOrder != nil && destination != nil {
		if err := ordering.EnsureOrderAvailable(database.DB, membersTable, "group_order", *req.GroupOrder, id, inGroup(*destination)); err != nil {
			return response.FromError(c, err)
		}
	}
	if req.DisplayOrder != nil && destination == nil {
		if err := ordering.EnsureOrderAvailable(database.DB, membersTable, "display_order", *req.DisplayOrder, id, ungrouped); err != nil {
			return response.FromError(c, err)
		}
	}

	if moving {
		moved, err := ReassignGroupAt(ctx, database.DB, id, req.GroupID, req.GroupOrder)
		if err != nil {
			return response.FromError(c, err)
		}
		member.GroupID = moved.GroupID
		member.GroupOrder = moved.GroupOrder
		member.DisplayOrder = moved.DisplayOrder
	}
	if req.GroupOrder != nil && member.GroupID != nil {
		member.GroupOrder = req.GroupOrder
	}
	if req.DisplayOrder != nil {
		member.DisplayOrder = *req.DisplayOrder
	}

	err = database.WithRetry(ctx, func() error {
		return database.DB.Model(member).
			Select("name", "position", "bio", "image_url", "email", "linked_in_url",
				"group_order", "display_order", "is_active", "updated_at").
			Updates(member).Error
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, member, "Team member updated successfully")
}

func DeleteMemberHandler(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID", nil)
	}

	if err := DeleteMember(c.UserContext(), database.DB, id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, nil, "Team member deleted successfully")
}

func SetFeaturedHandler(c *fiber.Ctx) error {
	var body struct {
		MemberID *uint `json:"memberId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	if err := SetFeatured(c.UserContext(), database.DB, body.MemberID); err != nil {
		return response.FromError(c, err)
	}

	featured, err := Featured(c.UserContext(), database.DB)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"featured": featured}, "Featured member updated")
}

func BulkUpdateHandler(c *fiber.Ctx) error {
	// Accepts a bare array or {"members": [...]}.
	var items []BulkItem
	raw := bytes.TrimSpace(c.Body())
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return response.BadRequest(c, "Invalid request body", nil)
		}
	} else {
		var body struct {
			Members []BulkItem `json:"members"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return response.BadRequest(c, "Invalid request body", nil)
		}
		items = body.Members
	}

	members, err := BulkUpdate(c.UserContext(), database.DB, items)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, members, "Team members updated")
}

func SwapMembersHandler(c *fiber.Ctx) error {
	var body struct {
		IDA uint `json:"idA"`
		IDB uint `json:"idB"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	if err := SwapMembers(c.UserContext(), database.DB, body.IDA, body.IDB); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, nil, "Order swapped")
}
