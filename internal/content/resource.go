package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/ordering"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/Kyz7/sitecms/internal/sanitize"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const orderColumn = "display_order"

var readOnlyKeys = map[string]bool{"id": true, "createdAt": true, "updatedAt": true}

// Registrar mounts a resource's routes and exposes it to the public and
// dashboard aggregates.
type Registrar interface {
	Register(api fiber.Router, protected fiber.Handler)
	Key() string
	Table() string
	Active(db *gorm.DB) (interface{}, error)
}

// Resource serves CRUD, next-order and swap routes for one ordered list table.
type Resource[T any] struct {
	Name     string
	Path     string
	Required []string
	RichText []string

	table   string
	columns map[string]string // json key -> column
	rich    map[string]bool
}

func NewResource[T any](name, path string, required, richText []string) *Resource[T] {
	s, err := schema.Parse(new(T), &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		panic(fmt.Sprintf("content: parse %s schema: %v", name, err))
	}

	r := &Resource[T]{
		Name:     name,
		Path:     path,
		Required: required,
		RichText: richText,
		table:    s.Table,
		columns:  map[string]string{},
		rich:     map[string]bool{},
	}
	for _, f := range s.Fields {
		key := strings.Split(f.Tag.Get("json"), ",")[0]
		if key == "" || key == "-" || readOnlyKeys[key] || f.DBName == "" {
			continue
		}
		r.columns[key] = f.DBName
	}
	for _, key := range richText {
		r.rich[key] = true
	}
	return r
}

func (r *Resource[T]) Table() string { return r.table }

// Key is the camelCase form of Path, e.g. "boardMembers".
func (r *Resource[T]) Key() string {
	parts := strings.Split(strings.Trim(r.Path, "/"), "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// Active returns the active rows in display order.
func (r *Resource[T]) Active(db *gorm.DB) (interface{}, error) {
	items := []T{}
	q := db.Order(orderColumn).Order("id")
	if r.hasColumn("isActive") {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Resource[T]) Register(api fiber.Router, protected fiber.Handler) {
	g := api.Group(r.Path)
	g.Get("/", r.List)
	g.Get("/next-order", protected, r.NextOrder)
	g.Post("/swap", protected, r.Swap)
	g.Get("/:id", r.Get)
	g.Post("/", protected, r.Create)
	g.Put("/:id", protected, r.Update)
	g.Delete("/:id", protected, r.Delete)
}

// pick keeps recognised keys and sanitises their string values.
func (r *Resource[T]) pick(body map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(body))
	for key, val := range body {
		if _, ok := r.columns[key]; !ok {
			continue
		}
		if s, ok := val.(string); ok {
			if strings.HasSuffix(key, "Url") && !sanitize.SafeURL(s) {
				return nil, apperr.Validation("%s must be an http(s) or site-relative URL", key)
			}
			if r.rich[key] {
				val = sanitize.Rich(s)
			} else {
				val = sanitize.Plain(s)
			}
		}
		out[key] = val
	}
	return out, nil
}

func (r *Resource[T]) List(c *fiber.Ctx) error {
	var items []T
	q := database.DB.Order(orderColumn).Order("id")
	if c.Query("active") == "true" {
		q = q.Where("is_active = ?", true)
	}

	err := database.WithRetry(c.UserContext(), func() error {
		return q.Find(&items).Error
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, items, "")
}

func (r *Resource[T]) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid "+strings.ToLower(r.Name)+" ID", nil)
	}

	item, err := r.find(uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, item, "")
}

func (r *Resource[T]) NextOrder(c *fiber.Ctx) error {
	next, err := ordering.NextOrder(database.DB, r.table, orderColumn, nil)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"nextOrder": next}, "")
}

func (r *Resource[T]) Create(c *fiber.Ctx) error {
	body, err := decodeBody(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	fields, err := r.pick(body)
	if err != nil {
		return response.FromError(c, err)
	}

	missing := map[string]string{}
	for _, key := range r.Required {
		if s, _ := fields[key].(string); s == "" {
			missing[key] = key + " is required"
		}
	}
	if len(missing) > 0 {
		return response.ValidationError(c, missing)
	}

	raw, ok := fields["displayOrder"]
	if !ok || raw == nil {
		next, err := ordering.NextOrder(database.DB, r.table, orderColumn, nil)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.BadRequest(c, fmt.Sprintf("displayOrder is required. Next available: %d", next),
			fiber.Map{"nextAvailable": next})
	}
	order, err := AsInt(raw)
	if err != nil {
		return response.BadRequest(c, "displayOrder must be an integer", nil)
	}
	fields["displayOrder"] = order
	if _, ok := fields["isActive"]; !ok && r.hasColumn("isActive") {
		fields["isActive"] = true
	}

	item := new(T)
	if err := remarshal(fields, item); err != nil {
		return response.BadRequest(c, "Invalid field value", err.Error())
	}

	if err := ordering.EnsureOrderAvailable(database.DB, r.table, orderColumn, order, 0, nil); err != nil {
		return response.FromError(c, err)
	}

	err = database.WithRetry(c.UserContext(), func() error {
		return database.DB.Create(item).Error
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, item, r.Name+" created successfully")
}

func (r *Resource[T]) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid "+strings.ToLower(r.Name)+" ID", nil)
	}

	body, err := decodeBody(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	fields, err := r.pick(body)
	if err != nil {
		return response.FromError(c, err)
	}
	if len(fields) == 0 {
		return response.BadRequest(c, "No recognised fields to update", nil)
	}

	item, err := r.find(uint(id))
	if err != nil {
		return response.FromError(c, err)
	}

	if raw, ok := fields["displayOrder"]; ok {
		order, err := AsInt(raw)
		if err != nil {
			return response.BadRequest(c, "displayOrder must be an integer", nil)
		}
		fields["displayOrder"] = order
		if err := ordering.EnsureOrderAvailable(database.DB, r.table, orderColumn, order, uint(id), nil); err != nil {
			return response.FromError(c, err)
		}
	}

	for _, key := range r.Required {
		if v, ok := fields[key]; ok {
			if s, _ := v.(string); s == "" {
				return response.ValidationError(c, map[string]string{key: key + " cannot be empty"})
			}
		}
	}

	if err := remarshal(fields, item); err != nil {
		return response.BadRequest(c, "Invalid field value", err.Error())
	}

	cols := []string{"updated_at"}
	for key := range fields {
		cols = append(cols, r.columns[key])
	}

	err = database.WithRetry(c.UserContext(), func() error {
		return database.DB.Model(item).Select(cols).Updates(item).Error
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, item, r.Name+" updated successfully")
}

func (r *Resource[T]) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid "+strings.ToLower(r.Name)+" ID", nil)
	}

	var result *gorm.DB
	err = database.WithRetry(c.UserContext(), func() error {
		result = database.DB.Delete(new(T), id)
		return result.Error
	})
	if err != nil {
		return response.FromError(c, err)
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, r.Name)
	}

	return response.Success(c, nil, r.Name+" deleted successfully")
}

func (r *Resource[T]) Swap(c *fiber.Ctx) error {
	var body struct {
		IDA uint `json:"idA"`
		IDB uint `json:"idB"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	if err := ordering.Swap(c.UserContext(), database.DB, r.table, orderColumn, body.IDA, body.IDB, nil); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return response.NotFound(c, r.Name)
		}
		return response.FromError(c, err)
	}

	var items []T
	if err := database.DB.Order(orderColumn).Order("id").Find(&items).Error; err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, items, "Order swapped")
}

func (r *Resource[T]) find(id uint) (*T, error) {
	item := new(T)
	if err := database.DB.First(item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(r.Name)
		}
		return nil, err
	}
	return item, nil
}

func (r *Resource[T]) hasColumn(key string) bool {
	_, ok := r.columns[key]
	return ok
}

func decodeBody(c *fiber.Ctx) (map[string]interface{}, error) {
	body := map[string]interface{}{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return nil, err
	}
	return body, nil
}

func remarshal(fields map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// AsInt converts a decoded JSON number (or numeric string) to int.
func AsInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int(n), nil
	case int:
		return n, nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("not an integer: %v", v)
}
