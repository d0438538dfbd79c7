// Package search looks up admin content by text across the CMS tables.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Kyz7/sitecms/internal/apperr"
	"gorm.io/gorm"
)

const (
	MinQueryLength = 2
	DefaultLimit   = 10
	MaxLimit       = 50
	snippetWidth   = 120
)

// Target is one searchable table. TitleColumn labels a hit; Columns are matched.
type Target struct {
	Kind        string
	Table       string
	TitleColumn string
	Columns     []string
}

var Targets = []Target{
	{"boardMembers", "board_members", "name", []string{"name", "position", "bio"}},
	{"projects", "projects", "title", []string{"title", "summary", "description", "location", "category"}},
	{"gallery", "gallery_images", "title", []string{"title", "caption", "category"}},
	{"carousel", "carousel_items", "title", []string{"title", "subtitle"}},
	{"ticker", "ticker_items", "text", []string{"text"}},
	{"services", "services", "title", []string{"title", "summary", "description"}},
	{"shop", "shop_items", "name", []string{"name", "description"}},
	{"teamGroups", "team_groups", "name", []string{"name", "description"}},
	{"teamMembers", "team_members", "name", []string{"name", "position", "bio", "email"}},
	{"messages", "contact_messages", "name", []string{"name", "email", "company", "subject", "message"}},
	{"images", "images", "filename", []string{"filename", "title"}},
	{"media", "media", "url", []string{"url", "title"}},
}

type Params struct {
	Query string
	Kinds []string
	Limit int
}

type Hit struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Field   string `json:"field"`
	Snippet string `json:"snippet"`
}

type Result struct {
	Query  string         `json:"query"`
	Hits   []Hit          `json:"hits"`
	Counts map[string]int `json:"counts"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (p *Params) normalize() ([]Target, error) {
	p.Query = strings.TrimSpace(p.Query)
	if utf8.RuneCountInString(p.Query) < MinQueryLength {
		return nil, apperr.Validation("q must be at least %d characters", MinQueryLength)
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if len(p.Kinds) == 0 {
		return Targets, nil
	}
	byKind := make(map[string]Target, len(Targets))
	for _, t := range Targets {
		byKind[t.Kind] = t
	}
	var out []Target
	for _, k := range p.Kinds {
		t, ok := byKind[strings.TrimSpace(k)]
		if !ok {
			return nil, apperr.Validation("Unknown search kind %q", k)
		}
		out = append(out, t)
	}
	return out, nil
}

// Search matches the query as a case-insensitive substring of each target's
// columns. Each kind returns at most Limit hits, newest first.
func Search(ctx context.Context, db *gorm.DB, params Params) (*Result, error) {
	targets, err := params.normalize()
	if err != nil {
		return nil, err
	}

	op := "LIKE"
	if db.Dialector.Name() == "postgres" {
		op = "ILIKE"
	}
	pattern := "%" + likeEscaper.Replace(params.Query) + "%"

	result := &Result{Query: params.Query, Hits: []Hit{}, Counts: map[string]int{}}
	for _, t := range targets {
		var conditions []string
		var args []interface{}
		for _, col := range t.Columns {
			conditions = append(conditions, fmt.Sprintf(`%s %s ? ESCAPE '\'`, col, op))
			args = append(args, pattern)
		}

		var rows []map[string]interface{}
		err := db.WithContext(ctx).Table(t.Table).
			Select(append([]string{"id"}, t.Columns...)).
			Where(strings.Join(conditions, " OR "), args...).
			Order("created_at DESC").
			Limit(params.Limit).
			Find(&rows).Error
		if err != nil {
			return nil, apperr.Upstream("Search failed", err)
		}

		for _, row := range rows {
			hit := Hit{Kind: t.Kind, ID: text(row["id"]), Title: text(row[t.TitleColumn])}
			for _, col := range t.Columns {
				if v := text(row[col]); containsFold(v, params.Query) {
					hit.Field = col
					hit.Snippet = Snippet(v, params.Query, snippetWidth)
					break
				}
			}
			result.Hits = append(result.Hits, hit)
		}
		result.Counts[t.Kind] = len(rows)
	}
	return result, nil
}

func text(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Snippet returns about width runes of text centred on the first match of
// query, with an ellipsis on each cut side.
func Snippet(text, query string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}

	lower := []rune(strings.ToLower(text))
	q := []rune(strings.ToLower(query))
	idx := 0
	if len(lower) == len(runes) {
		if i := indexRunes(lower, q); i >= 0 {
			idx = i
		}
	}

	start := idx - (width-len(q))/2
	if start < 0 {
		start = 0
	}
	end := start + width
	if end > len(runes) {
		end = len(runes)
		start = max(0, end-width)
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out += "…"
	}
	return out
}

func indexRunes(s, sub []rune) int {
	if len(sub) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if s[i+j] != sub[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
