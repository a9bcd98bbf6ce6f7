// internal/jgrants/models.go
package jgrants

import (
	"fmt"

	"github.com/spf13/cast"
)

// Category names one of the attachment arrays carried by a subsidy record.
type Category string

const (
	CategoryApplicationGuidelines Category = "application_guidelines"
	CategoryOutlineOfGrant        Category = "outline_of_grant"
	CategoryApplicationForm       Category = "application_form"
)

// Categories lists every recognized category in record order.
var Categories = []Category{
	CategoryApplicationGuidelines,
	CategoryOutlineOfGrant,
	CategoryApplicationForm,
}

// ParseCategory accepts only the exact lower-case category names.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func (c Category) String() string {
	return string(c)
}

// CategoryNames returns the category names as strings, for schemas.
func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}

const (
	DefaultKeyword    = "補助金"
	SortAcceptanceEnd = "acceptance_end_datetime"
	OrderAscending    = "ASC"
	AcceptingOnly     = "1"
)

// SubsidyQuery is the listing search. Only the keyword varies.
type SubsidyQuery struct {
	Keyword string
}

func NewSubsidyQuery(keyword string) SubsidyQuery {
	return SubsidyQuery{Keyword: keyword}
}

// Params returns the query string parameters for the listing endpoint.
func (q SubsidyQuery) Params() map[string]string {
	return map[string]string{
		"keyword":    q.Keyword,
		"sort":       SortAcceptanceEnd,
		"order":      OrderAscending,
		"acceptance": AcceptingOnly,
	}
}

// Attachment is one document entry. The data payload is opaque and kept
// only to be dropped; URL is set once a download location is assigned.
// Keys that are not decoded, or that hold unexpected types, stay in Extra.
type Attachment struct {
	Name  *string
	Data  interface{}
	URL   string
	Extra map[string]interface{}

	hasData bool
	keys    []string
}

// HasData reports whether the attachment still carries its payload.
func (a Attachment) HasData() bool {
	return a.hasData
}

// Record is the first element of a detail response. Recognized categories
// that hold arrays are decoded into Attachments; every other key, including
// category keys holding non-array values, stays in Extra unchanged.
type Record struct {
	ID          string
	Attachments map[Category][]Attachment
	Extra       map[string]interface{}

	rawID interface{}
	hasID bool
	keys  []string
}

// AttachmentsOf returns the attachments of c and whether the category is
// present as an array.
func (r *Record) AttachmentsOf(c Category) ([]Attachment, bool) {
	list, ok := r.Attachments[c]
	return list, ok
}

// decodeRecord fails only on an id that is not a scalar or on an attachment
// element that is not an object.
func decodeRecord(o *Object) (*Record, error) {
	r := &Record{
		Attachments: map[Category][]Attachment{},
		Extra:       map[string]interface{}{},
		keys:        o.Keys(),
	}

	for _, key := range r.keys {
		value, _ := o.Get(key)

		if key == "id" {
			r.rawID = value
			r.hasID = true
			if value != nil {
				id, err := cast.ToStringE(value)
				if err != nil {
					return nil, fmt.Errorf("record id: %w", err)
				}
				r.ID = id
			}
			continue
		}

		c, recognized := ParseCategory(key)
		items, isArray := value.([]interface{})
		if !recognized || !isArray {
			r.Extra[key] = value
			continue
		}

		list := make([]Attachment, 0, len(items))
		for i, item := range items {
			obj, ok := item.(*Object)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: expected object, got %T", key, i, item)
			}
			list = append(list, decodeAttachment(obj))
		}
		r.Attachments[c] = list
	}

	return r, nil
}

func decodeAttachment(o *Object) Attachment {
	a := Attachment{Extra: map[string]interface{}{}, keys: o.Keys()}
	for _, key := range a.keys {
		value, _ := o.Get(key)
		switch key {
		case "data":
			a.Data = value
			a.hasData = true
			continue
		case "name":
			if s, ok := value.(string); ok {
				a.Name = &s
				continue
			}
		case "url":
			if s, ok := value.(string); ok {
				a.URL = s
				continue
			}
		}
		a.Extra[key] = value
	}
	return a
}

// ToObject rebuilds the record in upstream key order.
func (r *Record) ToObject() *Object {
	out := NewObject()
	for _, key := range r.keys {
		if key == "id" {
			if r.hasID {
				out.Set(key, r.rawID)
			}
			continue
		}
		if c, ok := ParseCategory(key); ok {
			if list, present := r.Attachments[c]; present {
				items := make([]interface{}, len(list))
				for i, a := range list {
					items[i] = a.ToObject()
				}
				out.Set(key, items)
				continue
			}
		}
		if v, ok := r.Extra[key]; ok {
			out.Set(key, v)
		}
	}
	return out
}

// ToObject rebuilds the attachment in upstream key order. A URL the upstream
// did not carry is appended last.
func (a Attachment) ToObject() *Object {
	out := NewObject()
	for _, key := range a.keys {
		switch {
		case key == "data":
			if a.hasData {
				out.Set(key, a.Data)
			}
		case key == "name" && a.Name != nil:
			out.Set(key, *a.Name)
		case key == "url" && a.URL != "":
			out.Set(key, a.URL)
		default:
			if v, ok := a.Extra[key]; ok {
				out.Set(key, v)
			}
		}
	}
	if a.URL != "" {
		out.Set("url", a.URL)
	}
	return out
}
