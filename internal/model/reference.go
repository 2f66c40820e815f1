package model

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// DisplayInfo is the populated part of a reference to a person or service.
type DisplayInfo struct {
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

// Reference points at a patient, doctor, nurse or service. The API sends either
// a bare id string or a populated object; Display is nil for the former.
type Reference struct {
	ID      string
	Display *DisplayInfo
}

// IDRef builds an unresolved reference.
func IDRef(id string) Reference {
	return Reference{ID: id}
}

// ResolvedRef builds a reference carrying display data.
func ResolvedRef(id string, info DisplayInfo) Reference {
	return Reference{ID: id, Display: &info}
}

// IsZero reports whether the reference was absent.
func (r Reference) IsZero() bool {
	return r.ID == "" && r.Display == nil
}

// IsResolved reports whether display data is present.
func (r Reference) IsResolved() bool {
	return r.Display != nil
}

type populatedRef struct {
	ID             string `json:"id"`
	MongoID        string `json:"_id"`
	Name           string `json:"name"`
	FullName       string `json:"full_name"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	FirstNameCamel string `json:"firstName"`
	LastNameCamel  string `json:"lastName"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Specialty      string `json:"specialty"`
	Specialization string `json:"specialization"`
}

func (p populatedRef) id() string {
	if p.ID != "" {
		return p.ID
	}
	return p.MongoID
}

func (p populatedRef) name() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.FullName != "":
		return p.FullName
	}
	first, last := p.FirstName, p.LastName
	if first == "" && last == "" {
		first, last = p.FirstNameCamel, p.LastNameCamel
	}
	return strings.TrimSpace(first + " " + last)
}

// UnmarshalJSON accepts null, a string id, or a populated object.
func (r *Reference) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Reference{}
		return nil
	}

	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = IDRef(id)
		return nil
	case '{':
		var p populatedRef
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		specialty := p.Specialty
		if specialty == "" {
			specialty = p.Specialization
		}
		*r = ResolvedRef(p.id(), DisplayInfo{
			Name:      p.name(),
			Phone:     p.Phone,
			Email:     p.Email,
			Specialty: specialty,
		})
		return nil
	default:
		return fmt.Errorf("reference must be a string, an object or null, got %s", string(data))
	}
}

// MarshalJSON writes the bare id when unresolved and an object otherwise.
func (r Reference) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	if r.Display == nil {
		return json.Marshal(r.ID)
	}
	return json.Marshal(struct {
		ID string `json:"id"`
		DisplayInfo
	}{ID: r.ID, DisplayInfo: *r.Display})
}
