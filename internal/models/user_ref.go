package models

import (
	"encoding/json"
	"strings"
)

// UserRef is a reference to a user that clients may send either as a bare id
// string or as an expanded user object. Every comparison must go through ID()
// so that the two forms are interchangeable.
type UserRef struct {
	id string
}

// NewUserRef builds a reference from a raw id.
func NewUserRef(id string) UserRef {
	return UserRef{id: strings.TrimSpace(id)}
}

// ID returns the canonical user id, or "" when the reference is empty.
func (r UserRef) ID() string {
	return r.id
}

// IsZero reports whether the reference carries no id.
func (r UserRef) IsZero() bool {
	return r.id == ""
}

// UnmarshalJSON accepts either "abc-123" or {"id": "abc-123", ...}.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		r.id = strings.TrimSpace(id)
		return nil
	}

	var expanded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &expanded); err != nil {
		return err
	}
	r.id = strings.TrimSpace(expanded.ID)
	return nil
}

// MarshalJSON always emits the canonical id form.
func (r UserRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.id)
}
