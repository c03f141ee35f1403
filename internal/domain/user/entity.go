package user

import (
	"encoding/json"
	"fmt"
)

// JSON field names interpreted by this service. Everything else is carried in Extra.
const (
	FieldID        = "id"
	FieldFirstName = "firstName"
	FieldEmail     = "email"
)

// User represents a user record as exchanged with the users API.
type User struct {
	ID        int64  // ID is assigned by the API and never changes
	FirstName string // FirstName is the user's given name
	Email     string // Email is the user's email address

	// Extra holds every other JSON field returned by the API, untouched.
	Extra map[string]json.RawMessage
}

// Profile is the editable part of a user, sent as the body of create and update calls.
type Profile struct {
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
}

// Profile returns the editable fields of u.
func (u User) Profile() Profile {
	return Profile{FirstName: u.FirstName, Email: u.Email}
}

// MarshalJSON emits the known fields together with the preserved extra fields.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+3)
	for k, v := range u.Extra {
		out[k] = v
	}
	out[FieldID] = u.ID
	out[FieldFirstName] = u.FirstName
	out[FieldEmail] = u.Email
	return json.Marshal(out)
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out User
	if err := takeField(raw, FieldID, &out.ID); err != nil {
		return err
	}
	if err := takeField(raw, FieldFirstName, &out.FirstName); err != nil {
		return err
	}
	if err := takeField(raw, FieldEmail, &out.Email); err != nil {
		return err
	}
	if len(raw) > 0 {
		out.Extra = raw
	}

	*u = out
	return nil
}

func takeField(raw map[string]json.RawMessage, key string, dst any) error {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	delete(raw, key)
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("decode user field %q: %w", key, err)
	}
	return nil
}
