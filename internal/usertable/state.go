// Package usertable holds the view-model behind the user table: the fetched user list,
// the two-field form and the current edit target. Views render from a State snapshot and
// feed user input back through State transitions; API results come back as Outcomes.
package usertable

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	domain "user-table/internal/domain/user"
)

// Form field names accepted by State.WithField.
const (
	FieldFirstName = domain.FieldFirstName
	FieldEmail     = domain.FieldEmail
)

// Submit labels per mode.
const (
	LabelAdd    = "Add"
	LabelUpdate = "Update"
)

var validate = validator.New()

// Mode tells whether a submit creates a new user or updates the edit target.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// FormState is the in-progress content of the create/update form.
type FormState struct {
	FirstName string `json:"firstName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// Profile returns the request body for a create or update call.
func (f FormState) Profile() domain.Profile {
	return domain.Profile{FirstName: f.FirstName, Email: f.Email}
}

// Validate applies the same checks a browser runs on a required text input and a
// required email input.
func (f FormState) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid form: %w", err)
	}
	return nil
}

// State is an immutable snapshot of the view-model. Transitions return a new State and
// never modify the receiver's slices.
type State struct {
	Users   []domain.User `json:"users"`
	Form    FormState     `json:"form"`
	Editing *domain.User  `json:"editing,omitempty"`
	Mounted bool          `json:"mounted"`
	// FormRev counts the times the form was reset by a successful submit or refilled
	// by edit-mode entry.
	FormRev uint64 `json:"formRev"`
}

// NewState returns the state of a freshly shown, not yet mounted table.
func NewState() State {
	return State{Users: []domain.User{}}
}

// Mode reports whether the next submit creates or updates.
func (s State) Mode() Mode {
	if s.Editing != nil {
		return ModeEdit
	}
	return ModeCreate
}

// SubmitLabel is the text of the form's submit control.
func (s State) SubmitLabel() string {
	if s.Mode() == ModeEdit {
		return LabelUpdate
	}
	return LabelAdd
}

// WithField binds one form input. Unknown field names are rejected.
func (s State) WithField(name, value string) (State, error) {
	switch name {
	case FieldFirstName:
		s.Form.FirstName = value
	case FieldEmail:
		s.Form.Email = value
	default:
		return s, fmt.Errorf("unknown form field %q", name)
	}
	return s, nil
}

// Find returns the first user with the given id.
func (s State) Find(id int64) (domain.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

// Edit enters edit mode for the first user with the given id and copies its
// first name and email into the form. It returns false when no row has that id.
func (s State) Edit(id int64) (State, bool) {
	u, ok := s.Find(id)
	if !ok {
		return s, false
	}
	s.Editing = &u
	s.Form = FormState{FirstName: u.FirstName, Email: u.Email}
	s.FormRev++
	return s, true
}

// Apply reconciles the state with a finished API call. A failed call leaves the state
// exactly as it was.
func (s State) Apply(o Outcome) State {
	if o.Err != nil {
		return s
	}

	switch o.Op {
	case OpFetch:
		users := make([]domain.User, len(o.Users))
		copy(users, o.Users)
		s.Users = users
	case OpCreate:
		users := make([]domain.User, 0, len(s.Users)+1)
		users = append(users, s.Users...)
		s.Users = append(users, o.User)
		s.Form = FormState{}
		s.FormRev++
	case OpUpdate:
		users := make([]domain.User, len(s.Users))
		for i, u := range s.Users {
			if u.ID == o.TargetID {
				users[i] = o.User
			} else {
				users[i] = u
			}
		}
		s.Users = users
		s.Editing = nil
		s.Form = FormState{}
		s.FormRev++
	case OpDelete:
		users := make([]domain.User, 0, len(s.Users))
		for _, u := range s.Users {
			if u.ID != o.TargetID {
				users = append(users, u)
			}
		}
		s.Users = users
	}
	return s
}
