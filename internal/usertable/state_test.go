package usertable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "user-table/internal/domain/user"
)

func sampleUsers() []domain.User {
	return []domain.User{
		{ID: 1, FirstName: "Emily", Email: "emily@x.com"},
		{ID: 5, FirstName: "Eve", Email: "eve@x.com"},
		{ID: 7, FirstName: "Grace", Email: "grace@x.com"},
	}
}

func TestState_WithField(t *testing.T) {
	s := NewState()

	s1, err := s.WithField(FieldFirstName, "Ada")
	require.NoError(t, err)
	s2, err := s1.WithField(FieldEmail, "ada@x.com")
	require.NoError(t, err)

	assert.Equal(t, FormState{}, s.Form)
	assert.Equal(t, FormState{FirstName: "Ada"}, s1.Form)
	assert.Equal(t, FormState{FirstName: "Ada", Email: "ada@x.com"}, s2.Form)

	_, err = s2.WithField("lastName", "Lovelace")
	assert.EqualError(t, err, `unknown form field "lastName"`)
}

func TestState_Edit(t *testing.T) {
	s := State{Users: sampleUsers()}

	edited, ok := s.Edit(5)
	require.True(t, ok)
	assert.Equal(t, ModeEdit, edited.Mode())
	assert.Equal(t, LabelUpdate, edited.SubmitLabel())
	assert.Equal(t, FormState{FirstName: "Eve", Email: "eve@x.com"}, edited.Form)
	require.NotNil(t, edited.Editing)
	assert.Equal(t, int64(5), edited.Editing.ID)
	assert.Equal(t, uint64(1), edited.FormRev)

	assert.Equal(t, ModeCreate, s.Mode())
	assert.Equal(t, LabelAdd, s.SubmitLabel())

	_, ok = s.Edit(42)
	assert.False(t, ok)
}

func TestState_Edit_PicksFirstDuplicate(t *testing.T) {
	s := State{Users: []domain.User{
		{ID: 3, FirstName: "First", Email: "a@x.com"},
		{ID: 3, FirstName: "Second", Email: "b@x.com"},
	}}

	edited, ok := s.Edit(3)
	require.True(t, ok)
	assert.Equal(t, "First", edited.Form.FirstName)
}

func TestState_ApplyFetch(t *testing.T) {
	s := State{Users: []domain.User{{ID: 99}}}
	users := sampleUsers()

	next := s.Apply(Outcome{Op: OpFetch, Users: users})

	require.Len(t, next.Users, 3)
	for i, u := range users {
		assert.Equal(t, u.ID, next.Users[i].ID)
		assert.Equal(t, u.FirstName, next.Users[i].FirstName)
		assert.Equal(t, u.Email, next.Users[i].Email)
	}
	assert.Len(t, s.Users, 1)
}

func TestState_ApplyCreate(t *testing.T) {
	s := State{Users: sampleUsers(), Form: FormState{FirstName: "Ada", Email: "ada@x.com"}}

	next := s.Apply(Outcome{Op: OpCreate, User: domain.User{ID: 11, FirstName: "Ada", Email: "ada@x.com"}})

	require.Len(t, next.Users, 4)
	assert.Equal(t, int64(11), next.Users[3].ID)
	assert.Equal(t, FormState{}, next.Form)
	assert.Equal(t, s.FormRev+1, next.FormRev)
	assert.Len(t, s.Users, 3)
}

func TestState_ApplyUpdate(t *testing.T) {
	s, ok := State{Users: sampleUsers()}.Edit(5)
	require.True(t, ok)

	next := s.Apply(Outcome{Op: OpUpdate, TargetID: 5, User: domain.User{ID: 5, FirstName: "Evelyn", Email: "evelyn@x.com"}})

	require.Len(t, next.Users, 3)
	assert.Equal(t, "Evelyn", next.Users[1].FirstName)
	assert.Equal(t, "Emily", next.Users[0].FirstName)
	assert.Equal(t, "Grace", next.Users[2].FirstName)
	assert.Nil(t, next.Editing)
	assert.Equal(t, FormState{}, next.Form)
	assert.Equal(t, s.FormRev+1, next.FormRev)
	assert.Equal(t, LabelAdd, next.SubmitLabel())

	assert.Equal(t, "Eve", s.Users[1].FirstName)
}

func TestState_ApplyUpdate_ReplacesEveryMatch(t *testing.T) {
	s := State{Users: []domain.User{{ID: 2, FirstName: "a"}, {ID: 3}, {ID: 2, FirstName: "b"}}}

	next := s.Apply(Outcome{Op: OpUpdate, TargetID: 2, User: domain.User{ID: 2, FirstName: "c"}})

	assert.Equal(t, "c", next.Users[0].FirstName)
	assert.Equal(t, "c", next.Users[2].FirstName)
}

func TestState_ApplyDelete(t *testing.T) {
	s := State{Users: sampleUsers()}

	next := s.Apply(Outcome{Op: OpDelete, TargetID: 7})

	require.Len(t, next.Users, 2)
	_, found := next.Find(7)
	assert.False(t, found)
	assert.Len(t, s.Users, 3)
}

func TestState_ApplyFailureLeavesStateUnchanged(t *testing.T) {
	edited, ok := State{Users: sampleUsers()}.Edit(5)
	require.True(t, ok)
	edited, err := edited.WithField(FieldFirstName, "Typed")
	require.NoError(t, err)

	boom := errors.New("boom")
	for _, op := range []Op{OpFetch, OpCreate, OpUpdate, OpDelete} {
		t.Run(op.String(), func(t *testing.T) {
			next := edited.Apply(Outcome{Op: op, TargetID: 5, Err: boom})
			assert.Equal(t, edited, next)
		})
	}
}

func TestFormState_Validate(t *testing.T) {
	assert.NoError(t, FormState{FirstName: "Ada", Email: "ada@x.com"}.Validate())
	assert.Error(t, FormState{Email: "ada@x.com"}.Validate())
	assert.Error(t, FormState{FirstName: "Ada"}.Validate())
	assert.Error(t, FormState{FirstName: "Ada", Email: "not-an-email"}.Validate())
}
