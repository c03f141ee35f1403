package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_UnmarshalKeepsUnknownFields(t *testing.T) {
	data := []byte(`{"id":5,"firstName":"Bob","email":"b@x.com","lastName":"Stone","age":31}`)

	var u User
	require.NoError(t, json.Unmarshal(data, &u))

	assert.Equal(t, int64(5), u.ID)
	assert.Equal(t, "Bob", u.FirstName)
	assert.Equal(t, "b@x.com", u.Email)
	assert.JSONEq(t, `"Stone"`, string(u.Extra["lastName"]))
	assert.JSONEq(t, `31`, string(u.Extra["age"]))
	assert.NotContains(t, u.Extra, FieldID)
}

func TestUser_MarshalEmitsExtraFields(t *testing.T) {
	u := User{
		ID:        11,
		FirstName: "Ada",
		Email:     "ada@x.com",
		Extra:     map[string]json.RawMessage{"role": json.RawMessage(`"admin"`)},
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":11,"firstName":"Ada","email":"ada@x.com","role":"admin"}`, string(data))
}

func TestUser_KnownFieldsWinOverExtra(t *testing.T) {
	u := User{
		ID:    1,
		Extra: map[string]json.RawMessage{"id": json.RawMessage(`99`)},
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"firstName":"","email":""}`, string(data))
}

func TestUser_UnmarshalRejectsWrongTypes(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{"id":"seven"}`), &u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `decode user field "id"`)
}

func TestNewWindow(t *testing.T) {
	tests := []struct {
		name     string
		skip     int64
		limit    int64
		expected Window
	}{
		{name: "defaults limit", skip: 0, limit: -1, expected: Window{Total: 40, Skip: 0, Limit: DefaultLimit}},
		{name: "zero limit means all", skip: 10, limit: 0, expected: Window{Total: 40, Skip: 10, Limit: 0}},
		{name: "negative skip", skip: -3, limit: 5, expected: Window{Total: 40, Skip: 0, Limit: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewWindow(40, tt.skip, tt.limit))
		})
	}
}
