package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestUser_HasProfile(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{"first name set", User{FirstName: "Ada"}, true},
		{"profile json set", User{Profile: datatypes.JSON(`{"age":30}`)}, true},
		{"empty json object", User{Profile: datatypes.JSON(`{}`)}, false},
		{"nothing set", User{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasProfile())
		})
	}
}

func TestSettledOrderStatuses(t *testing.T) {
	statuses := SettledOrderStatuses()

	assert.ElementsMatch(t, []string{"completed", "paid", "shipped"}, statuses)
	assert.NotContains(t, statuses, OrderStatusPending)
	assert.NotContains(t, statuses, OrderStatusCancelled)
}
