package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "sparkfish/pkg/domain-errors"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
	Slug  string `json:"slug" validate:"omitempty,slug"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantMsg string
	}{
		{name: "valid", in: sample{Name: "Ada", Email: "ada@example.com", Slug: "six-month"}},
		{name: "missing name uses json tag", in: sample{}, wantMsg: "name is required"},
		{name: "too long", in: sample{Name: "abcdefg"}, wantMsg: "name must be at most 5 characters"},
		{name: "bad email", in: sample{Name: "Ada", Email: "nope"}, wantMsg: "email must be a valid email address"},
		{name: "bad slug", in: sample{Name: "Ada", Slug: "Six Month"}, wantMsg: "slug must be lowercase letters, digits and hyphens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.wantMsg, dErrors.MessageOf(err))
		})
	}
}

func TestIsSlug(t *testing.T) {
	assert.True(t, IsSlug("ai-for-managers"))
	assert.False(t, IsSlug("-leading"))
	assert.False(t, IsSlug("double--dash"))
	assert.False(t, IsSlug(""))
}
