package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePermission(t *testing.T) {
	tests := []struct {
		in      string
		want    Permission
		wantErr bool
	}{
		{"default", PermissionDefault, false},
		{"granted", PermissionGranted, false},
		{"denied", PermissionDenied, false},
		{"GRANTED", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePermission(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmitter(t *testing.T) {
	var e Emitter
	var subs []bool
	var perms []Permission

	e.OnSubscriptionChange(func(b bool) { subs = append(subs, b) })
	e.OnSubscriptionChange(func(b bool) { subs = append(subs, !b) })
	e.OnPermissionChange(func(p Permission) { perms = append(perms, p) })

	e.EmitSubscription(true)
	e.EmitPermission(PermissionDenied)

	assert.Equal(t, []bool{true, false}, subs)
	assert.Equal(t, []Permission{PermissionDenied}, perms)
}
