package server_test

import (
	"testing"
	"time"

	"push-manager/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Addr(t *testing.T) {
	tests := []struct {
		name string
		port string
		want string
	}{
		{"PortOnly", "8080", ":8080"},
		{"HostAndPort", "127.0.0.1:9000", "127.0.0.1:9000"},
		{"Empty", "", ":"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Port: tt.port}
			assert.Equal(t, tt.want, c.Addr())
		})
	}
}

func TestConfig_Timeouts(t *testing.T) {
	c := server.Config{ReadTimeoutSeconds: 5, WriteTimeoutSeconds: 30}
	assert.Equal(t, 5*time.Second, c.ReadTimeout())
	assert.Equal(t, 30*time.Second, c.WriteTimeout())
	assert.Zero(t, server.Config{}.ReadTimeout())
}
