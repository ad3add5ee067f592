package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:5173", "*.kiosk.example"}

	assert.True(t, OriginAllowed("http://localhost:5173", allowed))
	assert.True(t, OriginAllowed("https://terminal.kiosk.example", allowed))
	assert.False(t, OriginAllowed("https://evilkiosk.example", allowed))
	assert.False(t, OriginAllowed("http://localhost:3000", allowed))
	assert.True(t, OriginAllowed("anything", []string{"*"}))
}
