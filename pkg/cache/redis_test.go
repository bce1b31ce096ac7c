package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "fleet:expiry:30-days", Key("expiry", "30-days"))
	assert.Equal(t, "fleet:dashboard", Key("dashboard", " ", ""))
	assert.Equal(t, "fleet", Key())
}
