package payload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimestampCollapseKey(t *testing.T) {
	key := TimestampCollapseKey("payment")
	assert.True(t, strings.HasPrefix(key, "wesell_payment_"), "got %q", key)
}

func TestUUIDCollapseKeyUnique(t *testing.T) {
	a := UUIDCollapseKey("chat")
	b := UUIDCollapseKey("chat")
	assert.True(t, strings.HasPrefix(a, "wesell_chat_"))
	assert.NotEqual(t, a, b)
}

func TestCategoryCollapseKeyStable(t *testing.T) {
	assert.Equal(t, "wesell_system", CategoryCollapseKey("system"))
	assert.Equal(t, CategoryCollapseKey("system"), CategoryCollapseKey("system"))
}
