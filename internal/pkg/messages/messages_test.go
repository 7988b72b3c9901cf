package messages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQueueMessage(t *testing.T) {
	m := NewQueueMessage("id", "u1")
	assert.Equal(t, "id", m.ID)
	assert.Equal(t, "u1", m.UserID)
}

func TestQueueMessage_JSON(t *testing.T) {
	b, err := json.Marshal(NewQueueMessage("id", ""))
	assert.Nil(t, err)
	assert.Equal(t, `{"id":"id"}`, string(b))
}
