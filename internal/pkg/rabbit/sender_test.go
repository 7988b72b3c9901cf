package rabbit

import (
	"testing"

	"bitbucket.org/airenas/maiebridge/internal/pkg/messages"
	"github.com/stretchr/testify/assert"
)

func TestGetBytes_Simple(t *testing.T) {
	b, err := getBytes(messages.NewQueueMessage("id", "u1"))
	assert.Nil(t, err)
	assert.Equal(t, `{"id":"id","userId":"u1"}`, string(b))
}

func TestParseMessage(t *testing.T) {
	m, err := ParseMessage([]byte(`{"id":"id","userId":"u1"}`))
	assert.Nil(t, err)
	assert.Equal(t, "id", m.ID)
	assert.Equal(t, "u1", m.UserID)
}

func TestParseMessage_Fail(t *testing.T) {
	_, err := ParseMessage([]byte(`{"id"`))
	assert.NotNil(t, err)
	_, err = ParseMessage([]byte(`{}`))
	assert.NotNil(t, err)
}
