package gateway

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortFlag_DefaultMatchesConfig(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("port")

	require.NotNil(t, f)
	assert.Equal(t, strconv.Itoa(defaultPort), f.DefValue)
}
