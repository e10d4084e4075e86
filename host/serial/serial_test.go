package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	c := &Config{Device: "/dev/ttyUSB0"}
	require.NoError(t, c.Validate())
	assert.Equal(t, 115200, c.Baud)
	assert.Equal(t, 100*time.Millisecond, c.ReadTimeout)

	c = &Config{Device: "COM3", Baud: 9600, ReadTimeout: time.Second}
	require.NoError(t, c.Validate())
	assert.Equal(t, 9600, c.Baud)
	assert.Equal(t, time.Second, c.ReadTimeout)

	assert.Error(t, (&Config{}).Validate())
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)

	_, err = Open(&Config{})
	assert.ErrorIs(t, err, errNoDevice)
}
