package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amartin755/babbler/internal/config"
)

func TestValidateBufSize(t *testing.T) {
	require.NoError(t, config.ValidateBufSize(config.BufSizeMin))
	require.Error(t, config.ValidateBufSize(config.BufSizeMin-1))
}

func TestValidatePort(t *testing.T) {
	require.NoError(t, config.ValidatePort(1))
	require.NoError(t, config.ValidatePort(65535))
	require.Error(t, config.ValidatePort(0))
	require.Error(t, config.ValidatePort(65536))
}

func TestValidateHost(t *testing.T) {
	require.NoError(t, config.ValidateHost("127.0.0.1"))
	require.NoError(t, config.ValidateHost("::1"))
	require.NoError(t, config.ValidateHost("example.org"))
	require.Error(t, config.ValidateHost(""))
	require.Error(t, config.ValidateHost("not a host!"))
}
