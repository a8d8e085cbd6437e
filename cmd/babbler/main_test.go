package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amartin755/babbler/internal/config"
)

func TestParsePortListExpandsRangesAndLists(t *testing.T) {
	ports, err := parsePortList("5000-5002,6000")
	require.NoError(t, err)
	require.Equal(t, []int{5000, 5001, 5002, 6000}, ports)
}

func TestParsePortListRejectsGarbage(t *testing.T) {
	_, err := parsePortList("not-a-port")
	require.Error(t, err)
}

func baseOptions() options {
	return options{bufSize: config.BufSizeDefault, connections: 1, protoSettings: config.ProtoSettingsDefault}
}

func TestExecuteRejectsMutuallyExclusiveFamilyFlags(t *testing.T) {
	o := baseOptions()
	o.ipv4, o.ipv6 = true, true
	o.listenPorts = "5000"
	err := execute(o, nil)
	require.Error(t, err)
	var verr config.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "family", verr.Field)
}

func TestExecuteRequiresDescriptorInClientMode(t *testing.T) {
	o := baseOptions()
	err := execute(o, nil)
	require.Error(t, err)
	var verr config.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "descriptor", verr.Field)
}

func TestExecuteRejectsInvalidBufSize(t *testing.T) {
	o := baseOptions()
	o.bufSize = 1
	err := execute(o, []string{"localhost:5000"})
	require.Error(t, err)
	var verr config.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "buf-size", verr.Field)
}

func TestExecuteRejectsInvalidProtoSettings(t *testing.T) {
	o := baseOptions()
	o.protoSettings = "not-a-valid-spec"
	err := execute(o, []string{"localhost:5000"})
	require.Error(t, err)
}

func TestRunServerRejectsInvalidListenPort(t *testing.T) {
	o := baseOptions()
	o.listenPorts = "0"
	err := execute(o, nil)
	require.Error(t, err)
	var verr config.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "port", verr.Field)
}
