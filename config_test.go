package greyhorse_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	greyhorse "github.com/max-plutonium/greyhorse-sub000"
)

const sampleModuleYAML = `
name: root
enabled: true
components:
  - name: cache
    enabled: true
    services:
      - name: cache-svc
        type: counter
submodules:
  - name: child
    enabled: true
`

func TestLoadModuleConfDecodesNestedStructure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "module.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleModuleYAML), 0o644))

	conf, err := greyhorse.LoadModuleConf(path)
	require.NoError(t, err)

	assert.Equal(t, "root", conf.Name)
	assert.True(t, conf.Enabled)
	require.Len(t, conf.Components, 1)
	assert.Equal(t, "cache", conf.Components[0].Name)
	require.Len(t, conf.Components[0].Services, 1)
	assert.Equal(t, "counter", conf.Components[0].Services[0].Type)
	require.Len(t, conf.Submodules, 1)
	assert.Equal(t, "child", conf.Submodules[0].Name)
}

func TestLoadModuleConfMissingFileFails(t *testing.T) {
	_, err := greyhorse.LoadModuleConf(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestMarshalModuleConfRoundTrips(t *testing.T) {
	conf := &greyhorse.ModuleConf{
		Name:    "root",
		Enabled: true,
		Components: []greyhorse.ComponentConf{
			{Name: "cache", Enabled: true},
		},
	}

	data, err := greyhorse.MarshalModuleConf(conf)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "roundtrip.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	decoded, err := greyhorse.LoadModuleConf(path)
	require.NoError(t, err)
	assert.Equal(t, conf.Name, decoded.Name)
	assert.Equal(t, conf.Enabled, decoded.Enabled)
	require.Len(t, decoded.Components, 1)
	assert.Equal(t, "cache", decoded.Components[0].Name)
}

func TestLoadComponentConfDecodesServicesAndControllers(t *testing.T) {
	const yamlBody = `
name: cache
enabled: true
services:
  - name: cache-svc
    type: counter
controllers:
  - name: cache-ctrl
    type: borrow
`
	path := filepath.Join(t.TempDir(), "component.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	conf, err := greyhorse.LoadComponentConf(path)
	require.NoError(t, err)
	assert.Equal(t, "cache", conf.Name)
	require.Len(t, conf.Services, 1)
	require.Len(t, conf.Controllers, 1)
	assert.Equal(t, "borrow", conf.Controllers[0].Type)
}
