package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"werss-client/internal/config/schema"
)

func TestReadReplay(t *testing.T) {
	input := `
# recorded from the workspace
{"type":"navigate","path":"/workspace/content?tab=1"}
{"type":"click","target":{"tag":"span","text":"Export","parent":{"tag":"button","class":"arco-btn"}}}

{"type":"input","target":{"tag":"input","name":"keyword","value":"go"}}
{"type":"visibility","hidden":true}
`
	records, err := readReplay(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, recordNavigate, records[0].Type)
	assert.Equal(t, "/workspace/content?tab=1", records[0].Path)
	assert.Equal(t, 3, records[0].line)

	require.NotNil(t, records[1].Target)
	require.NotNil(t, records[1].Target.Parent)
	assert.True(t, records[1].Target.Parent.HasClass("arco-btn"))

	assert.Equal(t, "keyword", records[2].Target.Name)
	assert.True(t, records[3].Hidden)
}

func TestReadReplayErrors(t *testing.T) {
	cases := map[string]string{
		"bad json":       `{"type":`,
		"unknown type":   `{"type":"scroll"}`,
		"missing path":   `{"type":"navigate"}`,
		"missing target": `{"type":"click"}`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := readReplay(strings.NewReader("\n" + line + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestRenderTemplate(t *testing.T) {
	data, err := renderTemplate()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# WeRSS Client Configuration"))

	var cfg schema.Root
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "http://localhost:8001/", cfg.Client.BaseURL)
	assert.Equal(t, 30, cfg.Analytics.BatchLimit)
	assert.Equal(t, 6*time.Second, cfg.Analytics.FlushInterval)
	assert.Equal(t, 18, cfg.QRLogin.ReadyMaxAttempts)
	assert.Equal(t, "file", cfg.Storage.Type)
}

func TestApplyFlags(t *testing.T) {
	t.Cleanup(func() {
		baseURL, storageType, stateFile, logLevel, logFile = "", "", "", "", ""
	})

	cfg := &schema.Root{}
	cfg.Client.BaseURL = "http://from-file/"
	cfg.Log.Level = "info"

	baseURL, storageType, logLevel = "http://flag/", "memory", "debug"
	applyFlags(cfg)

	assert.Equal(t, "http://flag/", cfg.Client.BaseURL)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.Storage.File)
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	runVersion(versionCmd, nil)
	assert.Contains(t, buf.String(), "WeRSS Client v")
}
