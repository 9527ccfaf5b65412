package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werss-client/internal/client/notify"
)

func TestOutput_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf, false)

	o.Success("saved %d events", 3)
	o.Error("boom")
	o.KeyValue("session", "sess-1")

	out := buf.String()
	assert.Contains(t, out, "✅ saved 3 events\n")
	assert.Contains(t, out, "❌ boom\n")
	assert.Contains(t, out, "session:")
	assert.NotContains(t, out, "\x1b[")
}

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewOutput(&buf, true).JSON(map[string]int{"queue": 2}))
	assert.Equal(t, "{\n  \"queue\": 2\n}\n", buf.String())
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf, true)
	tbl := NewTable("KEY", "VALUE")
	tbl.AddRow("mode", "all_free")
	tbl.AddRow("会话", "x")
	o.Render(tbl)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "KEY   VALUE"))
	assert.True(t, strings.HasPrefix(lines[2], "mode  all_free"))
}

func TestNotifyHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &NotifyHandler{Output: NewOutput(&buf, true)}
	h.OnNotification(notify.Notification{Level: notify.LevelSuccess, Message: "authorization succeeded"})
	h.OnNotification(notify.Notification{Level: notify.LevelWarning, Message: "careful"})
	assert.Contains(t, buf.String(), "✅ authorization succeeded")
	assert.Contains(t, buf.String(), "⚠️ careful")
}

func TestPrompter_LineAndPasswordFallback(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  admin \nsecret"), &out)

	user, err := p.Line("Username")
	require.NoError(t, err)
	assert.Equal(t, "admin", user)

	pass, err := p.Password("Password")
	require.NoError(t, err)
	assert.Equal(t, "secret", pass)
	assert.Contains(t, out.String(), "Username: ")

	_, err = p.Line("More")
	assert.Error(t, err)
}
