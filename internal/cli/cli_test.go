package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	berr "github.com/next-trace/scg-mediator/contract/errors"
	"github.com/next-trace/scg-mediator/examples/users"
	"github.com/next-trace/scg-mediator/internal/cli"
)

func configFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mediator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out, _, err := runCapturing(t, args...)

	return out, err
}

func runCapturing(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	root := cli.NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), errOut.String(), err
}

func TestRegisterUser_PrintsSessionEvents(t *testing.T) {
	path := configFile(t, "exporter:\n  kind: none\n")

	out, err := run(t, "--config", path, "register-user", "Alice")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "1\tUserRegisteredEvent\t"))
	assert.True(t, strings.HasPrefix(lines[1], "2\tNewUserGreetedEvent\t"))
}

func TestRegisterUser_SeveralNamesShareOneSession(t *testing.T) {
	path := configFile(t, "exporter:\n  kind: none\n")

	out, err := run(t, "--config", path, "register-user", "Alice", "Bob")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[2], "3\tUserRegisteredEvent\t"))
	assert.True(t, strings.HasPrefix(lines[3], "4\tNewUserGreetedEvent\t"))
}

func TestRegisterUser_StopsAtRejectedName(t *testing.T) {
	path := configFile(t, "exporter:\n  kind: memory\n")

	out, err := run(t, "--config", path, "register-user", "Alice", " ", "Bob", "--export")
	require.ErrorIs(t, err, users.ErrEmptyUserName)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
	assert.NotContains(t, out, "exported")
}

func TestRegisterUser_ExportToMemory(t *testing.T) {
	path := configFile(t, "exporter:\n  kind: memory\n")

	out, err := run(t, "--config", path, "register-user", "Alice", "--export")
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 events via memory")
}

func TestRegisterUser_ExportWithoutExporter(t *testing.T) {
	path := configFile(t, "exporter:\n  kind: none\n")

	_, err := run(t, "--config", path, "register-user", "Alice", "--export")
	require.ErrorIs(t, err, berr.ErrExporterNotConfigured)
}

func TestRegisterUser_RequiresName(t *testing.T) {
	path := configFile(t, "exporter:\n  kind: none\n")

	_, err := run(t, "--config", path, "register-user")
	require.Error(t, err)
}

func TestCountUsers_ReportsRejectedNamesAndContinues(t *testing.T) {
	path := configFile(t, "exporter:\n  kind: none\n")

	out, stderr, err := runCapturing(t, "--config", path, "count-users", "Alice", "  ", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "registered users: 2\n", out)
	assert.Contains(t, stderr, `skipped "  ": users: empty user name`)
}

func TestCountUsers(t *testing.T) {
	path := configFile(t, "exporter:\n  kind: none\n")

	out, err := run(t, "--config", path, "count-users", "Alice", "Bob", "Carol")
	require.NoError(t, err)
	assert.Equal(t, "registered users: 3\n", out)
}

func TestConfigShow(t *testing.T) {
	path := configFile(t, "logging:\n  level: debug\nexporter:\n  kind: kafka\n  kafka:\n    brokers: [k1:9092]\n")

	out, err := run(t, "--config", path, "config", "show")
	require.NoError(t, err)

	var shown struct {
		Logging  struct{ Level string }
		Exporter struct {
			Kind  string
			Kafka struct{ Brokers []string }
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "debug", shown.Logging.Level)
	assert.Equal(t, "kafka", shown.Exporter.Kind)
	assert.Equal(t, []string{"k1:9092"}, shown.Exporter.Kafka.Brokers)
}

func TestInvalidConfig(t *testing.T) {
	path := configFile(t, "logging:\n  level: chatty\n")

	_, err := run(t, "--config", path, "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
