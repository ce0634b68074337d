package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOpts returns root options pointing at a fresh database file.
func testOpts(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Database: filepath.Join(t.TempDir(), "test.db"),
		Format:   format,
	}
}

// execute runs a command with the given args and returns its output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestChainCreateAndList(t *testing.T) {
	opts := testOpts(t, "text")

	out, err := execute(t, NewChainCommand(opts), "create", "Substation Intrusion", "-d", "perimeter alarm")
	require.NoError(t, err)
	assert.Contains(t, out, "Created chain #1: Substation Intrusion")

	out, err = execute(t, NewChainCommand(opts), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Substation Intrusion")
}

func TestChainCreateJSON(t *testing.T) {
	opts := testOpts(t, "json")

	out, err := execute(t, NewChainCommand(opts), "create", "Incident 42")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Incident 42", data["title"])
	assert.EqualValues(t, 1, data["id"])
}

func TestChainCreateEmptyTitle(t *testing.T) {
	opts := testOpts(t, "json")

	out, err := execute(t, NewChainCommand(opts), "create", "   ")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidArg, resp.Error.Code)
}

func TestChainRename(t *testing.T) {
	opts := testOpts(t, "text")

	_, err := execute(t, NewChainCommand(opts), "create", "Old Title")
	require.NoError(t, err)

	out, err := execute(t, NewChainCommand(opts), "rename", "1", "New Title")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed chain #1 to New Title")
}

func TestChainShowOrdersLinks(t *testing.T) {
	opts := testOpts(t, "text")

	_, err := execute(t, NewChainCommand(opts), "create", "Night Shift")
	require.NoError(t, err)

	// Attach out of order; show must list by timestamp.
	_, err = execute(t, NewAttachCommand(opts), "1", "radio", "3", "-t", "2024-01-01 08:05:00")
	require.NoError(t, err)
	_, err = execute(t, NewAttachCommand(opts), "1", "phone", "7", "-t", "2024-01-01 08:00:00")
	require.NoError(t, err)

	out, err := execute(t, NewChainCommand(opts), "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Links (2):")
	phoneIdx := bytes.Index([]byte(out), []byte("phone #7"))
	radioIdx := bytes.Index([]byte(out), []byte("radio #3"))
	require.GreaterOrEqual(t, phoneIdx, 0)
	require.GreaterOrEqual(t, radioIdx, 0)
	assert.Less(t, phoneIdx, radioIdx)
}

func TestAttachDuplicateFails(t *testing.T) {
	opts := testOpts(t, "json")

	_, err := execute(t, NewChainCommand(opts), "create", "Dup Check")
	require.NoError(t, err)
	_, err = execute(t, NewAttachCommand(opts), "1", "phone", "7", "-t", "2024-01-01 08:00:00")
	require.NoError(t, err)

	out, err := execute(t, NewAttachCommand(opts), "1", "phone", "7", "-t", "2024-01-01 08:00:00")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDuplicate, resp.Error.Code)
}

func TestAttachUnknownKind(t *testing.T) {
	opts := testOpts(t, "json")

	_, err := execute(t, NewChainCommand(opts), "create", "Kind Check")
	require.NoError(t, err)

	out, err := execute(t, NewAttachCommand(opts), "1", "pager", "7")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidArg, resp.Error.Code)
}

func TestAttachDefaultsToRecordTimestamp(t *testing.T) {
	opts := testOpts(t, "text")

	_, err := execute(t, NewLogCommand(opts), "phone", "--caller", "Dispatch", "--site", "12", "-t", "2024-03-01 09:30:00")
	require.NoError(t, err)
	_, err = execute(t, NewChainCommand(opts), "create", "Callback")
	require.NoError(t, err)

	_, err = execute(t, NewAttachCommand(opts), "1", "phone", "1")
	require.NoError(t, err)

	out, err := execute(t, NewChainCommand(opts), "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-01 09:30:00")
}

func TestDetach(t *testing.T) {
	opts := testOpts(t, "text")

	_, err := execute(t, NewChainCommand(opts), "create", "Detach Test")
	require.NoError(t, err)
	_, err = execute(t, NewAttachCommand(opts), "1", "email", "5", "-t", "2024-01-01 10:00:00")
	require.NoError(t, err)

	out, err := execute(t, NewDetachCommand(opts), "1", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Detached link 1 from chain #1")

	out, err = execute(t, NewChainCommand(opts), "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "No linked records.")
}

func TestDetachMissingLink(t *testing.T) {
	opts := testOpts(t, "json")

	_, err := execute(t, NewChainCommand(opts), "create", "Empty")
	require.NoError(t, err)

	out, err := execute(t, NewDetachCommand(opts), "1", "99")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestAnalyzeChainText(t *testing.T) {
	color.NoColor = true
	opts := testOpts(t, "text")

	_, err := execute(t, NewChainCommand(opts), "create", "Incident 42")
	require.NoError(t, err)
	_, err = execute(t, NewAttachCommand(opts), "1", "phone", "7", "-t", "2024-01-01 08:00:00")
	require.NoError(t, err)
	_, err = execute(t, NewAttachCommand(opts), "1", "radio", "3", "-t", "2024-01-01 08:05:00")
	require.NoError(t, err)

	out, err := execute(t, NewAnalyzeCommand(opts), "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Chain #1: Incident 42")
	assert.Contains(t, out, "Links: 2 (2 with usable timestamps)")
	assert.Contains(t, out, "phone #7 -> radio #3: 5.0 min")
	assert.Contains(t, out, "Rating:        good")
}

func TestAnalyzeChainInsufficientData(t *testing.T) {
	opts := testOpts(t, "text")

	_, err := execute(t, NewChainCommand(opts), "create", "Lone Record")
	require.NoError(t, err)
	_, err = execute(t, NewAttachCommand(opts), "1", "phone", "7", "-t", "2024-01-01 08:00:00")
	require.NoError(t, err)

	out, err := execute(t, NewAnalyzeCommand(opts), "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Not enough dated records")
}

func TestAnalyzeAll(t *testing.T) {
	opts := testOpts(t, "text")

	_, err := execute(t, NewChainCommand(opts), "create", "Timed")
	require.NoError(t, err)
	_, err = execute(t, NewChainCommand(opts), "create", "Untimed")
	require.NoError(t, err)
	_, err = execute(t, NewAttachCommand(opts), "1", "phone", "7", "-t", "2024-01-01 08:00:00")
	require.NoError(t, err)
	_, err = execute(t, NewAttachCommand(opts), "1", "radio", "3", "-t", "2024-01-01 08:10:00")
	require.NoError(t, err)

	out, err := execute(t, NewAnalyzeCommand(opts), "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Timed")
	assert.Contains(t, out, "10.0 min")
	assert.Contains(t, out, "Untimed")
	assert.Contains(t, out, "N/A")
}

func TestAnalyzeChainJSON(t *testing.T) {
	opts := testOpts(t, "json")

	_, err := execute(t, NewChainCommand(opts), "create", "Incident 42")
	require.NoError(t, err)
	_, err = execute(t, NewAttachCommand(opts), "1", "phone", "7", "-t", "2024-01-01 08:00:00")
	require.NoError(t, err)
	_, err = execute(t, NewAttachCommand(opts), "1", "radio", "3", "-t", "2024-01-01 08:05:00")
	require.NoError(t, err)

	out, err := execute(t, NewAnalyzeCommand(opts), "1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 5, data["mean_minutes"])
	assert.Equal(t, "good", data["rating"])
}

func TestLogsMergedAndFiltered(t *testing.T) {
	opts := testOpts(t, "text")

	_, err := execute(t, NewLogCommand(opts), "phone", "--call-type", "Alarm", "--caller", "Dispatch", "--site", "12", "-t", "2024-01-01 08:00:00")
	require.NoError(t, err)
	_, err = execute(t, NewLogCommand(opts), "radio", "--unit", "Unit 4", "--reason", "patrol check", "-t", "2024-01-01 07:00:00")
	require.NoError(t, err)

	out, err := execute(t, NewLogsCommand(opts))
	require.NoError(t, err)
	radioIdx := bytes.Index([]byte(out), []byte("Radio"))
	phoneIdx := bytes.Index([]byte(out), []byte("Phone"))
	require.GreaterOrEqual(t, radioIdx, 0)
	require.GreaterOrEqual(t, phoneIdx, 0)
	assert.Less(t, radioIdx, phoneIdx)

	out, err = execute(t, NewLogsCommand(opts), "--filter", "patrol")
	require.NoError(t, err)
	assert.Contains(t, out, "Radio")
	assert.NotContains(t, out, "Phone")
}

func TestLogsVerboseDiagnosticsKeepJSONClean(t *testing.T) {
	opts := testOpts(t, "json")
	opts.Verbose = true

	_, err := execute(t, NewLogCommand(opts), "alert", "--site", "7", "--message", "test", "-t", "2024-01-01 08:00:00")
	require.NoError(t, err)

	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}
	cmd := NewLogsCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(diag)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, diag.String(), "merged 1 record(s)")
}

func TestLogsUnknownKind(t *testing.T) {
	opts := testOpts(t, "json")

	out, err := execute(t, NewLogsCommand(opts), "--kind", "fax")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidArg, resp.Error.Code)
}

func TestLogRejectsBadTimestamp(t *testing.T) {
	opts := testOpts(t, "json")

	out, err := execute(t, NewLogCommand(opts), "alert", "--site", "7", "--message", "test", "-t", "01/02/2024 8am")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidArg, resp.Error.Code)
}

func TestSummary(t *testing.T) {
	opts := testOpts(t, "text")

	_, err := execute(t, NewLogCommand(opts), "phone", "--caller", "Dispatch", "-t", "2024-01-01 08:00:00")
	require.NoError(t, err)

	out, err := execute(t, NewSummaryCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "Phone")
	assert.Contains(t, out, "Everbridge")
	// A single record has no day span; the average renders N/A.
	assert.Contains(t, out, "N/A")
}

func TestExportToFile(t *testing.T) {
	opts := testOpts(t, "text")

	_, err := execute(t, NewLogCommand(opts), "alert", "--site", "7", "--message", "gate left open", "-t", "2024-01-01 08:00:00")
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "alerts.csv")
	out, err := execute(t, NewExportCommand(opts), "alert", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "id,site_code,message,timestamp,created_at")
	assert.Contains(t, string(data), "gate left open")
}

func TestExportUnknownKind(t *testing.T) {
	opts := testOpts(t, "json")

	out, err := execute(t, NewExportCommand(opts), "fax")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidArg, resp.Error.Code)
}

func TestRootCommandRejectsBadFormat(t *testing.T) {
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"chain", "list", "--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
