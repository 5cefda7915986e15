package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescoach/backend/internal/domain"
)

const brochure = `2024 Toyota Camry XSE
Price: $28,400
Engine: 2.5L 4-cylinder
203 hp
8-speed automatic transmission
Seats 5 passengers
`

// run executes the root command in a scratch directory with its own catalog file
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	verbose, compact, save, mediaTypeFlag = false, false, false, ""

	dir := t.TempDir()
	t.Setenv("SALESCOACH_STORAGE_CATALOG_PATH", filepath.Join(dir, "catalog.json"))
	t.Setenv("SALESCOACH_LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileCommand(t *testing.T) {
	path := writeFile(t, "camry.txt", brochure)

	out, err := run(t, "file", path)
	require.NoError(t, err)

	var got []extraction
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Result)
	assert.Equal(t, "camry.txt", got[0].File)
	assert.Equal(t, "Toyota Camry XSE", got[0].Result.Record.Name)
	assert.Equal(t, "28400", got[0].Result.Record.Price)
	assert.Nil(t, got[0].Saved)
	assert.Contains(t, got[0].Missing, domain.FieldTorque)
	assert.NotContains(t, got[0].Missing, domain.FieldPrice)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "input file must be left in place")
}

func TestFileCommand_PartialFailure(t *testing.T) {
	good := writeFile(t, "camry.txt", brochure)
	bad := writeFile(t, "archive.zip", "PK")

	out, err := run(t, "file", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")

	var got []extraction
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.NotNil(t, got[0].Result)
	assert.Nil(t, got[1].Result)
	assert.NotEmpty(t, got[1].Error)
}

func TestFileCommand_UnknownType(t *testing.T) {
	path := writeFile(t, "camry.txt", brochure)

	_, err := run(t, "file", "--type", "hologram", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown --type")
}

func TestFileCommand_ForcedType(t *testing.T) {
	path := writeFile(t, "camry.brochure", brochure)

	out, err := run(t, "file", "--type", "text", path)
	require.NoError(t, err)

	var got []extraction
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Result)
	assert.Equal(t, "text", got[0].Result.Method)
}

func TestSaveAndShow(t *testing.T) {
	path := writeFile(t, "camry.txt", brochure)

	// both invocations share the catalog through the environment
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.json")

	verbose, compact, save, mediaTypeFlag = false, true, false, ""
	t.Setenv("SALESCOACH_STORAGE_CATALOG_PATH", catalog)
	t.Setenv("SALESCOACH_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"file", "--save", path})
	require.NoError(t, rootCmd.Execute())

	var got []extraction
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Saved)
	assert.Equal(t, "Toyota Camry XSE", got[0].Saved.Name)

	out.Reset()
	save = false
	rootCmd.SetArgs([]string{"show", formatID(got[0].Saved.ID)})
	require.NoError(t, rootCmd.Execute())

	var record domain.VehicleRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, "Toyota Camry XSE", record.Name)
	assert.Equal(t, "28400", record.Price)
}

func TestShowCommand_InvalidID(t *testing.T) {
	_, err := run(t, "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")
}

func formatID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
