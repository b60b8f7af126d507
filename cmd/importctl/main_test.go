package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/vetimport/internal/config"
)

const vaccinationCSV = `vaccinationType,vaccinationDate,animalCount
Rabies,03/15/2024,12
,2024-13-45,abc
`

// run executes importctl with args against env and returns stdout.
func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd(config.MapLookup(env))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTablesCmd(t *testing.T) {
	out, err := run(t, nil, "tables")
	require.NoError(t, err)

	assert.Contains(t, out, "TABLE")
	for _, want := range []string{"lab", "vaccination", "parasite_control", "mobile_clinic", "equine_health"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "/api/import/equine-health")
}

func TestTablesCmd_JSON(t *testing.T) {
	out, err := run(t, nil, "tables", "-o", "json")
	require.NoError(t, err)

	var rows []tableRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 5)
	assert.Equal(t, "equine_health", string(rows[0].TableType))
	assert.Equal(t, "surgeryType", rows[0].RequiredField)
}

func TestResolveDateCmd(t *testing.T) {
	out, err := run(t, nil, "resolve-date", "03/15/2024", "not a date")
	require.NoError(t, err)

	assert.Contains(t, out, "2024-03-15T00:00:00Z")
	assert.Contains(t, out, "invalid:")
}

func TestResolveDateCmd_Serial(t *testing.T) {
	out, err := run(t, nil, "resolve-date", "--serial", "-o", "json", "45366")
	require.NoError(t, err)

	var got []resolution
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.True(t, got[0].Resolved)
	assert.Equal(t, "2024-03-15T00:00:00Z", got[0].Date)
	assert.Equal(t, "serial day number", got[0].Rule)
}

func TestResolveDateCmd_RequiresArgs(t *testing.T) {
	_, err := run(t, nil, "resolve-date")
	assert.Error(t, err)
}

func TestPreviewCmd_CSV(t *testing.T) {
	path := writeFile(t, "rows.csv", vaccinationCSV)

	out, err := run(t, nil, "preview", "--table", "vaccination", "--file", path, "-o", "json")
	require.NoError(t, err)

	var got struct {
		TotalRows   int `json:"totalRows"`
		ValidRows   int `json:"validRows"`
		InvalidRows int `json:"invalidRows"`
		Errors      []struct {
			RowIndex int    `json:"rowIndex"`
			Field    string `json:"field"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, 2, got.TotalRows)
	assert.Equal(t, 1, got.ValidRows)
	assert.Equal(t, 1, got.InvalidRows)
	require.Len(t, got.Errors, 3)
	for _, fe := range got.Errors {
		assert.Equal(t, 2, fe.RowIndex)
	}
}

func TestPreviewCmd_YAML(t *testing.T) {
	path := writeFile(t, "rows.json", `[{"sampleCode": "LAB-1", "collectionDate": "2024-02-01"}]`)

	out, err := run(t, nil, "preview", "--table", "lab", "--file", path, "-o", "yaml")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "lab", got["tableType"])
	assert.Equal(t, 1, got["validRows"])
}

func TestPreviewCmd_FailOnInvalid(t *testing.T) {
	path := writeFile(t, "rows.csv", vaccinationCSV)

	out, err := run(t, nil, "preview", "--table", "vaccination", "--file", path, "--fail-on-invalid")
	require.ErrorIs(t, err, errHasInvalidRows)
	assert.Contains(t, out, "1 invalid")
	assert.Contains(t, out, "vaccinationType is required")
}

func TestPreviewCmd_SecretRequired(t *testing.T) {
	path := writeFile(t, "rows.json", `[{"sampleCode": "LAB-1"}]`)
	env := map[string]string{"IMPORT_SECRET": "s3cret"}

	_, err := run(t, env, "preview", "--table", "lab", "--file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH001")

	_, err = run(t, env, "preview", "--table", "lab", "--file", path, "--secret", "s3cret")
	assert.NoError(t, err)
}

func TestPreviewCmd_UnknownTable(t *testing.T) {
	path := writeFile(t, "rows.json", `[{"sampleCode": "LAB-1"}]`)

	_, err := run(t, nil, "preview", "--table", "poultry", "--file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAL001")
}

func TestRootCmd_InvalidOutput(t *testing.T) {
	_, err := run(t, nil, "tables", "-o", "xml")
	assert.ErrorContains(t, err, "invalid --output")
}
