package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/goccy/go-json"
	"github.com/paveg/odataq/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, testutil.SampleSchemaYAML(), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestFilterCommand(t *testing.T) {
	schema := writeSchema(t)

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "bound",
			args:     []string{"filter", "-s", schema, "-r", "Products", "Price gt 5"},
			expected: "gt($it/Price, convert(5, Edm.Decimal))\n",
		},
		{
			name:     "alias",
			args:     []string{"filter", "-s", schema, "-r", "Products", "--alias", "@p=5", "Stock gt @p"},
			expected: "gt($it/Stock, convert(@p, Edm.Int64))\n",
		},
		{
			name:     "syntax only",
			args:     []string{"filter", "-s", schema, "-r", "Products", "--syntax", "a or b and c"},
			expected: "or(a, and(b, c))\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestFilterCommand_UnresolvedNameWarning(t *testing.T) {
	schema := writeSchema(t)
	out, _, err := run(t, "filter", "-s", schema, "-r", "Products", "Prise gt 5")
	require.NoError(t, err)
	assert.Contains(t, out, "gt($it/Prise, 5)\n")
	assert.Contains(t, out, "warning: could not find property 'Prise' on type Demo.Product")
}

func TestFilterCommand_JSON(t *testing.T) {
	schema := writeSchema(t)
	out, _, err := run(t, "filter", "-s", schema, "-r", "Products", "-o", "json", "Discontinued")
	require.NoError(t, err)

	var decoded filterOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "$it", decoded.RangeVariable)
	assert.Equal(t, "$it/Discontinued", decoded.Expression.Text)
	assert.Equal(t, "Edm.Boolean", decoded.Expression.Type)
	require.Len(t, decoded.Expression.Children, 1)
	assert.Equal(t, "$it", decoded.Expression.Children[0].Text)
}

func TestOrderByCommand(t *testing.T) {
	schema := writeSchema(t)

	out, _, err := run(t, "orderby", "-s", schema, "-r", "Products", "Price desc, Name")
	require.NoError(t, err)
	assert.Equal(t, "$it/Price desc\n$it/Name asc\n", out)

	out, _, err = run(t, "order-by", "-s", schema, "-r", "Products", "--syntax", "Price desc, Name")
	require.NoError(t, err)
	assert.Equal(t, "Price desc\nName asc\n", out)
}

func TestLevelsCommand(t *testing.T) {
	out, _, err := run(t, "levels", "max")
	require.NoError(t, err)
	assert.Equal(t, "max\n", out)

	out, _, err = run(t, "levels", "-o", "json", "4")
	require.NoError(t, err)
	var decoded levelsView
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, levelsView{Level: 4, Text: "4"}, decoded)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "odataq ")

	out, _, err = run(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"go_version"`)
}

func TestMetricsFlag(t *testing.T) {
	schema := writeSchema(t)
	_, stderr, err := run(t, "filter", "-s", schema, "-r", "Products", "--metrics", "Price gt 5")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"total_operations": 2`)

	_, stderr, err = run(t, "filter", "-s", schema, "-r", "Products", "Price gt 5")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "total_operations", "a later run without --metrics prints no summary")
}

func TestConfigFile(t *testing.T) {
	schema := writeSchema(t)
	cfgPath := filepath.Join(t.TempDir(), "odataq.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("case_insensitive_builtin_identifier: true\ncase_insensitive_properties: true\n"), 0o600))

	out, _, err := run(t, "filter", "-s", schema, "-r", "Products", "-c", cfgPath, "PRICE GT 5")
	require.NoError(t, err)
	assert.Equal(t, "gt($it/Price, convert(5, Edm.Decimal))\n", out)
}

func TestCommandErrors(t *testing.T) {
	schema := writeSchema(t)

	tests := []struct {
		name     string
		args     []string
		fragment string
	}{
		{"missing schema", []string{"filter", "-r", "Products", "x"}, "--schema or --parquet is required"},
		{"missing resource", []string{"filter", "-s", schema, "x"}, "--resource is required"},
		{"bad output", []string{"filter", "-s", schema, "-r", "Products", "-o", "xml", "x"}, "unsupported output format"},
		{"bad alias", []string{"filter", "-s", schema, "-r", "Products", "--alias", "p", "x"}, "must have the form @name=expression"},
		{"syntax error", []string{"filter", "-s", schema, "-r", "Products", "Price eq"}, "expression expected"},
		{"missing schema file", []string{"filter", "-s", filepath.Join(t.TempDir(), "none.yaml"), "-r", "Products", "x"}, "none.yaml"},
		{"wrong arg count", []string{"levels"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.fragment)
		})
	}
}

func TestFilterCommand_File(t *testing.T) {
	schema := writeSchema(t)
	queries := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(queries, []byte("Price gt 5\n\nName eq 'x'\n"), 0o600))

	out, _, err := run(t, "filter", "-s", schema, "-r", "Products", "-f", queries, "-w", "2")
	require.NoError(t, err)
	assert.Equal(t, "1: gt($it/Price, convert(5, Edm.Decimal))\n2: eq($it/Name, 'x')\n", out)

	require.NoError(t, os.WriteFile(queries, []byte("Price gt 5\nPrice eq\n"), 0o600))
	out, _, err = run(t, "filter", "-s", schema, "-r", "Products", "-f", queries, "-o", "json")
	require.EqualError(t, err, "1 of 2 expressions failed")

	var decoded batchView
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded.Failed)
	require.Len(t, decoded.Items, 2)
	assert.Contains(t, decoded.Items[1].Error, "expression expected")

	_, _, err = run(t, "filter", "-s", schema, "-r", "Products", "-f", queries, "Price gt 1")
	require.Error(t, err, "--file takes no expression argument")
}

func TestFilterCommand_Parquet(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ID", Type: arrow.PrimitiveTypes.Int64},
		{Name: "Score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)
	path := filepath.Join(t.TempDir(), "people.parquet")
	var buf bytes.Buffer
	writer, err := pqarrow.NewFileWriter(schema, &buf, parquet.NewWriterProperties(),
		pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()), pqarrow.WithStoreSchema()))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	out, _, err := run(t, "filter", "--parquet", "People="+path, "-r", "People", "Score gt 1")
	require.NoError(t, err)
	assert.Equal(t, "gt($it/Score, convert(1, Edm.Double))\n", out)

	_, _, err = run(t, "filter", "--parquet", "People", "-r", "People", "Score gt 1")
	assert.ErrorContains(t, err, "must have the form Set=path")

	_, _, err = run(t, "filter", "--parquet", "People="+path, "-s", writeSchema(t), "-r", "People", "x")
	assert.ErrorContains(t, err, "mutually exclusive")
}
