package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "nsilibridge dev\n", out)
}

func TestBQSTranslateFromStdin(t *testing.T) {
	in := `{"kind":"equal","property":"NSIL_CARD.identifier","literals":[{"type":"string","string":"abc"}]}`
	out, err := execute(t, in, "bqs", "translate", "--view", "NSIL_ALL_VIEW")
	require.NoError(t, err)
	assert.Equal(t, "(NSIL_CARD.identifier = 'abc')\n", out)
}

func TestBQSParse(t *testing.T) {
	out, err := execute(t, "", "bqs", "parse", "--view", "NSIL_ALL_VIEW", "NSIL_CARD.identifier = 'abc'")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "equal"`)
	assert.True(t, strings.HasSuffix(out, "(NSIL_CARD.identifier = 'abc')\n"))

	_, err = execute(t, "", "bqs", "parse", "--view", "NSIL_ALL_VIEW", "NSIL_CARD.identifier =")
	assert.Error(t, err)
}

func TestBQSUnknownView(t *testing.T) {
	_, err := execute(t, "{}", "bqs", "translate", "--view", "NOPE")
	assert.ErrorContains(t, err, "unknown view")
}

func TestDAGPrint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dag.json")
	body := `{"nodes":[
		{"id":0,"kind":"ROOT_NODE","name":"NSIL_PRODUCT"},
		{"id":1,"kind":"ENTITY_NODE","name":"NSIL_CARD"},
		{"id":2,"kind":"ATTRIBUTE_NODE","name":"identifier","value":{"type":"text","value":"abc"}}
	],"edges":[{"from":0,"to":1},{"from":1,"to":2}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := execute(t, "", "dag", "print", path)
	require.NoError(t, err)
	assert.Contains(t, out, "NSIL_PRODUCT")
	assert.Contains(t, out, "identifier=abc")
}

func TestServeFlagsOverrideConfig(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(serveCmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "7001", "--catalog-url", "https://catalog.example.org"}))

	cfg, err := loadServeConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "https://catalog.example.org", cfg.Catalog.URL)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
}
