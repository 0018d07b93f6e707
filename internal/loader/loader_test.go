package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Parse_PlainSQL(t *testing.T) {
	content := "SELECT a, b\nFROM edw.orders;\n"

	script, err := New().Parse("etl/orders.sql", content)
	require.NoError(t, err)

	assert.Equal(t, "orders", script.Name)
	assert.Equal(t, content, script.SQL)
	assert.Empty(t, script.Blocks)
}

func TestLoader_Parse_NameDirective(t *testing.T) {
	content := "/*---\nname: monthly_rollup\ntags: [finance]\n---*/\nSELECT 1 FROM t1;"

	script, err := New().Parse("etl/rollup_v2.sql", content)
	require.NoError(t, err)

	assert.Equal(t, "monthly_rollup", script.Name)
	assert.Equal(t, []string{"finance"}, script.Directives.Tags)
}

func TestLoader_Parse_ShellHeredoc(t *testing.T) {
	content := `#!/bin/ksh
echo "starting load"
bteq <<EOF
.LOGON tdprod/etl,pw;
INSERT INTO tgt_t SELECT * FROM src_t;
.QUIT;
EOF
echo "done"`

	script, err := New().Parse("jobs/load.ksh", content)
	require.NoError(t, err)

	require.Len(t, script.Blocks, 1)
	assert.Equal(t, 4, script.Blocks[0].Line, "block should start at the line after the heredoc marker")
	assert.Contains(t, script.Blocks[0].SQL, "INSERT INTO tgt_t")
	assert.NotContains(t, script.SQL, "echo")
}

func TestLoader_Parse_ShellWithoutHeredoc(t *testing.T) {
	content := "#!/bin/sh\necho nothing to see\n"

	script, err := New().Parse("jobs/noop.sh", content)
	require.NoError(t, err)

	assert.Empty(t, script.SQL)
	assert.Empty(t, script.Blocks)
}

func TestLoader_Parse_BadFrontmatterNamesFile(t *testing.T) {
	content := "/*---\nowner: someone\n---*/\nSELECT 1;"

	_, err := New().Parse("etl/bad.sql", content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etl/bad.sql")
}

func TestLoader_Discover(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "loader-test")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(tmpDir) }()

	subDir := filepath.Join(tmpDir, "staging")
	hiddenDir := filepath.Join(tmpDir, ".git")
	require.NoError(t, os.MkdirAll(subDir, 0750))
	require.NoError(t, os.MkdirAll(hiddenDir, 0750))

	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(tmpDir, "b.sql"), "SELECT 1;"},
		{filepath.Join(tmpDir, "a.bteq"), ".LOGON x;\nSELECT 2;"},
		{filepath.Join(tmpDir, "run.ksh"), "bteq <<EOF\nSELECT 3;\nEOF"},
		{filepath.Join(tmpDir, "readme.txt"), "not sql"},
		{filepath.Join(tmpDir, ".hidden.sql"), "SELECT 4;"},
		{filepath.Join(subDir, "c.sql"), "SELECT 5;"},
		{filepath.Join(hiddenDir, "ignored.sql"), "SELECT 6;"},
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(f.path, []byte(f.content), 0600))
	}

	paths, err := New().Discover(tmpDir)
	require.NoError(t, err)

	want := []string{
		filepath.Join(tmpDir, "a.bteq"),
		filepath.Join(tmpDir, "b.sql"),
		filepath.Join(tmpDir, "run.ksh"),
		filepath.Join(subDir, "c.sql"),
	}
	assert.Equal(t, want, paths, "discovery should be lexical and skip hidden and non-script files")
}

func TestLoader_LoadDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "loader-test-dir")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(tmpDir) }()

	require.NoError(t, os.WriteFile(
		filepath.Join(tmpDir, "first.sql"),
		[]byte("/*---\nname: renamed\n---*/\nSELECT 1 FROM t1;"), 0600))
	require.NoError(t, os.WriteFile(
		filepath.Join(tmpDir, "second.sql"),
		[]byte("SELECT 2 FROM t2;"), 0600))

	scripts, err := New().LoadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, scripts, 2)

	assert.Equal(t, "renamed", scripts[0].Name)
	assert.Equal(t, "second", scripts[1].Name)
}

func TestLoader_LoadDir_FailsOnBadFrontmatter(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "loader-test-bad")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(tmpDir) }()

	badPath := filepath.Join(tmpDir, "bad.sql")
	require.NoError(t, os.WriteFile(badPath, []byte("/*---\nbogus_key: 1\n---*/\nSELECT 1;"), 0600))

	_, err = New().LoadDir(tmpDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.sql")
}

func TestLoader_Load_MissingFile(t *testing.T) {
	_, err := New().Load(filepath.Join(os.TempDir(), "does-not-exist-anywhere.sql"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read script")
}
