package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/types"
)

const sampleResumeJSON = `{
  "personalInfo": {"name": "Ada Lovelace", "email": "ada@example.com", "summary": "Mathematician"},
  "experience": [{"id": "e1", "title": "Analyst", "company": "Babbage", "startDate": "1842", "description": "Translated notes", "highlights": ["First program"]}],
  "skills": [{"id": "k1", "name": "Mathematics", "proficiency": "expert"}]
}`

// cliEnv is an isolated config file and local cache.
type cliEnv struct {
	dir        string
	configPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	for _, key := range []string{"RESUME_MATCHER_SERVER", "REDIS_URL", "AI_PROVIDER", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	env := &cliEnv{dir: dir, configPath: filepath.Join(dir, "config.json")}
	cfg := &config.Config{CachePath: filepath.Join(dir, "cache.json")}
	require.NoError(t, cfg.Save(env.configPath))
	return env
}

func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResumeImportShowAndSet(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "", "resume", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Resume is empty")

	out, err = env.run(t, "", "resume", "import", env.writeFile(t, "resume.json", sampleResumeJSON))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported resume for Ada Lovelace")

	out, err = env.run(t, "", "resume", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Analyst, Babbage")
	assert.Contains(t, out, "Mathematics")

	_, err = env.run(t, "", "resume", "set")
	assert.Error(t, err)

	out, err = env.run(t, "", "resume", "set", "--summary", "Computing pioneer")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 1 field(s)")

	out, err = env.run(t, "", "resume", "show", "--json")
	require.NoError(t, err)
	var r types.Resume
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "Computing pioneer", r.PersonalInfo.Summary)
	assert.Equal(t, "Ada Lovelace", r.PersonalInfo.Name)
}

func TestResumeImport_Invalid(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "resume", "import", env.writeFile(t, "bad.json", `{"personalInfo":{"name":""}}`))
	assert.Error(t, err)

	_, err = env.run(t, "", "resume", "import", filepath.Join(env.dir, "missing.json"))
	assert.Error(t, err)
}

func TestResumeClearAndStatus(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "", "resume", "import", env.writeFile(t, "resume.json", sampleResumeJSON))
	require.NoError(t, err)

	out, err := env.run(t, "", "resume", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Local only")

	_, err = env.run(t, "", "resume", "clear")
	require.NoError(t, err)
	out, err = env.run(t, "", "resume", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Resume is empty")
}

func TestExportJSON(t *testing.T) {
	env := newCLIEnv(t)
	outDir := filepath.Join(env.dir, "out")

	_, err := env.run(t, "", "export", "--format", "json", "--out", outDir)
	assert.ErrorContains(t, err, "resume is empty")

	_, err = env.run(t, "", "resume", "import", env.writeFile(t, "resume.json", sampleResumeJSON))
	require.NoError(t, err)

	out, err := env.run(t, "", "export", "--format", "json", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "ada-lovelace-resume.json")

	data, err := os.ReadFile(filepath.Join(outDir, "ada-lovelace-resume.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Translated notes")

	_, err = env.run(t, "", "export", "--format", "odt", "--out", outDir)
	assert.Error(t, err)
}

func TestHistory_Empty(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved job analyses")

	_, err = env.run(t, "", "history", "delete", "missing")
	assert.Error(t, err)

	_, err = env.run(t, "", "history", "clear")
	assert.NoError(t, err)
}

func TestAnalyze_InputValidation(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "   ", "analyze")
	assert.ErrorContains(t, err, "job description is empty")

	_, err = env.run(t, "", "analyze", "some text", "--url", "https://example.com/job")
	assert.Error(t, err)
}

func TestLogoutAndWhoami(t *testing.T) {
	env := newCLIEnv(t)
	cfg, err := config.LoadConfig(env.configPath)
	require.NoError(t, err)
	cfg.Token = "stale-token"
	require.NoError(t, cfg.Save(env.configPath))

	out, err := env.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	cfg, err = config.LoadConfig(env.configPath)
	require.NoError(t, err)
	assert.Empty(t, cfg.Token)
	assert.Equal(t, filepath.Join(env.dir, "cache.json"), cfg.CachePath)

	out, err = env.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}
