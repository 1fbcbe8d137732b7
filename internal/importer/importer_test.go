package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulesets-dev/rulesets/internal/testutil"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Go Style</title></head>
<body>
<nav>skip me</nav>
<article>
<h1>Go <a href="#go">#</a></h1>
<p>Use <strong>gofmt</strong>.</p>
</article>
</body>
</html>`

func TestImport_Markdown(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{"My Rules.md": "# Mine\n"})
	rules := filepath.Join(t.TempDir(), "rules")

	result, err := Import(context.Background(), filepath.Join(src, "My Rules.md"), Options{RulesDir: rules})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(rules, "my-rules.md"), result.Path)
	assert.False(t, result.Converted)
	assert.Equal(t, "# Mine\n", testutil.ReadFile(t, rules, "my-rules.md"))
}

func TestImport_ExistingRule(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{"style.md": "new"})
	rules := t.TempDir()
	testutil.WriteFiles(t, rules, map[string]string{"style.md": "old"})

	_, err := Import(context.Background(), filepath.Join(src, "style.md"), Options{RulesDir: rules})
	require.ErrorIs(t, err, ErrExists)
	assert.Equal(t, "old", testutil.ReadFile(t, rules, "style.md"))

	_, err = Import(context.Background(), filepath.Join(src, "style.md"), Options{RulesDir: rules, Force: true})
	require.NoError(t, err)
	assert.Equal(t, "new", testutil.ReadFile(t, rules, "style.md"))
}

func TestImport_ExplicitName(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{"x.md": "x"})
	rules := t.TempDir()

	result, err := Import(context.Background(), filepath.Join(src, "x.md"), Options{RulesDir: rules, Name: "coding/go.md"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rules, "coding", "go.md"), result.Path)
}

func TestImport_HTMLFile(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{"style.html": page})
	rules := t.TempDir()

	result, err := Import(context.Background(), filepath.Join(src, "style.html"), Options{RulesDir: rules})
	require.NoError(t, err)
	assert.True(t, result.Converted)

	got := testutil.ReadFile(t, rules, "style.md")
	assert.Contains(t, got, "---\ndescription: Go Style\n---\n\n")
	assert.Contains(t, got, "**gofmt**")
	assert.NotContains(t, got, "skip me", "only the article is converted")
	assert.NotContains(t, got, "<p>")
}

func TestImport_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/docs/style" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()
	rules := t.TempDir()

	result, err := Import(context.Background(), srv.URL+"/docs/style", Options{RulesDir: rules, Client: srv.Client()})
	require.NoError(t, err)
	assert.True(t, result.Converted, "HTML is detected from content")
	assert.Equal(t, filepath.Join(rules, "style.md"), result.Path)

	_, err = Import(context.Background(), srv.URL+"/missing", Options{RulesDir: rules, Client: srv.Client()})
	assert.ErrorContains(t, err, "unexpected status: 404")
}

func TestImport_MissingSource(t *testing.T) {
	_, err := Import(context.Background(), filepath.Join(t.TempDir(), "nope.md"), Options{RulesDir: t.TempDir()})
	assert.ErrorContains(t, err, "failed to read")
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"My Rules":         "my-rules",
		"go_style":         "go-style",
		"  --Hello!! --  ": "hello",
		"a  b__c":          "a-b-c",
		"Règles Générales": "regles-generales",
	}
	for in, want := range tests {
		assert.Equal(t, want, slugify(in), in)
	}
}

func TestCleanMarkdown(t *testing.T) {
	in := "# Title [#](#title)  \n\n\n\n\nBody\t\n"
	assert.Equal(t, "# Title\n\n\nBody", cleanMarkdown(in))
}
