package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

func newDoc(contents string) *core.RulesetDocument {
	return &core.RulesetDocument{
		Source: core.Source{ID: "example", Path: "example.rule.md", Contents: contents, Format: core.FormatRule},
	}
}

func appendText(s string) Transform {
	return func(doc *core.RulesetDocument) (*core.RulesetDocument, error) {
		return doc.WithContents(doc.Source.Contents + s), nil
	}
}

func TestCompose_ZeroIsIdentity(t *testing.T) {
	doc := newDoc("body")

	got, err := Compose()(doc)

	require.NoError(t, err)
	assert.Same(t, doc, got)
}

func TestCompose_LeftToRight(t *testing.T) {
	doc := newDoc("")

	got, err := Compose(appendText("a"), appendText("b"), appendText("c"))(doc)

	require.NoError(t, err)
	assert.Equal(t, "abc", got.Source.Contents)
	assert.Equal(t, "", doc.Source.Contents, "input must not be mutated")
}

func TestCompose_EachStageOnce(t *testing.T) {
	var calls []string
	record := func(name string) Transform {
		return func(doc *core.RulesetDocument) (*core.RulesetDocument, error) {
			calls = append(calls, name)
			return doc, nil
		}
	}

	_, err := Compose(record("t1"), record("t2"), record("t3"))(newDoc(""))

	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, calls)
}

func TestCompose_Associative(t *testing.T) {
	a, b, c := appendText("a"), appendText("b"), appendText("c")

	left, err := Compose(Compose(a, b), c)(newDoc(">"))
	require.NoError(t, err)
	right, err := Compose(a, Compose(b, c))(newDoc(">"))
	require.NoError(t, err)

	assert.Equal(t, left.Source.Contents, right.Source.Contents)
}

func TestCompose_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	failing := func(*core.RulesetDocument) (*core.RulesetDocument, error) { return nil, boom }
	after := func(doc *core.RulesetDocument) (*core.RulesetDocument, error) {
		called = true
		return doc, nil
	}

	_, err := Compose(Identity, failing, after)(newDoc(""))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, 1, stageErr.Stage)
	assert.False(t, called, "later stages must not run")
}

func TestRun_NoTagsReturnsSameDocument(t *testing.T) {
	doc := newDoc("# Rules\n\nNo partials here.")

	result, err := Run(doc, Identity)

	require.NoError(t, err)
	assert.Same(t, doc, result.Document)
	assert.NotNil(t, result.Diagnostics)
	assert.Empty(t, result.Diagnostics)
	assert.Nil(t, result.Document.Dependencies, "absent dependencies stay absent")
}

func TestRun_AttachesDerivedDependencies(t *testing.T) {
	doc := newDoc("{{> header}}\nbody\n{{> footer}}")

	result, err := Run(doc)

	require.NoError(t, err)
	assert.NotSame(t, doc, result.Document)
	assert.Equal(t, []core.Dependency{
		core.PartialDependency("header"),
		core.PartialDependency("footer"),
	}, result.Document.Dependencies)
	assert.Nil(t, doc.Dependencies, "input must not be mutated")
}

func TestRun_ScansPostTransformContents(t *testing.T) {
	doc := newDoc("body")

	result, err := Run(doc, appendText("\n{{> added}}"))

	require.NoError(t, err)
	assert.Equal(t, []core.Dependency{core.PartialDependency("added")}, result.Document.Dependencies)
}

func TestRun_KeepsTransformOutputWhenNothingMerged(t *testing.T) {
	doc := newDoc("{{> footer}}")
	var produced *core.RulesetDocument
	attach := func(d *core.RulesetDocument) (*core.RulesetDocument, error) {
		produced = d.WithDependencies([]core.Dependency{core.PartialDependency("footer")})
		return produced, nil
	}

	result, err := Run(doc, attach)

	require.NoError(t, err)
	assert.Same(t, produced, result.Document)
}

func TestRun_Idempotent(t *testing.T) {
	doc := newDoc("{{> a}} {{> b}} {{> a}}")

	first, err := Run(doc)
	require.NoError(t, err)
	second, err := Run(first.Document)
	require.NoError(t, err)

	assert.Same(t, first.Document, second.Document)
	assert.Len(t, second.Document.Dependencies, 2)
}

func TestRun_ExistingDependenciesFirst(t *testing.T) {
	doc := newDoc("{{> b}} {{> a}}").WithDependencies([]core.Dependency{core.PartialDependency("a")})

	result, err := Run(doc)

	require.NoError(t, err)
	assert.Equal(t, []core.Dependency{
		core.PartialDependency("a"),
		core.PartialDependency("b"),
	}, result.Document.Dependencies)
}

func TestRun_ReportsMalformedTags(t *testing.T) {
	result, err := Run(newDoc("{{> }}"))

	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "example.rule.md", result.Diagnostics[0].Pos.File)
}

func TestRun_TransformErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(newDoc(""), func(*core.RulesetDocument) (*core.RulesetDocument, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}
