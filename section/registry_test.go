package section_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/faculty-cache/section"
	"github.com/krisalay/faculty-cache/types"
)

func TestDefaultRegistry(t *testing.T) {
	r := section.Default()

	k, ok := r.Kind(section.Profile)
	require.True(t, ok)
	assert.Equal(t, types.KindSingleton, k)

	k, ok = r.Kind(section.Patents)
	require.True(t, ok)
	assert.Equal(t, types.KindList, k)

	assert.Len(t, r.Names(), 20)
}

func TestNormalizeUnwrapsSingletonList(t *testing.T) {
	r := section.Default()
	wrapped := types.List(types.Record{"name": "Ada"})

	got := r.NormalizeSection(section.Profile, wrapped)
	assert.Equal(t, types.KindSingleton, got.Kind)
	rec, ok := got.Single()
	require.True(t, ok)
	assert.Equal(t, "Ada", rec["name"])

	empty := r.NormalizeSection(section.About, types.List())
	assert.Equal(t, types.KindSingleton, empty.Kind)
	assert.Equal(t, 0, empty.Len())
}

func TestNormalizeWrapsBareObjectForList(t *testing.T) {
	r := section.Default()
	got := r.NormalizeSection(section.Education, types.Singleton(types.Record{"id": "e1"}))

	assert.Equal(t, types.KindList, got.Kind)
	assert.Equal(t, 1, got.Len())
}

func TestNormalizeLeavesUnknownSectionsAlone(t *testing.T) {
	r := section.Default()
	obj := types.Singleton(types.Record{"x": "y"})
	assert.Equal(t, obj, r.NormalizeSection("hobbies", obj))
	assert.Equal(t, types.List(), r.NormalizeSection("hobbies", types.Section{}))
}

func TestNormalizeDocument(t *testing.T) {
	r := section.Default()
	doc := types.Document{
		section.Profile:   types.List(types.Record{"name": "Ada"}),
		section.Education: types.List(types.Record{"id": "e1"}),
	}
	out := r.Normalize(doc)

	assert.Equal(t, types.KindSingleton, out[section.Profile].Kind)
	assert.Equal(t, types.KindList, doc[section.Profile].Kind, "input must not be modified")
}

func TestParseYAML(t *testing.T) {
	r, err := section.Parse([]byte(`
sections:
  - name: profile
    kind: singleton
  - name: grants
    kind: list
  - name: notes
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"grants", "notes", "profile"}, r.Names())

	k, _ := r.Kind("notes")
	assert.Equal(t, types.KindList, k)
}

func TestParseRejectsBadRegistries(t *testing.T) {
	_, err := section.Parse([]byte("sections:\n  - kind: list\n"))
	assert.Error(t, err)

	_, err = section.Parse([]byte("sections:\n  - name: a\n  - name: a\n"))
	assert.Error(t, err)

	_, err = section.Parse([]byte("sections:\n  - name: a\n    kind: tree\n"))
	assert.Error(t, err)

	_, err = section.Parse([]byte("sections: [\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	r, err := section.Load("")
	require.NoError(t, err)
	assert.Len(t, r.Names(), 20)

	path := filepath.Join(t.TempDir(), "sections.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sections:\n  - name: about\n    kind: singleton\n"), 0o600))
	r, err = section.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"about"}, r.Names())

	_, err = section.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
