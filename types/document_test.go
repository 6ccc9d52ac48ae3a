package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/faculty-cache/types"
)

func TestSectionJSONShapes(t *testing.T) {
	list := types.List(types.Record{"id": 1, "degree": "PhD"})
	b, err := json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"degree":"PhD"}]`, string(b))

	empty, err := json.Marshal(types.List())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))

	single, err := json.Marshal(types.Singleton(types.Record{"name": "Ada"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, string(single))

	none, err := json.Marshal(types.Singleton(nil))
	require.NoError(t, err)
	assert.Equal(t, "null", string(none))
}

func TestSectionUnmarshalAcceptsEveryShape(t *testing.T) {
	var doc types.Document
	raw := `{"education":[{"id":1},{"id":"2"}],"profile":{"name":"Ada"},"patents":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, types.KindList, doc["education"].Kind)
	assert.Equal(t, 2, doc["education"].Len())
	assert.Equal(t, types.KindSingleton, doc["profile"].Kind)
	assert.Equal(t, types.KindList, doc["patents"].Kind)
	assert.Equal(t, 0, doc["patents"].Len())

	var bad types.Section
	assert.Error(t, json.Unmarshal([]byte(`"text"`), &bad))
}

func TestEntryRoundTrip(t *testing.T) {
	ent := types.NewEntry(types.Document{
		"education": types.List(types.Record{"id": "e1"}),
		"profile":   types.Singleton(types.Record{"name": "Ada"}),
	}, 1234)

	b, err := json.Marshal(ent)
	require.NoError(t, err)

	var back types.CacheEntry
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, int64(1234), back.Timestamp)
	assert.Equal(t, ent.Data, back.Data)
}

func TestDocumentWithCopies(t *testing.T) {
	base := types.Document{"education": types.List(types.Record{"id": 1})}
	next := base.With("patents", types.List(types.Record{"id": 9}))

	_, ok := base["patents"]
	assert.False(t, ok, "With must not mutate the receiver")
	assert.Equal(t, 1, next["patents"].Len())
	assert.Equal(t, []string{"education", "patents"}, next.Names())
	assert.Equal(t, 0, base.Section("missing").Len())
}

func TestDuplicateIDs(t *testing.T) {
	sec := types.List(
		types.Record{"id": float64(1)},
		types.Record{"id": "1"},
		types.Record{"id": "x"},
		types.Record{"title": "no id"},
	)
	assert.Equal(t, []string{"1"}, sec.DuplicateIDs())
	assert.Empty(t, types.List(types.Record{"id": 1}, types.Record{"id": 2}).DuplicateIDs())
}

func TestParseKind(t *testing.T) {
	k, err := types.ParseKind("singleton")
	require.NoError(t, err)
	assert.Equal(t, types.KindSingleton, k)
	assert.Equal(t, "singleton", k.String())

	_, err = types.ParseKind("tree")
	assert.Error(t, err)
}

func TestCanonicalMatchesDecodedForm(t *testing.T) {
	list, err := types.List(types.Record{"id": 1, "tags": []string{"ml"}}).Canonical()
	require.NoError(t, err)
	assert.Equal(t, types.KindList, list.Kind)
	assert.Equal(t, float64(1), list.Records[0]["id"])
	assert.Equal(t, []any{"ml"}, list.Records[0]["tags"])

	empty, err := types.Singleton(nil).Canonical()
	require.NoError(t, err)
	assert.Equal(t, types.Singleton(nil), empty, "an empty singleton stays a singleton")

	_, err = types.List(types.Record{"bad": make(chan int)}).Canonical()
	assert.Error(t, err)
}
