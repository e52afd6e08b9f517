package structdiff

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, s string) any {
	t.Helper()
	v, err := Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func TestCompareIgnoresOrder(t *testing.T) {
	a := mustDecode(t, `{"definitions":[{"protopath":"a.proto","def":{"messages":[{"name":"A"},{"name":"B"}]}},
		{"protopath":"b.proto","def":{}}]}`)
	b := mustDecode(t, `{"definitions":[{"def":{},"protopath":"b.proto"},
		{"protopath":"a.proto","def":{"messages":[{"name":"B"},{"name":"A"}]}}]}`)
	assert.Empty(t, Compare(a, b))
}

func TestCompareNumbersNormalized(t *testing.T) {
	assert.Empty(t, Compare(mustDecode(t, `{"id":1}`), mustDecode(t, `{"id":1.0}`)))
	assert.Len(t, Compare(mustDecode(t, `{"id":1}`), mustDecode(t, `{"id":2}`)), 1)
	assert.Empty(t, Compare(mustDecode(t, `{"id":1e15}`), mustDecode(t, `{"id":1000000000000000}`)))
	assert.Empty(t, Compare(mustDecode(t, `{"id":-2.5e16}`), mustDecode(t, `{"id":-25000000000000000}`)))
	assert.Empty(t, Compare(mustDecode(t, `{"id":1e20}`), mustDecode(t, `{"id":100000000000000000000}`)))
	assert.Len(t, Compare(mustDecode(t, `{"id":1.5}`), mustDecode(t, `{"id":1}`)), 1)
}

func TestNormalizeNumber(t *testing.T) {
	tests := map[string]string{
		"1":                   "1",
		"1.0":                 "1",
		"1e15":                "1000000000000000",
		"1e16":                "10000000000000000",
		"-1e15":               "-1000000000000000",
		"0.25":                "0.25",
		"1e20":                "1e+20",
		"9223372036854775807": "9223372036854775807",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeNumber(json.Number(in)), in)
	}
}

func TestCompareObjectKeys(t *testing.T) {
	a := mustDecode(t, `{"keep":1,"gone":true,"x":{"y":"old"}}`)
	b := mustDecode(t, `{"keep":1,"new-key":"v","x":{"y":"new"}}`)
	got := Compare(a, b)
	require.Len(t, got, 3)
	assert.Equal(t, Difference{Path: "$.gone", Kind: Removed, Committed: true}, got[0])
	assert.Equal(t, Difference{Path: "$.x.y", Kind: Changed, Committed: "old", Regenerated: "new"}, got[1])
	assert.Equal(t, Difference{Path: `$["new-key"]`, Kind: Added, Regenerated: "v"}, got[2])
}

func TestCompareArrayMembers(t *testing.T) {
	a := mustDecode(t, `{"fields":["id","name","legacy"]}`)
	b := mustDecode(t, `{"fields":["name","id","email"]}`)
	got := Compare(a, b)
	require.Len(t, got, 2)
	assert.Equal(t, Difference{Path: "$.fields[2]", Kind: Added, Regenerated: "email"}, got[0])
	assert.Equal(t, Difference{Path: "$.fields[2]", Kind: Removed, Committed: "legacy"}, got[1])
}

func TestCompareRepetition(t *testing.T) {
	got := Compare(mustDecode(t, `["a","a","b"]`), mustDecode(t, `["b","a"]`))
	require.Len(t, got, 1)
	d := got[0]
	assert.Equal(t, Repetition, d.Kind)
	assert.Equal(t, "$[0]", d.Path)
	assert.Equal(t, 2, d.CommittedCount)
	assert.Equal(t, 1, d.RegeneratedCount)
	assert.Equal(t, `$[0]: "a" repeated 2 time(s), now 1`, d.String())
}

func TestCompareTypeChange(t *testing.T) {
	got := Compare(mustDecode(t, `{"a":[1]}`), mustDecode(t, `{"a":{"0":1}}`))
	require.Len(t, got, 1)
	assert.Equal(t, Changed, got[0].Kind)
	assert.Equal(t, "$.a", got[0].Path)
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	_, err := Decode([]byte(`{} {}`))
	assert.Error(t, err)
	_, err = Decode([]byte("{}\n\n"))
	assert.NoError(t, err)
}
