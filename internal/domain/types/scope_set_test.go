package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestParseScopesDeduplicates(t *testing.T) {
	s := ParseScopes("  read write read  ")
	assert.Len(t, s, 2)
	assert.True(t, s.Contains("read"))
	assert.Equal(t, "read write", s.String())
}

func TestScopeSetSubset(t *testing.T) {
	allowed := NewScopeSet("a", "b", "c")
	assert.True(t, NewScopeSet("a", "c").IsSubsetOf(allowed))
	assert.False(t, NewScopeSet("a", "x").IsSubsetOf(allowed))
	assert.True(t, ScopeSet(nil).IsSubsetOf(allowed))
}

func TestScopeSetOrDefault(t *testing.T) {
	fallback := NewScopeSet("a", "b")

	got := ScopeSet(nil).OrDefault(fallback)
	assert.True(t, got.Equal(fallback))

	got["z"] = struct{}{}
	assert.False(t, fallback.Contains("z"), "OrDefault must return a copy")

	assert.True(t, NewScopeSet("x").OrDefault(fallback).Equal(NewScopeSet("x")))
}

func TestScopeSetJSON(t *testing.T) {
	b, err := json.Marshal(NewScopeSet("write", "read"))
	assert.NoError(t, err)
	assert.JSONEq(t, `["read","write"]`, string(b))

	var s ScopeSet
	assert.NoError(t, json.Unmarshal([]byte(`["a","a","b"]`), &s))
	assert.True(t, s.Equal(NewScopeSet("a", "b")))
}

func TestScopeSetYAML(t *testing.T) {
	var doc struct {
		List ScopeSet `yaml:"list"`
		Raw  ScopeSet `yaml:"raw"`
	}
	err := yaml.Unmarshal([]byte("list: [read, write]\nraw: \"read admin\"\n"), &doc)
	assert.NoError(t, err)
	assert.True(t, doc.List.Equal(NewScopeSet("read", "write")))
	assert.True(t, doc.Raw.Equal(NewScopeSet("read", "admin")))
}
