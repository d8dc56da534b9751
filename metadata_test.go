package termit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextSet(t *testing.T) {
	a := NewContextSet("x", "", "y")
	b := NewContextSet("y", "z")

	assert.Len(t, a, 2)
	assert.True(t, a.Contains("x"))
	assert.False(t, a.Contains(""))
	assert.Equal(t, []string{"x", "y", "z"}, a.Union(b).Sorted())
	assert.Equal(t, []string{"x"}, a.Without(b).Sorted())
	assert.Equal(t, []string{}, NewContextSet().Sorted())

	u := a.Union(nil)
	delete(u, "x")
	assert.True(t, a.Contains("x"), "Union returns a copy")
}

func TestMultilingualString(t *testing.T) {
	m := MultilingualString{"en": "Dog", "cs": "Pes"}

	assert.Equal(t, "Pes", m.Get("cs"))
	assert.Empty(t, m.Get("de"))
	assert.Equal(t, []string{"cs", "en"}, m.Languages())

	c := m.clone()
	c["en"] = "Hound"
	assert.Equal(t, "Dog", m.Get("en"))
	assert.Nil(t, MultilingualString(nil).clone())
}
