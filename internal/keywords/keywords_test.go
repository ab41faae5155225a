package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDropsStopWordsAndShortTokens(t *testing.T) {
	kws := Extract("What is the price of the premium plan?")
	assert.Contains(t, kws, "price")
	assert.Contains(t, kws, "premium")
	assert.Contains(t, kws, "plan")
	assert.NotContains(t, kws, "the")
	assert.NotContains(t, kws, "is")
	assert.NotContains(t, kws, "of")
}

func TestExtractDeduplicates(t *testing.T) {
	kws := Extract("refund refund REFUND policy")
	assert.Equal(t, []string{"policy", "refund"}, kws)
}

func TestExtractEmpty(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("a an of"))
}

func TestOverlap(t *testing.T) {
	a := []string{"refund", "policy", "shipping"}
	b := []string{"shipping", "cost", "refund"}
	assert.Equal(t, 2, Overlap(a, b))
	assert.Equal(t, 0, Overlap(a, nil))
	assert.Equal(t, 0, Overlap(nil, b))
}

func TestMatchesText(t *testing.T) {
	assert.True(t, MatchesText("Our Refund policy lasts 30 days", []string{"refund"}))
	assert.False(t, MatchesText("Our refund policy", []string{"warranty"}))
	assert.False(t, MatchesText("", []string{"refund"}))
}

func TestHashIsOrderIndependent(t *testing.T) {
	h1 := Hash([]string{"alpha", "beta", "gamma"})
	h2 := Hash([]string{"gamma", "alpha", "beta"})
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, Hash([]string{"alpha", "beta"}))
}

func TestHashTextEquivalentPhrasings(t *testing.T) {
	// Same keyword set after stop-word removal hashes identically.
	h1 := HashText("the refund policy for orders")
	h2 := HashText("orders: refund policy")
	assert.Equal(t, h1, h2)
}
