package retrieval

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpanderStaticSynonyms(t *testing.T) {
	e := NewExpander(nil, false)

	out := e.Expand(context.Background(), "Wie lautet meine Steuernummer?")

	assert.Contains(t, out, "Wie lautet meine Steuernummer?")
	assert.Contains(t, out, "Steuer-Identifikationsnummer")
	assert.Contains(t, out, "TIN")
}

func TestExpanderAppendsAllMatchedKeys(t *testing.T) {
	e := NewExpander(nil, false)

	out := e.Expand(context.Background(), "Rechnung für die Versicherung")

	assert.Contains(t, out, "Faktura")
	assert.Contains(t, out, "Police")
}

func TestExpanderStaticShortCircuitsLLM(t *testing.T) {
	called := false
	gen := &fakeGenerator{fn: func(prompt string, _ float32) (string, error) {
		called = true
		return "sollte nicht verwendet werden", nil
	}}
	e := NewExpander(gen, true)

	e.Expand(context.Background(), "Wo ist der Vertrag?")

	assert.False(t, called, "static match must skip the llm")
}

func TestExpanderLLMFallback(t *testing.T) {
	gen := &fakeGenerator{fn: func(prompt string, temperature float32) (string, error) {
		assert.InDelta(t, 0.3, temperature, 0.001)
		return "Kündigungsfrist, Laufzeit, Frist", nil
	}}
	e := NewExpander(gen, true)

	out := e.Expand(context.Background(), "Wann endet mein Abo?")

	assert.Contains(t, out, "Wann endet mein Abo?")
	assert.Contains(t, out, "Kündigungsfrist")
}

func TestExpanderLLMFailureReturnsOriginal(t *testing.T) {
	gen := &fakeGenerator{fn: func(string, float32) (string, error) {
		return "", fmt.Errorf("provider down")
	}}
	e := NewExpander(gen, true)

	out := e.Expand(context.Background(), "Wann endet mein Abo?")

	assert.Equal(t, "Wann endet mein Abo?", out)
}

func TestExpanderDisabledLLM(t *testing.T) {
	e := NewExpander(nil, false)

	out := e.Expand(context.Background(), "etwas ganz anderes")

	assert.Equal(t, "etwas ganz anderes", out)
}
