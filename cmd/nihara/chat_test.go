package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatioCommand(t *testing.T) {
	a := newTestApp(t)
	m := chatModel{app: a, screen: screenMain, ratio: "1:1"}

	model, _ := m.handleCommand("/ratio 16:9")
	m = model.(chatModel)
	assert.Equal(t, "16:9", m.ratio)
	assert.Contains(t, m.status, "16:9")

	// Unsupported ratios are rejected and the setting is untouched.
	model, _ = m.handleCommand("/ratio 2:1")
	m = model.(chatModel)
	assert.Equal(t, "16:9", m.ratio)
	assert.Contains(t, m.status, "unsupported")

	// Bare /ratio shows the current setting.
	model, _ = m.handleCommand("/ratio")
	m = model.(chatModel)
	assert.Contains(t, m.status, "16:9")
}

func TestPersistFailureSurfacesInStatus(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.kv.Close())

	m := chatModel{app: a, screen: screenMain}
	model, _ := m.Update(replyMsg{text: "hello", persist: true})
	m = model.(chatModel)
	assert.Contains(t, m.status, "couldn't save")

	m.status = ""
	model, _ = m.Update(imageMsg{path: "x.jpg"})
	m = model.(chatModel)
	assert.Contains(t, m.status, "couldn't save")
}
