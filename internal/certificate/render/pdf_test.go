package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r := NewRenderer("https://sparkfish.app/")
	assert.Equal(t, "https://sparkfish.app/certificate/verify/8A2B9C1D", r.VerifyURL("8A2B9C1D"))

	out, err := r.Render(Document{
		RecipientName: "José Núñez",
		ProgramTitle:  "AI Ethics Intensive",
		TrackTitle:    "Policy",
		IssuedAt:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Code:          "8A2B9C1D",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 1000)
}

func TestRenderWithoutTrack(t *testing.T) {
	out, err := NewRenderer("http://localhost:8080").Render(Document{
		RecipientName: "Student",
		ProgramTitle:  "Program",
		IssuedAt:      time.Now(),
		Code:          "00000000",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
