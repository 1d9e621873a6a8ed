package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-photoshoot-gateway/internal/workflow"
)

func TestImagesParam_RoundTrip(t *testing.T) {
	imageURLs := []string{"https://x/a.png", "https://x/b.png?size=large&v=2"}

	param := workflow.EncodeImagesParam(imageURLs)
	assert.NotContains(t, param, "?")
	assert.Equal(t, imageURLs, workflow.DecodeImagesParam(param))
}

func TestDecodeImagesParam_Defensive(t *testing.T) {
	tests := []struct {
		name  string
		param string
	}{
		{"empty", ""},
		{"bad escape", "%zz"},
		{"not json", "plain-text"},
		{"wrong json shape", "%7B%22a%22%3A1%7D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, workflow.DecodeImagesParam(tt.param))
		})
	}
}
