package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGolden_ButtonCounter(t *testing.T) {
	result := RunWithGolden(t, filepath.Join("testdata", "scenarios", "button_counter.yaml"))
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestGolden_DefaultMasking(t *testing.T) {
	result := RunWithGolden(t, filepath.Join("testdata", "scenarios", "default_masking.yaml"))
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Evals)
}
