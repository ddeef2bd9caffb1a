package printer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helcaraxan/aptgraph/internal/logger"
	"github.com/Helcaraxan/aptgraph/internal/testutil"
)

const sampleDescription = `digraph Dependencies {
  rankdir=LR;
  "alpha" -> "beta";
}
`

func writeDescription(t *testing.T) (descriptionPath string, imagePath string) {
	dir := t.TempDir()
	descriptionPath = filepath.Join(dir, "dependencies.dot")
	require.NoError(t, os.WriteFile(descriptionPath, []byte(sampleDescription), 0600))
	return descriptionPath, filepath.Join(dir, "dependencies.png")
}

func TestDotRenderer(t *testing.T) {
	tools := testutil.NewFakeTools(t)
	log := testutil.TestLogger(t).Domain(logger.RenderDomain).Logger

	t.Run("Success", func(t *testing.T) {
		descriptionPath, imagePath := writeDescription(t)

		err := NewDotRenderer(log, "", 10*time.Second).Render(context.Background(), descriptionPath, imagePath, FormatUnknown)
		require.NoError(t, err)
		assert.FileExists(t, imagePath)
	})

	t.Run("Failure", func(t *testing.T) {
		descriptionPath, imagePath := writeDescription(t)
		require.NoError(t, os.WriteFile(imagePath, []byte("stale image"), 0600))

		tools.FailDot(t)
		defer func() {
			require.NoError(t, os.Remove(filepath.Join(tools.Dir, "dot-error.lock")))
		}()

		err := NewDotRenderer(log, "", 10*time.Second).Render(context.Background(), descriptionPath, imagePath, FormatPNG)
		assert.True(t, errors.Is(err, ErrRenderFailed), err)
		assert.False(t, errors.Is(err, ErrRendererMissing))
		assert.NoFileExists(t, imagePath)
	})

	t.Run("Missing", func(t *testing.T) {
		descriptionPath, imagePath := writeDescription(t)

		err := NewDotRenderer(log, "aptgraph-no-such-dot", 10*time.Second).Render(context.Background(), descriptionPath, imagePath, FormatPNG)
		assert.True(t, errors.Is(err, ErrRendererMissing), err)
		assert.False(t, errors.Is(err, ErrRenderFailed))
		assert.NoFileExists(t, imagePath)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		descriptionPath, _ := writeDescription(t)
		imagePath := filepath.Join(filepath.Dir(descriptionPath), "dependencies")

		err := NewDotRenderer(log, "", 10*time.Second).Render(context.Background(), descriptionPath, imagePath, FormatUnknown)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), err)
		assert.NoFileExists(t, imagePath)
	})
}

func TestEmbeddedRenderer(t *testing.T) {
	log := testutil.TestLogger(t).Domain(logger.RenderDomain).Logger

	t.Run("SVG", func(t *testing.T) {
		descriptionPath, _ := writeDescription(t)
		imagePath := filepath.Join(filepath.Dir(descriptionPath), "images", "dependencies.svg")

		require.NoError(t, NewEmbeddedRenderer(log).Render(context.Background(), descriptionPath, imagePath, FormatUnknown))
		content, err := os.ReadFile(imagePath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "<svg")
		assert.Contains(t, string(content), "alpha")
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		descriptionPath, _ := writeDescription(t)
		imagePath := filepath.Join(filepath.Dir(descriptionPath), "dependencies.pdf")

		err := NewEmbeddedRenderer(log).Render(context.Background(), descriptionPath, imagePath, FormatUnknown)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), err)
		assert.NoFileExists(t, imagePath)
	})

	t.Run("MissingDescription", func(t *testing.T) {
		dir := t.TempDir()
		imagePath := filepath.Join(dir, "dependencies.png")

		err := NewEmbeddedRenderer(log).Render(context.Background(), filepath.Join(dir, "missing.dot"), imagePath, FormatPNG)
		assert.True(t, errors.Is(err, ErrRenderFailed), err)
		assert.NoFileExists(t, imagePath)
	})
}
