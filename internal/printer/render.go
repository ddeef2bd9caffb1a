package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-graphviz"
	"go.uber.org/zap"

	"github.com/Helcaraxan/aptgraph/internal/util"
)

var (
	ErrRendererMissing   = errors.New("renderer not installed")
	ErrRenderFailed      = errors.New("render failed")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Renderer turns a DOT description file into an image file.
type Renderer interface {
	// Render reads the description at 'descriptionPath' and writes an image in the given format
	// to 'outputPath'. When the format is unknown it is inferred from the output path. On failure
	// no image is left at 'outputPath'.
	Render(ctx context.Context, descriptionPath string, outputPath string, format Format) error
}

// DefaultDotBinary is the Graphviz tool used by the DotRenderer when none is configured.
const DefaultDotBinary = "dot"

// DotRenderer runs the Graphviz 'dot' tool.
type DotRenderer struct {
	Binary  string
	Timeout time.Duration

	log *zap.Logger
}

func NewDotRenderer(log *zap.Logger, binary string, timeout time.Duration) *DotRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	if binary == "" {
		binary = DefaultDotBinary
	}
	return &DotRenderer{
		Binary:  binary,
		Timeout: timeout,
		log:     log,
	}
}

func (r *DotRenderer) Render(ctx context.Context, descriptionPath string, outputPath string, format Format) error {
	log := r.log.With(zap.String("description", descriptionPath), zap.String("output", outputPath))

	format = ResolveFormat(format, outputPath)
	if format == FormatUnknown {
		log.Error("Could not determine the image format.")
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(outputPath))
	}

	if err := prepareImagePath(log, outputPath); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	ctx, cancel := util.WithTimeout(ctx, r.Timeout)
	defer cancel()

	log.Debug("Generating image.", zap.Stringer("format", format))
	_, stderr, err := util.RunCommand(ctx, log, "", r.Binary, "-T"+format.String(), descriptionPath, "-o", outputPath)
	switch {
	case errors.Is(err, util.ErrToolNotFound):
		return fmt.Errorf("%w: %v", ErrRendererMissing, err)
	case err != nil:
		log.Debug("Renderer failed.", zap.ByteString("stderr", stderr))
		_ = util.RemoveIfExists(log, outputPath)
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return nil
}

var embeddedFormats = map[Format]graphviz.Format{
	FormatPNG: graphviz.PNG,
	FormatJPG: graphviz.JPG,
	FormatSVG: graphviz.SVG,
}

// EmbeddedRenderer renders in-process with a WebAssembly build of Graphviz and does not need any
// tool to be installed. It supports the PNG, JPG and SVG formats.
type EmbeddedRenderer struct {
	log *zap.Logger
}

func NewEmbeddedRenderer(log *zap.Logger) *EmbeddedRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &EmbeddedRenderer{log: log}
}

func (r *EmbeddedRenderer) Render(ctx context.Context, descriptionPath string, outputPath string, format Format) error {
	log := r.log.With(zap.String("description", descriptionPath), zap.String("output", outputPath))

	format = ResolveFormat(format, outputPath)
	gvFormat, ok := embeddedFormats[format]
	if !ok {
		log.Error("Format not supported by the embedded renderer.", zap.Stringer("format", format))
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format.String())
	}

	if err := prepareImagePath(log, outputPath); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	image, err := renderEmbedded(ctx, descriptionPath, gvFormat)
	if err != nil {
		log.Debug("Embedded renderer failed.", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	out, err := util.PrepareOutputPath(log, outputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	_, err = out.Write(image)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = util.RemoveIfExists(log, outputPath)
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return nil
}

func renderEmbedded(ctx context.Context, descriptionPath string, format graphviz.Format) ([]byte, error) {
	raw, err := os.ReadFile(descriptionPath)
	if err != nil {
		return nil, err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// prepareImagePath removes any image left over from a previous run so that a failed render never
// leaves a stale image behind.
func prepareImagePath(log *zap.Logger, outputPath string) error {
	if err := util.RemoveIfExists(log, outputPath); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(outputPath), 0755)
}
