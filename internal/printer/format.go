package printer

import (
	"path/filepath"
	"strings"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatPNG
	FormatPS
	FormatJPG
	FormatGIF
	FormatSVG
)

var (
	FormatToString = map[Format]string{
		FormatPDF: "pdf",
		FormatPNG: "png",
		FormatPS:  "ps",
		FormatJPG: "jpg",
		FormatGIF: "gif",
		FormatSVG: "svg",
	}
	StringToFormat = map[string]Format{
		"pdf":  FormatPDF,
		"png":  FormatPNG,
		"ps":   FormatPS,
		"jpg":  FormatJPG,
		"jpeg": FormatJPG,
		"gif":  FormatGIF,
		"svg":  FormatSVG,
	}
)

func (f Format) String() string {
	return FormatToString[f]
}

// FormatFromPath infers the image format from the extension of the path.
func FormatFromPath(path string) Format {
	return StringToFormat[strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))]
}

// ResolveFormat returns 'format' unless it is unknown, in which case the format is inferred from
// the output path.
func ResolveFormat(format Format, outputPath string) Format {
	if format != FormatUnknown {
		return format
	}
	return FormatFromPath(outputPath)
}
