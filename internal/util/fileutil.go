package util

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// PrepareOutputPath ensures that the directory containing the specified path exists and returns a
// file opened for writing at that path. Any existing file is truncated. A directory at the path is
// an error.
func PrepareOutputPath(log *zap.Logger, outputPath string) (*os.File, error) {
	l := log.With(zap.String("output-path", outputPath))
	l.Debug("Preparing output path.")

	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		l.Error("The specified output path is a directory.")
		return nil, fmt.Errorf("target %q is a directory", outputPath)
	} else if err != nil && !os.IsNotExist(err) {
		l.Error("Failed to check if output path already exists.", zap.Error(err))
		return nil, fmt.Errorf("could not stat %q: %w", outputPath, err)
	}

	l.Debug("Ensuring output path folder exists.")
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		l.Error("Failed to create output directory.", zap.Error(err))
		return nil, fmt.Errorf("could not create %q: %w", filepath.Dir(outputPath), err)
	}
	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		l.Error("Could not create output file.", zap.Error(err))
		return nil, err
	}
	return out, nil
}

// RemoveIfExists deletes the file at the specified path, ignoring a missing file.
func RemoveIfExists(log *zap.Logger, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("Could not remove file.", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}
