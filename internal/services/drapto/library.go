package drapto

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"
)

// Library implements Client on the drapto Go library, skipping the CLI
// shell-out entirely.
type Library struct{}

// NewLibrary constructs a Library client.
func NewLibrary() *Library {
	return &Library{}
}

var _ Client = (*Library)(nil)

// Encode runs the library encoder against inputPath and returns the encoded
// file's path under outputDir.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string, opts EncodeOptions) (string, error) {
	outputDir = strings.TrimSpace(outputDir)
	if inputPath == "" {
		return "", errors.New("input path required")
	}
	if outputDir == "" {
		return "", errors.New("output directory required")
	}

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", err
	}

	var rep draptolib.Reporter
	if opts.Progress != nil {
		rep = newHopperReporter(opts.Progress)
	}

	if _, err = encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		return "", err
	}
	return filepath.Join(outputDir, encodedName(inputPath)), nil
}

// encodedName maps an input filename to the encoder's output filename.
func encodedName(inputPath string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return stem + ".mkv"
}
