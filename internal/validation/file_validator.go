package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "featurepipe/internal/errors"
)

// SourceExtensions are the input formats the loader understands. Any other
// extension is read as delimited text only when AllowAnyExtension is set.
var SourceExtensions = []string{".csv", ".tsv", ".txt", ".xlsx", ".xlsm"}

// FileValidator checks the input file and output directory of a batch run
// before any stage executes
type FileValidator struct {
	logger *slog.Logger
	// AllowAnyExtension accepts inputs whose extension is not listed in
	// SourceExtensions
	AllowAnyExtension bool
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateSource checks that path is a readable, non-empty regular file of a
// supported format. A missing file matches errors.ErrSourceMissing.
func (v *FileValidator) ValidateSource(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("source_missing", slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("input file %s", path))
	}
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("source_is_directory", slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a temporary Excel lock file", path))
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !v.AllowAnyExtension && !supported(ext) {
		v.logger.Error("source_unsupported",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s has unsupported extension %q (want one of %s)",
			path, ext, strings.Join(SourceExtensions, ", ")))
	}
	if info.Size() == 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is empty", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("%s is not readable", path), err)
	}
	f.Close()

	v.logger.Debug("source_validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory creates dir when missing and checks it is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("output_dir_create_failed",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("output_dir_not_writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("output_dir_validated", slog.String("directory", dir))
	return nil
}

func supported(ext string) bool {
	for _, e := range SourceExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
