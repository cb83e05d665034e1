package dataloader

import (
	"os"
	"path/filepath"

	"github.com/ironcliff/hegemon/errs"
)

// FindBaseDir resolves the definition base directory. The hint is tried
// first when non-empty, then ./data relative to the working directory,
// then data beside the executable.
func FindBaseDir(hint string) (string, error) {
	var candidates []string
	if hint != "" {
		candidates = append(candidates, hint)
	}
	candidates = append(candidates, "data")
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "data"))
	}
	for _, dir := range candidates {
		if isBaseDir(dir) {
			return dir, nil
		}
	}
	return "", errs.New("dataloader", errs.CodeInvalid,
		errs.WithMessage("no definition directory found"),
		errs.WithField("hint", hint))
}

// isBaseDir accepts any directory carrying a goods file, the one
// definition file every data set must have.
func isBaseDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, goodsFile))
	return err == nil && !info.IsDir()
}
