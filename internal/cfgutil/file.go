package cfgutil

import (
	"fmt"
	"os"
)

// FileExists reports whether the named file or directory exists.
func FileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CheckCreateDir creates path, including parents, if it does not exist
// yet. It fails if path exists but is not a directory.
func CheckCreateDir(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("error checking directory: %w", err)
		}
		if err := os.MkdirAll(path, 0700); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
		return nil
	}

	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
