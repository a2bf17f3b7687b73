// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package atomicio provides atomic file writing.
package atomicio

import (
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFile writes data to the file name atomically: readers either see no
// file or the complete file with mode perm, never a partially written one or
// one with wider permissions.
//
// Unlike os.WriteFile, an existing file is replaced, not truncated.
func WriteFile(name string, data []byte, perm fs.FileMode) (err error) {
	// Same directory, so os.Rename stays on one filesystem and is atomic.
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	// CreateTemp makes the file with mode 0600, so secrets are never
	// exposed while being written.
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), name)
}
