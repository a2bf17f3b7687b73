// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package xrayserve

import (
	"bytes"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestGofmt(t *testing.T) {
	if _, err := exec.LookPath("gofmt"); err != nil {
		t.Skip("gofmt is not installed")
	}

	var w bytes.Buffer
	gofmt := exec.Command("gofmt", "-l", "cmd", "internal")
	gofmt.Stdout = &w
	gofmt.Stderr = &w
	if err := gofmt.Run(); err != nil {
		t.Fatalf("gofmt failed: %v\n\n%v", err, w.String())
	}
	if files := strings.TrimSpace(w.String()); files != "" {
		t.Fatalf("run gofmt on these files:\n%s", files)
	}
}

func TestCopyrightHeader(t *testing.T) {
	for _, root := range []string{"cmd", "internal"} {
		if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != ".go" {
				return nil
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if !bytes.HasPrefix(b, []byte("// © ")) || !bytes.Contains(b, []byte("license that can be found in the LICENSE.md file.")) {
				t.Errorf("%s has no copyright header", path)
			}
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
}
