package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Fail saves the input that failed a check next to a report of why,
// as <dir>/<cat>/<name> and <dir>/<cat>/<name>.txt.
func Fail(dir, cat, name string, input []byte, reason string) error {
	name = failName(name)
	log.Printf("fail: %s, %s", cat, name)
	base := filepath.Join(dir, cat, name)
	if input != nil {
		if err := writeFileAll(base, input); err != nil {
			return err
		}
	}
	return writeFileAll(base+".txt", []byte(reason))
}

// failName flattens a source name such as "set.osz/diff.osu" into one path element.
func failName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return r.Replace(strings.TrimLeft(name, "./\\"))
}

func writeFileAll(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
