package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// source is one chart to check: a plain file or an entry of an .osz archive.
type source struct {
	Name string
	read func() ([]byte, error)
}

func (s source) Read() ([]byte, error) { return s.read() }

func isChart(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".osu")
}

func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".osz")
}

// OpenSources expands the given paths into chart sources. Directories are
// walked for .osu and .osz files; archives contribute one source per chart.
func OpenSources(paths []string) ([]source, error) {
	var out []source
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			srcs, err := openFile(p)
			if err != nil {
				return nil, err
			}
			out = append(out, srcs...)
			continue
		}

		var files []string
		if err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && (isChart(d.Name()) || isArchive(d.Name())) {
				files = append(files, path)
			}
			return nil
		}); err != nil {
			return nil, err
		}
		sort.Strings(files)
		for _, f := range files {
			srcs, err := openFile(f)
			if err != nil {
				return nil, err
			}
			out = append(out, srcs...)
		}
	}
	return out, nil
}

func openFile(path string) ([]source, error) {
	switch {
	case isArchive(path):
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files, err := OpenSet(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]source, 0, len(names))
		for _, name := range names {
			data := files[name]
			out = append(out, source{
				Name: path + "/" + name,
				read: func() ([]byte, error) { return data, nil },
			})
		}
		return out, nil
	case isChart(path):
		return []source{{Name: path, read: func() ([]byte, error) { return os.ReadFile(path) }}}, nil
	}
	return nil, fmt.Errorf("%s: not an .osu or .osz file", path)
}

// OpenSet reads the .osu charts out of an .osz archive, keyed by file name.
// Entries in subdirectories are skipped.
func OpenSet(data []byte) (map[string][]byte, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("error opening osz (zip): %w", err)
	}

	osuFiles := make(map[string][]byte)
	for _, file := range zipReader.File {
		if !isChart(file.Name) || file.FileInfo().IsDir() {
			continue
		}
		if strings.Contains(file.Name, "/") || strings.Contains(file.Name, "\\") {
			continue
		}
		contents, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("error reading .osu file %s: %w", file.Name, err)
		}
		osuFiles[file.Name] = contents
	}
	if len(osuFiles) == 0 {
		return nil, fmt.Errorf("no .osu files found in the archive")
	}
	return osuFiles, nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	r, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
