// Where: internal/archive/archive.go
// What: Deployable bundle packaging.
// Why: Function code must ship as a compressed archive with stable relative paths.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Build writes a compressed archive of sourcePath to zipPath.
// A directory source is archived recursively with slash-separated
// relative paths, directory entries included; a file source becomes a
// single entry named after its base name. The archive is left on disk
// for the caller.
func Build(sourcePath, zipPath string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	writer := zip.NewWriter(out)
	if info.IsDir() {
		err = writeDir(writer, sourcePath)
	} else {
		err = writeFile(writer, sourcePath, filepath.Base(sourcePath))
	}
	if err != nil {
		writer.Close()
		out.Close()
		return err
	}

	if err := writer.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Close()
}

func writeDir(writer *zip.Writer, root string) error {
	// WalkDir visits entries in lexical order, so the entry order is
	// deterministic for a given file set.
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		if entry.IsDir() {
			if _, err := writer.Create(name + "/"); err != nil {
				return fmt.Errorf("add directory %s: %w", name, err)
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		return writeFile(writer, path, name)
	})
}

func writeFile(writer *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := writer.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add file %s: %w", name, err)
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
