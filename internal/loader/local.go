package loader

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalHandler walks a directory tree or a single jar/zip archive on the
// local filesystem, emitting every ".class" member. It is the built-in
// default handler for URL-based (plain file) class-loader roots.
type LocalHandler struct{}

// NewLocalHandler creates a LocalHandler.
func NewLocalHandler() *LocalHandler {
	return &LocalHandler{}
}

// Walk dispatches to a directory walk or an archive walk depending on
// whether root names a directory or a file.
func (h *LocalHandler) Walk(ctx context.Context, root string, emit func(relativePath string, r io.Reader) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat classpath root %s: %w", root, err)
	}
	if info.IsDir() {
		return h.walkDir(ctx, root, emit)
	}
	return h.walkArchive(ctx, root, emit)
}

func (h *LocalHandler) walkDir(ctx context.Context, root string, emit func(relativePath string, r io.Reader) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".class") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		err = emit(rel, f)
		f.Close()
		return err
	})
}

func (h *LocalHandler) walkArchive(ctx context.Context, archivePath string, emit func(relativePath string, r io.Reader) error) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if entry.FileInfo().IsDir() || !strings.HasSuffix(entry.Name, ".class") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open archive entry %s: %w", entry.Name, err)
		}
		err = emit(entry.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
