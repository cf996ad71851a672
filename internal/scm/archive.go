package scm

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// Archive writes srcDir as a gzip compressed tarball to dest. Entries are stored below
// prefix. Version control metadata directories are left out. The file is written under a
// temporary name and renamed when complete.
func Archive(srcDir, dest, prefix string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return archiveError(err, dest)
	}
	tmp := dest + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return archiveError(err, dest)
	}
	defer func() { _ = os.Remove(tmp) }()

	if err := writeArchive(f, srcDir, prefix); err != nil {
		_ = f.Close()
		return archiveError(err, dest)
	}
	if err := f.Close(); err != nil {
		return archiveError(err, dest)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return archiveError(err, dest)
	}
	return nil
}

func archiveError(err error, dest string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, "cannot write source archive").
		WithContext("path", dest).
		Build()
}

func writeArchive(w io.Writer, srcDir, prefix string) error {
	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && (d.Name() == ".git" || d.Name() == ".svn") {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		return addEntry(tw, path, filepath.ToSlash(filepath.Join(prefix, rel)), d)
	})
	if walkErr != nil {
		return walkErr
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addEntry(tw *tar.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	}
	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	// #nosec G304 - path comes from walking the source directory
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	_, err = io.Copy(tw, src)
	return err
}
