package download

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"stickscraper/pkg/errors"
	"stickscraper/pkg/logger"
	"stickscraper/pkg/store"
)

// fileNamePattern extracts the archive filename from a grab.php link
var fileNamePattern = regexp.MustCompile(`file=(.+)`)

// Fetcher fetches a URL and returns the response body. It is satisfied
// by droidz.Client, which also applies rate limiting and resolves
// relative links against the site base URL.
type Fetcher interface {
	Get(url string) ([]byte, error)
}

// Options controls a download run.
type Options struct {
	// Overwrite re-downloads entries whose directory already exists
	Overwrite bool
	// Extract unpacks zip archives after download and removes the archive
	Extract bool
}

// Downloader fetches archives into per-stick directories under a root
// directory. Each stick gets <root>/<id>/<filename> where the filename
// comes from the recorded download link.
type Downloader struct {
	store       *store.Store
	fetcher     Fetcher
	rootDir     string
	extractTool string
	logger      logger.Logger

	// runCommand is swapped out in tests
	runCommand func(name string, args ...string) error
}

// New creates a Downloader rooted at rootDir. extractTool is the resolved
// path of the extraction executable and may be empty when extraction is
// not requested.
func New(st *store.Store, fetcher Fetcher, rootDir, extractTool string, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Downloader{
		store:       st,
		fetcher:     fetcher,
		rootDir:     rootDir,
		extractTool: extractTool,
		logger:      log,
		runCommand: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// LookupExtractTool resolves the extraction executable on PATH. Callers
// should invoke this before any network traffic so a missing tool is
// reported up front rather than mid-run.
func LookupExtractTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.MissingToolf("extraction tool %q not found on PATH", name)
	}
	return path, nil
}

// FileNameFromLink extracts the archive filename from a download link.
func FileNameFromLink(link string) (string, error) {
	m := fileNamePattern.FindStringSubmatch(link)
	if m == nil {
		return "", errors.Parsef("download link %q has no file parameter", link)
	}
	return m[1], nil
}

// Download fetches the archive for one stick. An existing entry directory
// means the stick was already downloaded and is skipped unless Overwrite
// is set.
func (d *Downloader) Download(id string, opts Options) error {
	dir := filepath.Join(d.rootDir, id)

	if _, err := os.Stat(dir); err == nil && !opts.Overwrite {
		d.logger.WithField("id", id).Debug("Already downloaded, skipping")
		return nil
	}

	link, err := d.store.DownloadLink(id)
	if err != nil {
		return err
	}

	filename, err := FileNameFromLink(link)
	if err != nil {
		return err
	}

	data, err := d.fetcher.Get(link)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	archive := filepath.Join(dir, filename)
	if err := writeFileAtomic(archive, data); err != nil {
		return err
	}

	d.logger.WithFields(map[string]interface{}{
		"id":   id,
		"file": filename,
		"size": len(data),
	}).Info("Archive downloaded")

	if opts.Extract {
		return d.extract(archive, dir)
	}
	return nil
}

// DownloadAll fetches the archive for every known stick. Failures are
// logged and the run continues; the first failure is returned at the end.
func (d *Downloader) DownloadAll(opts Options) error {
	ids, err := d.store.AllIDs()
	if err != nil {
		return err
	}

	d.logger.WithField("count", len(ids)).Info("Downloading archives")

	var firstErr error
	for _, id := range ids {
		if err := d.Download(id, opts); err != nil {
			d.logger.WithFields(map[string]interface{}{
				"id":    id,
				"error": err.Error(),
			}).Error("Download failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// extract unpacks a zip archive into dir and removes the archive on
// success. Only zip archives are extracted; some of the site's archives
// carry a .zip name but are actually rars, which the tool handles, while
// genuinely different formats are left alone.
func (d *Downloader) extract(archive, dir string) error {
	if !strings.EqualFold(filepath.Ext(archive), ".zip") {
		d.logger.WithField("file", filepath.Base(archive)).Debug("Not a zip archive, leaving as is")
		return nil
	}

	// Trailing separator tells the tool the last argument is a directory
	dest := dir + string(os.PathSeparator)
	if err := d.runCommand(d.extractTool, "x", "-o+", "-ibck", archive, "*.*", dest); err != nil {
		return fmt.Errorf("failed to extract %s: %w", filepath.Base(archive), err)
	}

	if err := os.Remove(archive); err != nil {
		return fmt.Errorf("failed to remove extracted archive: %w", err)
	}

	d.logger.WithField("file", filepath.Base(archive)).Info("Archive extracted")
	return nil
}

// writeFileAtomic writes data via a temporary file and rename so an
// interrupted download never leaves a truncated archive behind.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write archive: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
