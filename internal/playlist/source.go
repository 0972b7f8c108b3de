package playlist

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"player-control/internal/media"
)

// Scan lists the playable media files directly inside dir, sorted.
func Scan(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if media.IsSupported(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

// LoadM3U reads an .m3u/.m3u8 list. Comment and blank lines are skipped;
// relative paths are resolved against the list's directory.
func LoadM3U(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}

	base := filepath.Dir(path)
	var uris []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "://") && !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		uris = append(uris, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse playlist: %w", err)
	}
	return uris, nil
}

// Resolve turns command-line arguments into a URI list. A single
// directory is scanned, a single local .m3u file is loaded, anything else
// is taken literally.
func Resolve(fs afero.Fs, args []string) ([]string, error) {
	if len(args) != 1 {
		return args, nil
	}
	arg := args[0]
	if media.IsRemote(arg) {
		return args, nil
	}

	if isDir, err := afero.IsDir(fs, arg); err == nil && isDir {
		return Scan(fs, arg)
	}
	if ext := strings.ToLower(filepath.Ext(arg)); ext == ".m3u" {
		return LoadM3U(fs, arg)
	}
	return args, nil
}
