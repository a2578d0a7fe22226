package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsBrowsableFile checks if a file has an extension the viewer can display
func IsBrowsableFile(filename string) bool {
	ext := GetFileExtension(filename)
	browsableExts := []string{
		"jpg", "jpeg", "png", "gif", "bmp", "tiff", "tif", "webp",
		"arw", "cr2", "cr3", "dng", "nef", "nrw", "orf", "pef", "raf", "rw2", "srw",
	}

	for _, browsable := range browsableExts {
		if ext == browsable {
			return true
		}
	}
	return false
}

// ListBrowsableFiles recursively lists all displayable image files in a
// directory, sorted by path so navigation order is stable across runs.
func ListBrowsableFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && IsBrowsableFile(path) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
