package raster

import (
	"os"
	"path/filepath"
	"strings"
)

// sidecarCandidates lists "<base><ext>" then "<path><ext>"
func sidecarCandidates(path, ext string) []string {
	base := strings.TrimSuffix(path, filepath.Ext(path)) + ext
	if base == path+ext {
		return []string{base}
	}
	return []string{base, path + ext}
}

// findSidecar returns the first existing candidate, or ""
func findSidecar(path, ext string) string {
	for _, c := range sidecarCandidates(path, ext) {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c
		}
	}
	return ""
}

// readCRS loads the WKT from the .prj sidecar. A missing or blank file
// means the raster has no coordinate system.
func readCRS(path string) (string, error) {
	prj := findSidecar(path, ".prj")
	if prj == "" {
		return "", nil
	}
	data, err := os.ReadFile(prj)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func writeCRS(path, wkt string) error {
	if wkt == "" {
		return nil
	}
	return os.WriteFile(path+".prj", []byte(wkt+"\n"), 0644)
}
