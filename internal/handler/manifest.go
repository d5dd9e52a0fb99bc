package handler

import (
	"fmt"
	"hash/fnv"
	"io/fs"
	"net/http"
	"path/filepath"
	"sort"
)

type ManifestHandler struct {
	staticDir string
}

func NewManifestHandler(staticDir string) *ManifestHandler {
	return &ManifestHandler{staticDir: staticDir}
}

type cacheManifest struct {
	Version string   `json:"version"`
	Assets  []string `json:"assets"`
}

// CacheManifest lists every static asset with a version fingerprint derived
// from file sizes and mod times. The service worker compares versions to
// decide when to refresh its cache.
func (h *ManifestHandler) CacheManifest(w http.ResponseWriter, r *http.Request) {
	var assets []string
	hasher := fnv.New64a()

	err := filepath.WalkDir(h.staticDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(h.staticDir, path)
		if err != nil {
			return err
		}
		assets = append(assets, "/static/"+filepath.ToSlash(rel))

		info, err := d.Info()
		if err != nil {
			return err
		}
		fmt.Fprintf(hasher, "%s:%d:%d\n", rel, info.Size(), info.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to walk static assets")
		return
	}
	sort.Strings(assets)

	writeJSON(w, http.StatusOK, cacheManifest{
		Version: fmt.Sprintf("%x", hasher.Sum64()),
		Assets:  assets,
	})
}
