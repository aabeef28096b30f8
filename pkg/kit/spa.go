package kit

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPA serves static files from root and falls back to root/index.html for
// GET/HEAD paths that do not name a file, so client-side routes resolve.
func SPA(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	index := filepath.Join(root, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}

		name := path.Clean("/" + r.URL.Path)
		fi, err := os.Stat(filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(name, "/"))))
		if err == nil && !fi.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		http.ServeFile(w, r, index)
	})
}
