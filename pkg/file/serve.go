package file

import "net/http"

// PublicHandler serves files from dir. Responses carry nosniff and a
// sandboxing CSP so stored uploads never render as active content.
func PublicHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Content-Security-Policy", "default-src 'none'; sandbox")
		fs.ServeHTTP(w, r)
	})
}
