package middleware

import (
	"net/http"
	"strings"
)

// RewriteMDX maps page URLs with an .mdx suffix onto the per-page text route:
// {base}/{path}.mdx becomes {target}/{path} and {base}.mdx becomes {target}.
func RewriteMDX(baseURL, target string) func(http.Handler) http.Handler {
	base := "/" + strings.Trim(baseURL, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rewritten, ok := rewriteMDXPath(r.URL.Path, base, target); ok {
				r2 := r.Clone(r.Context())
				r2.URL.Path = rewritten
				r2.URL.RawPath = ""
				r = r2
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rewriteMDXPath(path, base, target string) (string, bool) {
	if !strings.HasSuffix(path, ".mdx") || path == target || strings.HasPrefix(path, target+"/") {
		return "", false
	}
	stem := strings.TrimSuffix(path, ".mdx")
	switch {
	case base != "/" && stem == base:
		return target, true
	case base == "/" && stem != "":
		return target + stem, true
	case base != "/" && strings.HasPrefix(stem, base+"/"):
		return target + strings.TrimPrefix(stem, base), true
	}
	return "", false
}
