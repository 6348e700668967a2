package auth

// publicPaths lists route paths that bypass authentication. These are the
// unauthenticated product surfaces (signup, login, public camp listings, the
// heatmap feed, pre-login translation) plus infrastructure endpoints (health
// checks, metrics).
var publicPaths = map[string]bool{
	"/":                        true,
	"/health":                  true,
	"/health/db":               true,
	"/metrics":                 true,
	"/api/signup":              true,
	"/api/login":               true,
	"/api/camps":               true,
	"/api/camps/nearby":        true,
	"/api/local-organisations": true,
	"/api/heatmap_data":        true,
	"/api/translate":           true,
}

// IsPublicPath reports whether the given route path should bypass auth.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
