package middleware

// WildcardOrigin in the allow-list accepts every origin.
const WildcardOrigin = "*"

// OriginAllowed reports whether origin may call the API from a browser.
// Both the CORS headers and the cart socket handshake use it.
func OriginAllowed(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == WildcardOrigin || allowed == origin {
			return true
		}
	}
	return false
}
