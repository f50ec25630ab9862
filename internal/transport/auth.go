package transport

import "net/http"

// AttachAuth returns a copy of req carrying the bearer token. The input
// request is never modified; an empty token removes any Authorization header.
func AttachAuth(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	if token == "" {
		out.Header.Del("Authorization")
		return out
	}
	out.Header.Set("Authorization", "Bearer "+token)
	return out
}
