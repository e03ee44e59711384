package middleware

import "net/http"

const MsgBodyTooLarge = "Request body too large"

// BodyLimit rejects bodies larger than n bytes with 413. Declared lengths are
// refused before the handler runs; undeclared ones are capped with
// http.MaxBytesReader and surface as *http.MaxBytesError on read.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > n {
				writeError(w, http.StatusRequestEntityTooLarge, errorBody{Message: MsgBodyTooLarge})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
