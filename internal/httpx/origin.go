package httpx

import (
	"net/http"

	"github.com/asad/userstate/internal/origin"
)

// HeaderSigner carries the verified signer's account id. Signature checking
// is done by the gateway in front of the node; a request without the header
// (or with a malformed one) is dispatched with an unsigned origin.
const HeaderSigner = "X-Signer"

// SignerOrigin resolves the request origin from HeaderSigner and stores it
// in the request context.
func SignerOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o := origin.None()
		if v := r.Header.Get(HeaderSigner); v != "" {
			if who, err := origin.ParseAccountID(v); err == nil {
				o = origin.Signed(who)
			}
		}
		next.ServeHTTP(w, r.WithContext(origin.NewContext(r.Context(), o)))
	})
}
