package middleware

import (
	"context"
	"net/http"

	"github.com/pborman/uuid"
)

// type to create context.Context key
type CtxTransactionKeyType string

// context.Context key to get the transaction ID from the request context
const CtxTransactionKey CtxTransactionKeyType = "ctxTransaction"

// NewTransactionID tags each inbound request with a transaction ID, available
// from the request context and echoed on the response for caller-side
// correlation with the connector's backend request logs.
func NewTransactionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tx := uuid.New()
		r = r.WithContext(context.WithValue(r.Context(), CtxTransactionKey, tx))
		w.Header().Set("X-Transaction-Id", tx)
		next.ServeHTTP(w, r)
	})
}
