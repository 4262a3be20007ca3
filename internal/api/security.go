package api

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/avelinak/atelier-shop/internal/domain/auth"
)

// requireAPIKey authenticates a request by hashing the provided API key under
// the server pepper, looking it up in the repository, and performing a
// constant-time comparison to prevent timing attacks.
func (h *Handler) requireAPIKey(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		hash := auth.HashKey(key, h.apiKeyPepper)
		info, err := h.apikeys.FindByHash(r.Context(), hash)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		// Constant-time comparison guards against timing side-channels even
		// though the lookup already succeeded: the stored hash could differ
		// from what we computed if the repository returns a stale row.
		computed, err := hex.DecodeString(hash)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		if subtle.ConstantTimeCompare(computed, stored) != 1 {
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		next(w, r)
	})
}
