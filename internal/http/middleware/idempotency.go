package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries a client-chosen key that makes a booking
// submission safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemScope  = "idem.scope"
	ctxKeyIdemReplay = "idem.replay" // string: message id of the stored result
	ctxKeyIdemHash   = "idem.hash"
)

// KeyReusedMessage answers a known key sent with a different body.
const KeyReusedMessage = "Idempotency-Key was already used for a different booking"

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key and its scope.
func GetIdempotencyKey(c *gin.Context) (key, scope string, ok bool) {
	key = asString(c.Value(ctxKeyIdemKey))
	scope = asString(c.Value(ctxKeyIdemScope))
	return key, scope, key != ""
}

// RequestHash returns the hex SHA-256 of the body of a keyed request.
func RequestHash(c *gin.Context) string {
	return asString(c.Value(ctxKeyIdemHash))
}

// ReplayID returns the stored message id when this request repeats a
// completed submission. The id may be empty when the provider sent none.
func ReplayID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return "", false
	}
	id, isStr := v.(string)
	return id, isStr
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the key length; <= 0 means 200.
	MaxLen int
	// Pattern restricts the key alphabet; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Scope namespaces keys per caller; nil means BookingKey.
	Scope KeyFunc
}

// StoredResult is what a completed keyed submission left behind.
type StoredResult struct {
	MessageID string
	// RequestHash fingerprints the body that produced MessageID. Empty
	// matches any body.
	RequestHash string
}

// IdempotencyLookup returns the result stored for (scope, key) when a live
// record exists. Lookup errors are logged and treated as a miss.
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (StoredResult, bool, error)

// IdempotencyValidator validates an optional Idempotency-Key header, stashes
// the key with its scope and body hash, and marks the request as a replay
// when lookup finds a stored result for the same body. Requests without the
// header pass through untouched; a malformed key is rejected with 400 and a
// known key carrying a different body with 422.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}
	scopeFn := opts.Scope
	if scopeFn == nil {
		scopeFn = BookingKey
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			AbortError(c, http.StatusBadRequest, "Invalid Idempotency-Key header")
			return
		}

		hash, err := hashBody(c.Request)
		if err != nil {
			AbortError(c, http.StatusInternalServerError, err.Error())
			return
		}

		scope := scopeFn(c)
		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)
		c.Set(ctxKeyIdemHash, hash)

		if lookup != nil {
			res, found, err := lookup(c.Request.Context(), scope, key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case found && res.RequestHash != "" && res.RequestHash != hash:
				AbortError(c, http.StatusUnprocessableEntity, KeyReusedMessage)
				return
			case found:
				c.Set(ctxKeyIdemReplay, res.MessageID)
			}
		}

		c.Next()
	}
}

// hashBody digests the request body and puts it back for the handler.
func hashBody(r *http.Request) (string, error) {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		_ = r.Body.Close()
		body = b
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
