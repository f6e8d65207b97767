package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "Sf-Request-Id"
	HeaderRequestAt = "Sf-Request-At"
	HeaderWalletID  = "Sf-Wallet-Id"

	keyPrefix = "idemp:sf:"

	// How long the in-progress marker lives if the handler never finishes.
	provisionalLockTTL = 60 * time.Second
	// Allowed client/server clock skew for Sf-Request-At.
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second

	anonymousWallet = "anon"
)

var (
	reRequestID = regexp.MustCompile(`^([a-f0-9]{32}|[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12})$`)
	reWallet    = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// requestKey scopes a request id to one wallet and one concrete path, so the
// same id sent to two wizards never shares a stored response.
type requestKey struct {
	method string
	path   string
	wallet string
	id     string
}

func newRequestKey(req *http.Request, reqID string) (requestKey, error) {
	wallet := strings.TrimSpace(req.Header.Get(HeaderWalletID))
	switch {
	case wallet == "":
		wallet = anonymousWallet
	case !reWallet.MatchString(wallet):
		return requestKey{}, errors.New("invalid " + HeaderWalletID)
	}
	return requestKey{
		method: strings.ToLower(req.Method),
		path:   req.URL.Path,
		wallet: wallet,
		id:     reqID,
	}, nil
}

func (k requestKey) String() string {
	return keyPrefix + k.wallet + ":" + k.method + ":" + k.path + ":" + k.id
}

// parseRequestAt accepts epoch milliseconds or RFC3339 with a zone.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch milliseconds or RFC3339 with a zone")
}

type storedResponse struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code,omitempty"`
	Body       []byte    `json:"body,omitempty"`
	BodyHash   string    `json:"body_hash"`
	RequestAt  time.Time `json:"request_at"`
}

func hashBody(b []byte) string {
	s := sha256.Sum256(b)
	return hex.EncodeToString(s[:])
}

// responseStore keeps one storedResponse per requestKey in Redis.
type responseStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// claim writes the in-progress marker. It reports false when the key is taken.
func (s responseStore) claim(ctx context.Context, k requestKey, r storedResponse) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, k.String(), payload, provisionalLockTTL).Result()
}

func (s responseStore) load(ctx context.Context, k requestKey) (storedResponse, error) {
	var r storedResponse
	raw, err := s.rdb.Get(ctx, k.String()).Bytes()
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("decode stored response: %w", err)
	}
	return r, nil
}

func (s responseStore) complete(ctx context.Context, k requestKey, r storedResponse) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, k.String(), payload, s.ttl).Err()
}

// release frees the key so the client can retry with the same request id.
func (s responseStore) release(ctx context.Context, k requestKey) error {
	return s.rdb.Del(ctx, k.String()).Err()
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

// Idempotency replays the stored response of a mutating request keyed by
// wallet, method, path and Sf-Request-Id. Requests without Sf-Wallet-Id are
// keyed as anonymous. 5xx responses are released so the client can retry.
func Idempotency(rdb *redis.Client, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	store := responseStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get(HeaderRequestID))
			if reqID == "" {
				return badRequest(c, "missing "+HeaderRequestID)
			}
			if !reRequestID.MatchString(reqID) {
				return badRequest(c, "invalid "+HeaderRequestID+" format")
			}
			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return badRequest(c, err.Error())
			}
			now := time.Now().UTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return badRequest(c, HeaderRequestAt+" too skewed")
			}
			key, err := newRequestKey(req, reqID)
			if err != nil {
				return badRequest(c, err.Error())
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			hash := hashBody(body)
			log := log.With(zap.String("key", key.String()))

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()
			ok, err := store.claim(ctx, key, storedResponse{InProgress: true, BodyHash: hash, RequestAt: reqAt})
			if err != nil {
				log.Error("idempotency store unavailable", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !ok {
				prev, err := store.load(ctx, key)
				if err != nil {
					log.Warn("idempotency entry load failed", zap.Error(err))
				}
				switch {
				case prev.BodyHash != "" && prev.BodyHash != hash:
					return c.JSON(http.StatusConflict, map[string]string{"error": HeaderRequestID + " reused with different body"})
				case !prev.InProgress && prev.Code != 0:
					log.Debug("idempotent replay", zap.Int("code", prev.Code))
					return c.Blob(prev.Code, echo.MIMEApplicationJSON, prev.Body)
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// The request context may already be done; the write-back must still land.
			wctx, wcancel := context.WithTimeout(context.Background(), storeTimeout)
			defer wcancel()
			if rec.code >= http.StatusInternalServerError {
				if err := store.release(wctx, key); err != nil {
					log.Warn("idempotency release failed", zap.Error(err))
				}
				return nil
			}
			done := storedResponse{Code: rec.code, Body: rec.buf.Bytes(), BodyHash: hash, RequestAt: reqAt}
			if err := store.complete(wctx, key, done); err != nil {
				log.Warn("idempotency save failed", zap.Error(err))
			}
			return nil
		}
	}
}
