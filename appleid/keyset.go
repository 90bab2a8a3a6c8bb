package appleid

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidSignature is returned when an identity token is not signed by
// one of Apple's published keys.
var ErrInvalidSignature = errors.New("appleid: invalid ID token signature")

const keySetTTL = time.Hour

// KeySet verifies identity token signatures against Apple's JWKS.
type KeySet struct {
	url  string
	http *http.Client

	refresh singleflight.Group

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

// NewKeySet returns a KeySet for the JWKS at url. A nil httpClient uses an
// in-memory caching client that honours the endpoint's cache headers.
func NewKeySet(url string, httpClient *http.Client) *KeySet {
	if url == "" {
		url = KeysURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: httpcache.NewTransport(httpcache.NewMemoryCache()),
			Timeout:   10 * time.Second,
		}
	}
	return &KeySet{url: url, http: httpClient}
}

// Verify checks the RS256 signature of idToken. Claims are validated
// separately by ParseIdentityClaims.
func (k *KeySet) Verify(ctx context.Context, idToken string) error {
	_, err := jwt.Parse(idToken, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return k.key(ctx, kid)
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithoutClaimsValidation())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

func (k *KeySet) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.Lock()
	key, ok := k.keys[kid]
	fresh := time.Now().Before(k.expires)
	k.mu.Unlock()
	if ok && fresh {
		return key, nil
	}

	// Concurrent misses share one fetch. The lock is never held across it.
	v, err, _ := k.refresh.Do("jwks", func() (any, error) {
		keys, err := k.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		k.mu.Lock()
		k.keys = keys
		k.expires = time.Now().Add(keySetTTL)
		k.mu.Unlock()
		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	key, ok = v.(map[string]*rsa.PublicKey)[kid]
	if !ok {
		return nil, fmt.Errorf("kid not found in JWKS: %s", kid)
	}
	return key, nil
}

func (k *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create JWKS request: %w", err)
	}
	resp, err := k.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS request failed: %s", resp.Status)
	}

	var set struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode JWKS: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, j := range set.Keys {
		key, err := j.publicKey()
		if err != nil {
			log.Warn().Err(err).Str("kid", j.Kid).Msg("skipping JWK")
			continue
		}
		keys[j.Kid] = key
	}
	return keys, nil
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (j jwk) publicKey() (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", j.Kty)
	}
	n, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}
