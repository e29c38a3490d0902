package storage

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"
)

const valueSlot = "value"

// Cookie is a Storage bound to a single request/response pair. Every key
// is its own session, and therefore its own cookie, in the underlying
// session store.
type Cookie struct {
	store sessions.Store
	r     *http.Request
	w     http.ResponseWriter
}

func NewCookie(store sessions.Store, r *http.Request, w http.ResponseWriter) *Cookie {
	return &Cookie{store: store, r: r, w: w}
}

// NewCookieStore returns the session store used for client storage.
// Cookies are signed and encrypted with keys derived from secret. Secure
// cookies are turned off in dev mode so plain http works locally.
func NewCookieStore(secret string, dev bool) (*sessions.CookieStore, error) {
	if secret == "" {
		return nil, errors.New("cookie secret is empty")
	}

	hashKey, err := deriveKey(secret, "cookbook cookie signing", 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(secret, "cookbook cookie encryption", 32)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   !dev,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

func deriveKey(secret, purpose string, size int) ([]byte, error) {
	key := make([]byte, size)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving %s key: %w", purpose, err)
	}
	return key, nil
}

func (c *Cookie) GetItem(key string) (string, bool, error) {
	session, err := c.store.Get(c.r, key)
	if err != nil {
		// tampered or stale cookies decode to a fresh session
		if session == nil || !session.IsNew {
			return "", false, fmt.Errorf("reading %s: %w", key, err)
		}
	}
	if session.IsNew {
		return "", false, nil
	}

	v, ok := session.Values[valueSlot].(string)
	return v, ok, nil
}

func (c *Cookie) SetItem(key, value string) error {
	session, _ := c.store.Get(c.r, key)
	session.Values[valueSlot] = value
	if session.Options != nil {
		session.Options.MaxAge = maxAge(c.store)
	}
	if err := session.Save(c.r, c.w); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func (c *Cookie) RemoveItem(key string) error {
	session, _ := c.store.Get(c.r, key)
	delete(session.Values, valueSlot)
	if session.Options == nil {
		session.Options = &sessions.Options{Path: "/"}
	}
	session.Options.MaxAge = -1
	if err := session.Save(c.r, c.w); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// maxAge restores the store's lifetime on a session that was expired
// earlier in the same request.
func maxAge(store sessions.Store) int {
	if cs, ok := store.(*sessions.CookieStore); ok && cs.Options != nil {
		return cs.Options.MaxAge
	}
	return 86400 * 30
}
