package cart

import (
	"net/http"
	"time"
)

const (
	CookieName = "cart"
	// MaxAge is refreshed on every write.
	MaxAge = 7 * 24 * time.Hour
)

// CookieJar reads and writes the cart cookie.
type CookieJar struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func NewCookieJar(secure bool) CookieJar {
	return CookieJar{Name: CookieName, MaxAge: MaxAge, Secure: secure}
}

// Load returns the cart carried by r. The error is informational only: when
// it is non-nil the returned cart is empty and callers proceed with it.
func (j CookieJar) Load(r *http.Request) (Cart, error) {
	ck, err := r.Cookie(j.name())
	if err != nil {
		return Cart{}, nil
	}
	return decode(ck.Value)
}

func (j CookieJar) Save(w http.ResponseWriter, c Cart) error {
	v, err := Encode(c)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     j.name(),
		Value:    v,
		Path:     "/",
		MaxAge:   int(j.maxAge().Seconds()),
		SameSite: http.SameSiteLaxMode,
		Secure:   j.Secure,
	})
	return nil
}

func (j CookieJar) name() string {
	if j.Name == "" {
		return CookieName
	}
	return j.Name
}

func (j CookieJar) maxAge() time.Duration {
	if j.MaxAge <= 0 {
		return MaxAge
	}
	return j.MaxAge
}
