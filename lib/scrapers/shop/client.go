// Package shop speaks the booking backend's form-encoded POST protocol.
// The backend routes everything through one endpoint discriminated by
// ctrl/do parameters and carries the session in a custom cookie.
package shop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fooni-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = telemetry.Tracer("scrapers/shop")

var (
	// ErrAuthProtocol means the backend did not hand out the expected
	// session cookie, which it does unconditionally for anonymous
	// requests. Seeing this is a backend contract violation.
	ErrAuthProtocol = errors.New("shop: no session cookie on response")
	// ErrInvalidCredentials is the backend explicitly rejecting the
	// login. Not worth retrying.
	ErrInvalidCredentials = errors.New("shop: invalid credentials")
	ErrUnexpectedStatus   = errors.New("shop: unexpected status")
)

// the backend answers a rejected login with this literal body and a 200
const invalidLoginSentinel = "invalid"

const DefaultCookieName = "Tunn3lShop"

type ClientOptions struct {
	BaseUrl string
	// CookieName defaults to DefaultCookieName when empty.
	CookieName string
}

type Client struct {
	Http       *resty.Client
	CookieName string
}

func NewClient(opts ClientOptions) Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	// the login handshake must observe raw 3xx responses, their
	// set-cookie headers included
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	// 2 requests max per second
	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "scrapers/shop/http")

	cookieName := opts.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return Client{
		Http:       client,
		CookieName: cookieName,
	}
}

func sessionCookie(res *resty.Response, name string) string {
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// AcquireSession performs the password login. The session cookie is minted
// on the very first anonymous request; the login POST merely elevates its
// privilege, so the value returned is the cookie from the handshake.
func (c Client) AcquireSession(ctx context.Context, email, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:AcquireSession")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get("")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch anonymous page")
		return "", err
	}

	session := sessionCookie(res, c.CookieName)
	if session == "" {
		span.SetStatus(codes.Error, ErrAuthProtocol.Error())
		return "", fmt.Errorf("%w: expected %q", ErrAuthProtocol, c.CookieName)
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetHeader("Cookie", fmt.Sprintf("%s=%s", c.CookieName, session)).
		SetFormData(map[string]string{
			"ctrl":     "do",
			"do":       "checkout_connect_user",
			"email":    email,
			"password": password,
		}).
		Post("")
	if err != nil {
		span.SetStatus(codes.Error, "failed to make login request")
		return "", err
	}

	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected login status")
		return "", fmt.Errorf("%w: got %d from login", ErrUnexpectedStatus, res.StatusCode())
	}
	if res.String() == invalidLoginSentinel {
		span.SetStatus(codes.Error, ErrInvalidCredentials.Error())
		return "", ErrInvalidCredentials
	}

	return session, nil
}

// FetchBookings returns the raw response of the customer bookings action,
// the backend's full append-only reservation history.
func (c Client) FetchBookings(ctx context.Context, session string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:FetchBookings")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Cookie", fmt.Sprintf("%s=%s", c.CookieName, session)).
		SetFormData(map[string]string{
			"ctrl":            "do",
			"do":              "getCustomerBookings",
			"format":          "1",
			"origin_customer": "1",
		}).
		Post("")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch bookings")
		return nil, err
	}

	return res.Body(), nil
}
