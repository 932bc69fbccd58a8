// Package media speaks the video backend's query-parameterized GET
// protocol and scrapes its proflyer listing page. Sessions come from a
// one-time login token exchange rather than a password login.
package media

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

var tracer = telemetry.Tracer("scrapers/media")

// ErrAuthProtocol means the login token exchange did not yield the
// expected session cookie.
var ErrAuthProtocol = errors.New("media: no session cookie on response")

const DefaultCookieName = "Tunn3lMedia"

type ClientOptions struct {
	// BaseUrl is the host root, the api endpoint and the listing page
	// hang off different paths.
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
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "scrapers/media/http")

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

// AcquireSession exchanges the caller-supplied one-time login token for a
// session cookie. The backend trusts the token, there is no rejection
// branch to distinguish.
func (c Client) AcquireSession(ctx context.Context, loginToken string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:AcquireSession")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ctrl":        "api",
			"do":          "proflyer_login",
			"login_token": loginToken,
		}).
		Get("/index.php")
	if err != nil {
		span.SetStatus(codes.Error, "failed to make login request")
		return "", err
	}

	session := sessionCookie(res, c.CookieName)
	if session == "" {
		span.SetStatus(codes.Error, ErrAuthProtocol.Error())
		return "", fmt.Errorf("%w: expected %q", ErrAuthProtocol, c.CookieName)
	}

	return session, nil
}

// SetFilter scopes subsequent listing calls server-side. Fire-and-forget
// groundwork, the listing is nondeterministic without it but nothing
// downstream depends on the response.
func (c Client) SetFilter(ctx context.Context, session, name, value string) error {
	ctx, span := tracer.Start(ctx, "client:SetFilter")
	defer span.End()

	_, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Cookie", fmt.Sprintf("%s=%s", c.CookieName, session)).
		SetQueryParams(map[string]string{
			"ctrl":         "do",
			"do":           "set_filter",
			"namespace":    "proflyer",
			"filter_name":  name,
			"filter_value": value,
		}).
		Get("/index.php")
	if err != nil {
		span.SetStatus(codes.Error, "failed to set filter")
		return err
	}
	return nil
}

// FetchListing returns the raw HTML of the proflyer listing page.
func (c Client) FetchListing(ctx context.Context, session string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:FetchListing")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Cookie", fmt.Sprintf("%s=%s", c.CookieName, session)).
		Get("/proflyer")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch listing")
		return nil, err
	}

	return res.Body(), nil
}
