package commands

import "os"

type ShopConfig struct {
	BaseUrl    string `json:"base_url"`
	CookieName string `json:"cookie_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`

	DurationFormat string `json:"duration_format"`
}

type MediaConfig struct {
	BaseUrl    string            `json:"base_url"`
	CookieName string            `json:"cookie_name"`
	LoginToken string            `json:"login_token"`
	SiteId     string            `json:"site_id"`
	Filters    map[string]string `json:"filters"`
}

// Config is the slice of the server's config.json5 the CLI cares about,
// so the two binaries can share one config file.
type Config struct {
	Shop  ShopConfig  `json:"shop"`
	Media MediaConfig `json:"media"`
}

func (c Config) withEnvSecrets() Config {
	if c.Shop.Email == "" {
		c.Shop.Email = os.Getenv("SHOP_EMAIL")
	}
	if c.Shop.Password == "" {
		c.Shop.Password = os.Getenv("SHOP_PASSWORD")
	}
	if c.Media.LoginToken == "" {
		c.Media.LoginToken = os.Getenv("MEDIA_LOGIN_TOKEN")
	}
	return c
}
