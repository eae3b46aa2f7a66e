package app

import (
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// GatewayConfig configures the API gateway, loadable from environment
// variables (SHOP_ prefix), flags, or YAML config files.
type GatewayConfig struct {
	Addr         string        `default:"0.0.0.0:8080" usage:"Gateway listen address"`
	Backends     BackendsConfig
	ProxyTimeout time.Duration `default:"10s" usage:"Timeout for a proxied request" flag:"proxy-timeout"`
	ProbeTimeout time.Duration `default:"2s" usage:"Timeout for a single backend health probe" flag:"probe-timeout"`
	RateLimit    RateLimitConfig
	Graceful     GracefulConfig
}

// BackendsConfig holds the base URL of every backend the gateway routes to.
type BackendsConfig struct {
	Books  string `default:"http://localhost:3001" usage:"Catalog service base URL"`
	Users  string `default:"http://localhost:3002" usage:"Identity service base URL"`
	Orders string `default:"http://localhost:3003" usage:"Orders service base URL"`
}

// OrdersConfig configures the orders service.
type OrdersConfig struct {
	Addr          string        `default:"0.0.0.0:3003" usage:"Orders service listen address"`
	CatalogURL    string        `default:"http://localhost:3001" usage:"Catalog service base URL" flag:"catalog-url"`
	IdentityURL   string        `default:"http://localhost:3002" usage:"Identity service base URL" flag:"identity-url"`
	LookupTimeout time.Duration `default:"3s" usage:"Timeout for a single catalog or identity lookup" flag:"lookup-timeout"`
	DefaultPrice  string        `default:"10.00" usage:"Unit price used when the catalog cannot price a book" flag:"default-price"`
	Graceful      GracefulConfig
}

// BooksConfig configures the catalog service.
type BooksConfig struct {
	Addr     string `default:"0.0.0.0:3001" usage:"Catalog service listen address"`
	Seed     bool   `default:"true" usage:"Start with the sample catalog"`
	Graceful GracefulConfig
}

// UsersConfig configures the identity service.
type UsersConfig struct {
	Addr     string `default:"0.0.0.0:3002" usage:"Identity service listen address"`
	Seed     bool   `default:"true" usage:"Start with the sample users"`
	Graceful GracefulConfig
}

// RateLimitConfig controls the per-client token bucket at the gateway.
type RateLimitConfig struct {
	RPS   float64 `default:"50" usage:"Sustained requests per second per client" flag:"rate-limit-rps"`
	Burst int     `default:"100" usage:"Requests a client may burst above the rate" flag:"rate-limit-burst"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

func newLoader(dst any) *aconfig.Loader {
	return aconfig.LoaderFor(dst, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

// LoadGatewayConfig loads and validates the gateway configuration.
func LoadGatewayConfig() (*GatewayConfig, error) {
	var cfg GatewayConfig
	if err := newLoader(&cfg).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.Addr = applyPort(cfg.Addr, "0.0.0.0:8080")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrdersConfig loads and validates the orders service configuration.
func LoadOrdersConfig() (*OrdersConfig, error) {
	var cfg OrdersConfig
	if err := newLoader(&cfg).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.Addr = applyPort(cfg.Addr, "0.0.0.0:3003")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadBooksConfig loads the catalog service configuration.
func LoadBooksConfig() (*BooksConfig, error) {
	var cfg BooksConfig
	if err := newLoader(&cfg).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.Addr = applyPort(cfg.Addr, "0.0.0.0:3001")
	return &cfg, nil
}

// LoadUsersConfig loads the identity service configuration.
func LoadUsersConfig() (*UsersConfig, error) {
	var cfg UsersConfig
	if err := newLoader(&cfg).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.Addr = applyPort(cfg.Addr, "0.0.0.0:3002")
	return &cfg, nil
}

// applyPort maps the platform-provided PORT variable onto addr unless addr
// was changed from its default.
func applyPort(addr, def string) string {
	if port := os.Getenv("PORT"); port != "" && addr == def {
		return "0.0.0.0:" + port
	}
	return addr
}

// Validate checks backend URLs and timeouts.
func (c *GatewayConfig) Validate() error {
	for name, raw := range map[string]string{
		"books":  c.Backends.Books,
		"users":  c.Backends.Users,
		"orders": c.Backends.Orders,
	} {
		if err := validateURL(raw); err != nil {
			return errors.Wrapf(err, "backend %s", name)
		}
	}
	if c.ProxyTimeout <= 0 {
		return errors.Errorf("proxy timeout must be positive, got %s", c.ProxyTimeout)
	}
	if c.ProbeTimeout <= 0 {
		return errors.Errorf("probe timeout must be positive, got %s", c.ProbeTimeout)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit rps and burst must be positive")
	}
	return nil
}

// Validate checks collaborator URLs, the lookup timeout and the default price.
func (c *OrdersConfig) Validate() error {
	if err := validateURL(c.CatalogURL); err != nil {
		return errors.Wrap(err, "catalog url")
	}
	if err := validateURL(c.IdentityURL); err != nil {
		return errors.Wrap(err, "identity url")
	}
	if c.LookupTimeout <= 0 {
		return errors.Errorf("lookup timeout must be positive, got %s", c.LookupTimeout)
	}
	if _, err := c.DefaultPriceValue(); err != nil {
		return err
	}
	return nil
}

// DefaultPriceValue parses DefaultPrice, rejecting negative values.
func (c *OrdersConfig) DefaultPriceValue() (decimal.Decimal, error) {
	p, err := decimal.NewFromString(c.DefaultPrice)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse default price %q", c.DefaultPrice)
	}
	if p.IsNegative() {
		return decimal.Zero, errors.Errorf("default price %s is negative", p)
	}
	return p, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrap(err, "parse url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return errors.Errorf("url %q has no host", raw)
	}
	return nil
}
