package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/MarkMiraclee/purchaseorder/internal/auth"
	"github.com/MarkMiraclee/purchaseorder/internal/rules"
)

const (
	DefaultRunAddress               = "localhost:8080"
	DefaultDatabaseURI              = ""
	DefaultJWTSecret                = "supersecretkey"
	DefaultJWTIssuer                = "purchaseorder"
	DefaultJWTAudience              = "purchaseorder-clients"
	DefaultJWTValidity              = 24 * time.Hour
	DefaultMaxLineItemsPerOrder     = 10
	DefaultMaxTotalLineItemAmount   = 10000
	DefaultMaxSubmittedOrdersPerDay = 5
	DefaultLogLevel                 = "info"
	DefaultShutdownTimeout          = 5 * time.Second
)

type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`

	JWTSecret   string        `env:"JWT_SECRET"`
	JWTIssuer   string        `env:"JWT_ISSUER"`
	JWTAudience string        `env:"JWT_AUDIENCE"`
	JWTValidity time.Duration `env:"JWT_VALIDITY"`

	MaxLineItemsPerOrder     int             `env:"MAX_LINE_ITEMS_PER_ORDER"`
	MaxTotalLineItemAmount   decimal.Decimal `env:"MAX_TOTAL_LINE_ITEM_AMOUNT"`
	MaxSubmittedOrdersPerDay int             `env:"MAX_SUBMITTED_ORDERS_PER_DAY"`

	LogLevel        string        `env:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// New reads the configuration from the command line, a .env file in the
// working directory and the environment. Environment values win over flags.
func New() (*Config, error) {
	return Load(os.Args[0], os.Args[1:])
}

func Load(name string, args []string) (*Config, error) {
	cfg := &Config{}

	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.StringVar(&cfg.RunAddress, "a", DefaultRunAddress, "server address")
	fset.StringVar(&cfg.DatabaseURI, "d", DefaultDatabaseURI, "database URI, in-memory storage when empty")
	fset.StringVar(&cfg.JWTSecret, "j", DefaultJWTSecret, "jwt secret key")
	fset.StringVar(&cfg.JWTIssuer, "jwt-issuer", DefaultJWTIssuer, "jwt issuer")
	fset.StringVar(&cfg.JWTAudience, "jwt-audience", DefaultJWTAudience, "jwt audience")
	fset.DurationVar(&cfg.JWTValidity, "jwt-validity", DefaultJWTValidity, "jwt validity")
	fset.IntVar(&cfg.MaxLineItemsPerOrder, "max-line-items", DefaultMaxLineItemsPerOrder, "maximum line items per purchase order")
	fset.TextVar(&cfg.MaxTotalLineItemAmount, "max-total-amount", decimal.NewFromInt(DefaultMaxTotalLineItemAmount), "maximum total line item amount")
	fset.IntVar(&cfg.MaxSubmittedOrdersPerDay, "max-submitted-per-day", DefaultMaxSubmittedOrdersPerDay, "maximum submitted purchase orders per day")
	fset.StringVar(&cfg.LogLevel, "l", DefaultLogLevel, "log level")
	fset.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", DefaultShutdownTimeout, "graceful shutdown timeout")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := env.ParseWithFuncs(cfg, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(decimal.Decimal{}): func(v string) (interface{}, error) {
			return decimal.NewFromString(v)
		},
	}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("jwt secret must not be empty")
	case c.JWTValidity <= 0:
		return errors.New("jwt validity must be positive")
	case c.MaxLineItemsPerOrder < 1:
		return errors.New("max line items per order must be at least 1")
	case !c.MaxTotalLineItemAmount.IsPositive():
		return errors.New("max total line item amount must be positive")
	case c.MaxSubmittedOrdersPerDay < 0:
		return errors.New("max submitted orders per day must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

func (c *Config) Limits() rules.Limits {
	return rules.Limits{
		MaxLineItemsPerOrder:     c.MaxLineItemsPerOrder,
		MaxTotalLineItemAmount:   c.MaxTotalLineItemAmount,
		MaxSubmittedOrdersPerDay: c.MaxSubmittedOrdersPerDay,
	}
}

func (c *Config) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Secret:   []byte(c.JWTSecret),
		Issuer:   c.JWTIssuer,
		Audience: c.JWTAudience,
		Validity: c.JWTValidity,
	}
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
