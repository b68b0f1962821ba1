package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/phenrril/skinstore/internal/domain"
)

type Config struct {
	Port    string
	AppEnv  string
	BaseURL string
	DSN     string

	PaystackSecret  string
	PaystackPublic  string
	PaystackBaseURL string

	JWTSecret string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	GoogleClientID     string
	GoogleClientSecret string

	Store Store
}

// Store holds the business policy knobs read from the STORE_CONFIG yaml file.
type Store struct {
	Currency            string             `yaml:"currency"`
	StockPolicy         domain.StockPolicy `yaml:"stock_policy"`
	RedeemCouponInTx    bool               `yaml:"redeem_coupon_in_tx"`
	RestockOnCancel     bool               `yaml:"restock_on_cancel"`
	PointsPerUnit       float64            `yaml:"points_per_unit"`
	RedemptionValue     float64            `yaml:"redemption_value"`
	MinRedeemablePoints int                `yaml:"min_redeemable_points"`
	BrandName           string             `yaml:"brand_name"`
	BrandImage          string             `yaml:"brand_image"`
	BrandDescription    string             `yaml:"brand_description"`
}

func DefaultStore() Store {
	return Store{
		Currency:            "GHS",
		StockPolicy:         domain.StockClamp,
		PointsPerUnit:       1,
		RedemptionValue:     0.01,
		MinRedeemablePoints: 500,
		BrandName:           "Skinstore",
		BrandDescription:    "Skincare essentials delivered to your door.",
	}
}

func (c Config) IsDev() bool {
	e := strings.ToLower(c.AppEnv)
	return e == "" || e == "development" || e == "dev"
}

// Load reads the process environment and overlays the store policy file.
func Load() (Config, error) {
	c := Config{
		Port:               getenv("PORT", "8080"),
		AppEnv:             os.Getenv("APP_ENV"),
		BaseURL:            strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/"),
		PaystackSecret:     os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackPublic:     os.Getenv("PAYSTACK_PUBLIC_KEY"),
		PaystackBaseURL:    getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASSWORD"),
		MailFrom:           os.Getenv("MAIL_FROM"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		Store:              DefaultStore(),
	}
	port, err := strconv.Atoi(getenv("SMTP_PORT", "587"))
	if err != nil {
		return c, fmt.Errorf("SMTP_PORT: %w", err)
	}
	c.SMTPPort = port

	c.DSN = databaseDSN()
	if raw := os.Getenv("SERVICE_ACCOUNT_JSON"); strings.TrimSpace(raw) != "" {
		sa, err := ParseServiceAccount(raw)
		if err != nil {
			return c, fmt.Errorf("SERVICE_ACCOUNT_JSON: %w", err)
		}
		if sa.DatabaseURL != "" {
			c.DSN = sa.DatabaseURL
		}
		if c.JWTSecret == "" {
			c.JWTSecret = sa.JWTSecret
		}
	}
	if c.JWTSecret == "" {
		if !c.IsDev() {
			return c, errors.New("JWT_SECRET is required outside development")
		}
		c.JWTSecret = "dev-secret"
	}

	if path := os.Getenv("STORE_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("STORE_CONFIG: %w", err)
		}
		if c.Store, err = ParseStore(b); err != nil {
			return c, fmt.Errorf("STORE_CONFIG: %w", err)
		}
	}
	return c, nil
}

// ParseStore overlays the yaml document on the defaults.
func ParseStore(b []byte) (Store, error) {
	s := DefaultStore()
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, err
	}
	switch s.StockPolicy {
	case domain.StockClamp, domain.StockReject:
	case "":
		s.StockPolicy = domain.StockClamp
	default:
		return s, fmt.Errorf("unknown stock_policy %q", s.StockPolicy)
	}
	if s.PointsPerUnit < 0 || s.RedemptionValue < 0 {
		return s, errors.New("loyalty rates must not be negative")
	}
	return s, nil
}

func databaseDSN() string {
	if dsn := strings.TrimSpace(os.Getenv("DB_DSN")); dsn != "" {
		return dsn
	}
	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")
	user := firstNonEmpty(os.Getenv("DB_USER"), os.Getenv("POSTGRES_USER"), "postgres")
	pass := firstNonEmpty(os.Getenv("DB_PASSWORD"), os.Getenv("POSTGRES_PASSWORD"), "postgres")
	name := firstNonEmpty(os.Getenv("DB_NAME"), os.Getenv("POSTGRES_DB"), "skinstore")
	ssl := getenv("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

// ServiceAccount is the credential blob handed to the server by the hosting
// platform.
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	DatabaseURL string `json:"database_url"`
	JWTSecret   string `json:"jwt_secret"`
}

// ParseServiceAccount accepts the blob as plain JSON, wrapped in single or
// double quotes, or as a JSON string literal holding escaped JSON.
func ParseServiceAccount(raw string) (ServiceAccount, error) {
	var sa ServiceAccount
	s := strings.TrimSpace(raw)
	for i := 0; i < 3; i++ {
		if strings.HasPrefix(s, "{") {
			break
		}
		switch {
		case strings.HasPrefix(s, `"`):
			var inner string
			if err := json.Unmarshal([]byte(s), &inner); err != nil {
				return sa, err
			}
			s = strings.TrimSpace(inner)
		case len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'':
			s = strings.TrimSpace(s[1 : len(s)-1])
		default:
			return sa, errors.New("not a JSON object")
		}
	}
	if strings.HasPrefix(s, `{\"`) {
		s = strings.ReplaceAll(s, `\"`, `"`)
	}
	if err := json.Unmarshal([]byte(s), &sa); err != nil {
		return sa, err
	}
	return sa, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
