package app

import (
	"context"
	"net/http"
	"time"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/phenrril/skinstore/internal/adapters/auth"
	"github.com/phenrril/skinstore/internal/adapters/events"
	"github.com/phenrril/skinstore/internal/adapters/httpserver"
	"github.com/phenrril/skinstore/internal/adapters/mailer"
	"github.com/phenrril/skinstore/internal/adapters/payments/paystack"
	"github.com/phenrril/skinstore/internal/adapters/repo/postgres"
	"github.com/phenrril/skinstore/internal/config"
	"github.com/phenrril/skinstore/internal/domain"
	"github.com/phenrril/skinstore/internal/usecase"
)

const (
	tokenTTL      = 7 * 24 * time.Hour
	streamBacklog = 32
)

type App struct {
	DB     *gorm.DB
	Config config.Config
	Hub    *events.Hub

	ProductUC  *usecase.ProductUC
	ContentUC  *usecase.ContentUC
	CouponUC   *usecase.CouponUC
	CheckoutUC *usecase.CheckoutUC
	PaymentUC  *usecase.PaymentUC
	OrderUC    *usecase.OrderUC
	UserUC     *usecase.UserUC
	Notifier   *usecase.Notifier

	Tokens      *auth.Tokens
	OAuthConfig *oauth2.Config
}

func NewApp(db *gorm.DB, cfg config.Config) (*App, error) {
	prodRepo := postgres.NewProductRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	couponRepo := postgres.NewCouponRepo(db)
	userRepo := postgres.NewUserRepo(db)

	hub := events.NewHub(streamBacklog)
	policy := usecase.Policy{
		Currency:            cfg.Store.Currency,
		StockPolicy:         cfg.Store.StockPolicy,
		RedeemCouponInTx:    cfg.Store.RedeemCouponInTx,
		RestockOnCancel:     cfg.Store.RestockOnCancel,
		PointsPerUnit:       cfg.Store.PointsPerUnit,
		RedemptionValue:     cfg.Store.RedemptionValue,
		MinRedeemablePoints: cfg.Store.MinRedeemablePoints,
	}

	renderer := mailer.Renderer{Brand: cfg.Store.BrandName, Currency: cfg.Store.Currency}
	var mail domain.Mailer = mailer.Log{Renderer: renderer}
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		}, renderer)
	} else {
		zlog.Warn().Msg("SMTP_HOST not set, order emails will only be logged")
	}

	if cfg.PaystackSecret == "" {
		zlog.Warn().Msg("PAYSTACK_SECRET_KEY not set, online payments cannot be verified")
	}
	gateway := paystack.NewGateway(cfg.PaystackSecret, cfg.PaystackBaseURL)

	var oauthCfg *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	notifier := &usecase.Notifier{Mailer: mail, Notifications: postgres.NewNotificationRepo(db), Events: hub}
	placer := &usecase.OrderPlacer{Orders: orderRepo, Products: prodRepo, Coupons: couponRepo, Events: hub, Policy: policy}
	tokens := auth.NewTokens(cfg.JWTSecret, tokenTTL)

	a := &App{DB: db, Config: cfg, Hub: hub, Tokens: tokens, OAuthConfig: oauthCfg}
	a.ProductUC = &usecase.ProductUC{Products: prodRepo, Events: hub}
	a.ContentUC = &usecase.ContentUC{
		Reviews:  postgres.NewReviewRepo(db),
		FAQs:     postgres.NewFAQRepo(db),
		Products: prodRepo,
		Events:   hub,
	}
	a.CouponUC = &usecase.CouponUC{Coupons: couponRepo, Events: hub}
	a.CheckoutUC = &usecase.CheckoutUC{Placer: placer}
	a.PaymentUC = &usecase.PaymentUC{Gateway: gateway, Placer: placer}
	a.OrderUC = &usecase.OrderUC{
		Orders: orderRepo,
		Users:  userRepo,
		Mailer: mail,
		Notify: notifier,
		Events: hub,
		Policy: policy,
	}
	a.UserUC = &usecase.UserUC{Users: userRepo, Tokens: tokens, Hasher: auth.Bcrypt{}, Events: hub, Policy: policy}
	a.Notifier = notifier
	return a, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Deps{
		Products: a.ProductUC,
		Content:  a.ContentUC,
		Coupons:  a.CouponUC,
		Checkout: a.CheckoutUC,
		Payments: a.PaymentUC,
		Orders:   a.OrderUC,
		Users:    a.UserUC,
		Notifier: a.Notifier,
		Tokens:   a.Tokens,
		Hub:      a.Hub,
		OAuth:    a.OAuthConfig,
		Brand: httpserver.Brand{
			Name:        a.Config.Store.BrandName,
			Image:       a.Config.Store.BrandImage,
			Description: a.Config.Store.BrandDescription,
			BaseURL:     a.Config.BaseURL,
		},
		Currency:          a.Config.Store.Currency,
		PaystackPublicKey: a.Config.PaystackPublic,
	})
}

// MigrateAndSeed migrates every table and adds the composite indexes the
// struct tags do not declare. Index failures are logged, not fatal.
func (a *App) MigrateAndSeed() error {
	if err := postgres.Migrate(a.DB); err != nil {
		return err
	}
	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_status ON reviews(product_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, read)",
	} {
		if err := a.DB.Exec(stmt).Error; err != nil {
			zlog.Warn().Err(err).Str("stmt", stmt).Msg("index not created")
		}
	}
	return seedFAQs(a.DB)
}

// seedFAQs gives a fresh store a starting help page. It is a no-op once any
// FAQ exists.
func seedFAQs(db *gorm.DB) error {
	var n int64
	if err := db.Model(&domain.FAQ{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	faqs := []domain.FAQ{
		{Question: "How long does delivery take?", Answer: "Orders are usually delivered within 2 to 5 working days.", Category: "Shipping", Position: 1},
		{Question: "Can I pay on delivery?", Answer: "Yes. Choose pay on delivery at checkout and pay the rider when your order arrives.", Category: "Payments", Position: 2},
		{Question: "How do I return an item?", Answer: "Open the order in your account once it has been delivered and request a return.", Category: "Returns", Position: 3},
	}
	repo := postgres.NewFAQRepo(db)
	for i := range faqs {
		if err := repo.Save(context.Background(), &faqs[i]); err != nil {
			return err
		}
	}
	return nil
}
