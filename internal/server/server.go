package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/constructia/billing/internal/account"
	accountdomain "github.com/constructia/billing/internal/account/domain"
	"github.com/constructia/billing/internal/activity"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	"github.com/constructia/billing/internal/catalog"
	catalogdomain "github.com/constructia/billing/internal/catalog/domain"
	"github.com/constructia/billing/internal/checkout"
	checkoutdomain "github.com/constructia/billing/internal/checkout/domain"
	"github.com/constructia/billing/internal/config"
	"github.com/constructia/billing/internal/kpi"
	kpidomain "github.com/constructia/billing/internal/kpi/domain"
	"github.com/constructia/billing/internal/ledger"
	ledgerdomain "github.com/constructia/billing/internal/ledger/domain"
	"github.com/constructia/billing/internal/mandate"
	mandatedomain "github.com/constructia/billing/internal/mandate/domain"
	"github.com/constructia/billing/internal/observability"
	obsmetrics "github.com/constructia/billing/internal/observability/metrics"
	"github.com/constructia/billing/internal/payment"
	paymentdomain "github.com/constructia/billing/internal/payment/domain"
	"github.com/constructia/billing/internal/providers/pdf"
	"github.com/constructia/billing/internal/ratelimit"
	"github.com/constructia/billing/internal/receipt"
	receiptdomain "github.com/constructia/billing/internal/receipt/domain"
	"github.com/constructia/billing/internal/settlement"
	settlementdomain "github.com/constructia/billing/internal/settlement/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	observability.Module,
	fx.Provide(registerGin),
	account.Module,
	activity.Module,
	catalog.Module,
	checkout.Module,
	kpi.Module,
	ledger.Module,
	mandate.Module,
	payment.Module,
	pdf.Module,
	ratelimit.Module,
	receipt.Module,
	settlement.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	genID          *snowflake.Node
	accountSvc     accountdomain.Service
	activitySvc    activitydomain.Service
	catalogSvc     catalogdomain.Service
	checkoutSvc    checkoutdomain.Service
	kpiSvc         kpidomain.Service
	ledgerRepo     ledgerdomain.Repository
	mandateSvc     mandatedomain.Service
	paymentSvc     paymentdomain.Service
	receiptSvc     receiptdomain.Service
	settlementSvc  settlementdomain.Service
	ingressLimiter *ratelimit.IngressLimiter
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	GenID          *snowflake.Node
	AccountSvc     accountdomain.Service
	ActivitySvc    activitydomain.Service
	CatalogSvc     catalogdomain.Service
	CheckoutSvc    checkoutdomain.Service
	KPISvc         kpidomain.Service
	LedgerRepo     ledgerdomain.Repository
	MandateSvc     mandatedomain.Service
	PaymentSvc     paymentdomain.Service
	ReceiptSvc     receiptdomain.Service
	SettlementSvc  settlementdomain.Service
	IngressLimiter *ratelimit.IngressLimiter `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		accountSvc:     p.AccountSvc,
		activitySvc:    p.ActivitySvc,
		catalogSvc:     p.CatalogSvc,
		checkoutSvc:    p.CheckoutSvc,
		kpiSvc:         p.KPISvc,
		ledgerRepo:     p.LedgerRepo,
		mandateSvc:     p.MandateSvc,
		paymentSvc:     p.PaymentSvc,
		receiptSvc:     p.ReceiptSvc,
		settlementSvc:  p.SettlementSvc,
		ingressLimiter: p.IngressLimiter,
		obsMetrics:     p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Clients --------
	api.POST("/clients", s.RegisterClient)
	api.GET("/clients/:id", s.GetClient)
	api.GET("/clients/:id/purchases", s.ListClientPurchases)
	api.GET("/clients/:id/activity", s.ListClientActivity)

	// -------- Catalog --------
	api.GET("/packages", s.ListPackages)
	api.GET("/packages/:slug", s.GetPackage)

	// -------- Checkout --------
	api.POST("/checkout", s.CheckoutRateLimit(), s.StartCheckout)
	api.GET("/checkout/:transactionId", s.GetCheckoutSession)

	// -------- SEPA Mandates --------
	api.POST("/clients/:id/mandates", s.CreateMandate)
	api.GET("/clients/:id/mandates/active", s.GetActiveMandate)
	api.DELETE("/clients/:id/mandates/:reference", s.RevokeMandate)

	// -------- Payment Webhooks --------
	api.POST("/payments/webhooks/:provider", s.WebhookRateLimit(), s.HandlePaymentWebhook)

	// -------- Receipts --------
	api.GET("/receipts/:transactionId", s.DownloadReceipt)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.POST("/packages", s.CreatePackage)
	admin.PATCH("/packages/:id", s.UpdatePackage)
	admin.GET("/kpi", s.GetKPISnapshot)
	admin.POST("/settlements", s.SettlePurchase)
}
