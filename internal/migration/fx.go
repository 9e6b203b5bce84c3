package migration

import (
	"strings"

	accountdomain "github.com/constructia/billing/internal/account/domain"
	activitydomain "github.com/constructia/billing/internal/activity/domain"
	catalogdomain "github.com/constructia/billing/internal/catalog/domain"
	checkoutdomain "github.com/constructia/billing/internal/checkout/domain"
	"github.com/constructia/billing/internal/config"
	kpidomain "github.com/constructia/billing/internal/kpi/domain"
	ledgerdomain "github.com/constructia/billing/internal/ledger/domain"
	mandatedomain "github.com/constructia/billing/internal/mandate/domain"
	paymentdomain "github.com/constructia/billing/internal/payment/domain"
	receiptdomain "github.com/constructia/billing/internal/receipt/domain"
	"github.com/constructia/billing/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Models lists every persisted type, in dependency order. Non-postgres
// deployments run gorm AutoMigrate over this instead of the SQL files.
var Models = []any{
	&accountdomain.ClientAccount{},
	&catalogdomain.TokenPackage{},
	&checkoutdomain.CheckoutSession{},
	&ledgerdomain.PurchaseRecord{},
	&ledgerdomain.FinancialRecord{},
	&paymentdomain.ConfirmationRecord{},
	&mandatedomain.SEPAMandate{},
	&activitydomain.ActivityLog{},
	&kpidomain.Snapshot{},
	&receiptdomain.ReceiptRecord{},
}

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(Models...); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultPackages(conn)
	}),
)
