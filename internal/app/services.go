package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/internal/auth"
	"github.com/angelmondragon/codcrm-backend/internal/blacklist"
	"github.com/angelmondragon/codcrm-backend/internal/bordereaux"
	"github.com/angelmondragon/codcrm-backend/internal/catalog"
	"github.com/angelmondragon/codcrm-backend/internal/finance"
	"github.com/angelmondragon/codcrm-backend/internal/leads"
	"github.com/angelmondragon/codcrm-backend/internal/orders"
	"github.com/angelmondragon/codcrm-backend/internal/shipping"
	"github.com/angelmondragon/codcrm-backend/internal/users"
	"github.com/angelmondragon/codcrm-backend/pkg/config"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
	"github.com/angelmondragon/codcrm-backend/pkg/metrics"
	"github.com/angelmondragon/codcrm-backend/pkg/redis"
	"github.com/angelmondragon/codcrm-backend/pkg/security"
)

// Services is the full set of domain services sharing one connection.
type Services struct {
	Auth       auth.Service
	Users      users.Service
	Leads      leads.Service
	Blacklist  blacklist.Service
	Catalog    catalog.Service
	Orders     orders.Service
	Shipping   shipping.Service
	Bordereaux bordereaux.Service
	Finance    finance.Service
}

// NewServices builds every service over conn. cache may be nil.
func NewServices(conn *gorm.DB, cfg *config.Config, cache redis.Cache, logg *logger.Logger, recorder *metrics.Recorder) (*Services, error) {
	if conn == nil {
		return nil, fmt.Errorf("db connection required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	runner := db.Wrap(conn)

	usersSvc, err := users.NewService(users.NewRepository(conn), runner, security.NewHasher(cfg.Password), logg)
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}
	authSvc, err := auth.NewService(usersSvc, cfg.JWT, logg)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	blacklistSvc, err := blacklist.NewService(blacklist.NewRepository(conn), cache, cfg.Redis.BlacklistCacheTTL, logg)
	if err != nil {
		return nil, fmt.Errorf("blacklist service: %w", err)
	}
	leadsSvc, err := leads.NewService(leads.NewRepository(conn), runner, blacklistSvc, usersSvc, logg, recorder)
	if err != nil {
		return nil, fmt.Errorf("leads service: %w", err)
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), runner, logg)
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	ordersSvc, err := orders.NewService(orders.NewRepository(conn), runner, leadsSvc, blacklistSvc, catalogSvc, logg, recorder)
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}
	shippingSvc, err := shipping.NewService(shipping.NewRepository(conn), runner, ordersSvc, logg, recorder)
	if err != nil {
		return nil, fmt.Errorf("shipping service: %w", err)
	}
	bordereauxSvc, err := bordereaux.NewService(bordereaux.NewRepository(conn), runner, shippingSvc, logg, recorder)
	if err != nil {
		return nil, fmt.Errorf("bordereaux service: %w", err)
	}
	financeSvc, err := finance.NewService(finance.NewRepository(conn), logg)
	if err != nil {
		return nil, fmt.Errorf("finance service: %w", err)
	}

	return &Services{
		Auth:       authSvc,
		Users:      usersSvc,
		Leads:      leadsSvc,
		Blacklist:  blacklistSvc,
		Catalog:    catalogSvc,
		Orders:     ordersSvc,
		Shipping:   shippingSvc,
		Bordereaux: bordereauxSvc,
		Finance:    financeSvc,
	}, nil
}
