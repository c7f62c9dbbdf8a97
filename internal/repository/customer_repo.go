package repository

import (
	"context"

	"gorm.io/gorm"

	"guardpost/backend/internal/model"
)

// CustomerRepository 客户数据访问接口
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context) ([]model.Customer, error)
	Create(ctx context.Context, customer *model.Customer) error
}

// SiteRepository 站点数据访问接口
type SiteRepository interface {
	GetByID(ctx context.Context, id string) (*model.Site, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Site, error)
	Create(ctx context.Context, site *model.Site) error
}

// ── Customer Repository 实现 ──

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", id).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) List(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.WithContext(ctx).Order("name ASC").Find(&customers).Error
	return customers, err
}

func (r *customerRepo) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

// ── Site Repository 实现 ──

type siteRepo struct {
	db *gorm.DB
}

func NewSiteRepo(db *gorm.DB) SiteRepository {
	return &siteRepo{db: db}
}

func (r *siteRepo) GetByID(ctx context.Context, id string) (*model.Site, error) {
	var site model.Site
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("site_id = ?", id).
		First(&site).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *siteRepo) ListByCustomer(ctx context.Context, customerID string) ([]model.Site, error) {
	var sites []model.Site
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND is_active = ?", customerID, true).
		Order("name ASC").
		Find(&sites).Error
	return sites, err
}

func (r *siteRepo) Create(ctx context.Context, site *model.Site) error {
	return r.db.WithContext(ctx).Create(site).Error
}
