package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
)

// minSearchLen is the shortest term that triggers ranked search. Anything
// shorter behaves exactly like the plain range listing.
const minSearchLen = 2

// searchDocument must stay textually identical to the idx_orders_search_tsv
// expression so the planner keeps using the index. Covered fields: order
// number, customer name, email, phone, and part name; yard names are matched
// separately against the child table.
const searchDocument = "to_tsvector('simple', coalesce(order_no, '') || ' ' || coalesce(customer_name, '') || ' ' || coalesce(customer_email, '') || ' ' || coalesce(customer_phone, '') || ' ' || coalesce(part_name, ''))"

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Yards", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Order, int64, error) {
	term := strings.TrimSpace(query.SearchTerm)
	if len(term) < minSearchLen {
		return r.listPlain(ctx, query)
	}
	return r.listRanked(ctx, query, term)
}

func (r *repository) listPlain(ctx context.Context, query ListQuery) ([]models.Order, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_date >= ? AND order_date < ?", query.Window.Start, query.Window.End)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.Page.Normalize()
	var rows []models.Order
	err := base.Session(&gorm.Session{}).
		Preload("Yards", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("order_date DESC").
		Limit(page.Limit).
		Offset(query.Page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// listRanked combines full-text rank with trigram matching on the customer
// name and a substring match on attached yard names. Rank orders the page,
// ties broken by recency.
func (r *repository) listRanked(ctx context.Context, query ListQuery, term string) ([]models.Order, int64, error) {
	matcher := searchDocument + " @@ plainto_tsquery('simple', ?)" +
		" OR customer_name % ?" +
		" OR EXISTS (SELECT 1 FROM yards WHERE yards.order_id = orders.id AND yards.yard_name ILIKE '%' || ? || '%')"

	base := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_date >= ? AND order_date < ?", query.Window.Start, query.Window.End).
		Where("("+matcher+")", term, term, term)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		// Ranked counting can fail when the term degenerates into an
		// empty tsquery; the plain window count still serves the pager.
		plain := r.db.WithContext(ctx).
			Model(&models.Order{}).
			Where("order_date >= ? AND order_date < ?", query.Window.Start, query.Window.End)
		if countErr := plain.Count(&total).Error; countErr != nil {
			return nil, 0, countErr
		}
	}

	page := query.Page.Normalize()
	var rows []models.Order
	err := base.Session(&gorm.Session{}).
		Preload("Yards", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Select("orders.*, ts_rank("+searchDocument+", plainto_tsquery('simple', ?)) AS search_rank", term).
		Order("search_rank DESC, order_date DESC").
		Limit(page.Limit).
		Offset(query.Page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
