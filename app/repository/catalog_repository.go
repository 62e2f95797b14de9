package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuelReschke/Paywall/app/models"
	"gorm.io/gorm"
)

// catalogSpec describes where a content type keeps its price. Empty workColumn
// means the items are standalone; empty vipColumn means the type is never
// VIP-gated.
type catalogSpec struct {
	table       string
	priceColumn string
	workColumn  string
	vipColumn   string
	scope       func(db *gorm.DB) *gorm.DB
}

// catalogSpecs is the single dispatch table for all eight content types.
var catalogSpecs = map[models.ContentType]catalogSpec{
	models.ContentLongVideo: {
		table:       models.LongVideo{}.TableName(),
		priceColumn: "gold_required",
		vipColumn:   "is_vip",
	},
	models.ContentComicChapter: {
		table:       models.ComicChapter{}.TableName(),
		priceColumn: "coin",
		workColumn:  "manga_id",
	},
	models.ContentNovelChapter: {
		table:       models.NovelChapter{}.TableName(),
		priceColumn: "coin",
		workColumn:  "novel_id",
	},
	models.ContentAudioNovelChapter: {
		table:       models.AudioNovelChapter{}.TableName(),
		priceColumn: "coin",
		workColumn:  "novel_id",
	},
	models.ContentAnimeVideo: {
		table:       models.AnimeVideo{}.TableName(),
		priceColumn: "gold_required",
		vipColumn:   "is_vip",
	},
	models.ContentDarknetVideo: {
		table:       models.DarknetVideo{}.TableName(),
		priceColumn: "gold",
		vipColumn:   "is_vip",
	},
	models.ContentDouyinVideo: {
		table:       models.DouyinVideo{}.TableName(),
		priceColumn: "gold",
		vipColumn:   "is_vip",
	},
	models.ContentStarMedia: {
		table:       models.StarMedia{}.TableName(),
		priceColumn: "coin",
		vipColumn:   "is_vip",
		scope: func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ? AND type = ?", models.StarMediaStatusOnline, models.StarMediaTypeVideo)
		},
	},
}

// catalogRow is the common projection every catalog table is read into
type catalogRow struct {
	ID       uint64
	Price    int64
	WorkID   uint64
	VipGated bool
}

// gormCatalogAdapter implements ContentCatalogAdapter for one content type
type gormCatalogAdapter struct {
	db   *gorm.DB
	ct   models.ContentType
	spec catalogSpec
}

// NewCatalogAdapters builds one adapter per content type
func NewCatalogAdapters(db *gorm.DB) map[models.ContentType]ContentCatalogAdapter {
	adapters := make(map[models.ContentType]ContentCatalogAdapter, len(catalogSpecs))
	for ct, spec := range catalogSpecs {
		adapters[ct] = &gormCatalogAdapter{db: db, ct: ct, spec: spec}
	}
	return adapters
}

func (a *gormCatalogAdapter) ContentType() models.ContentType {
	return a.ct
}

func (a *gormCatalogAdapter) query(ctx context.Context) *gorm.DB {
	workExpr := "0"
	if a.spec.workColumn != "" {
		workExpr = a.spec.workColumn
	}
	vipExpr := "0"
	if a.spec.vipColumn != "" {
		vipExpr = a.spec.vipColumn
	}
	q := a.db.WithContext(ctx).Table(a.spec.table).Select(fmt.Sprintf(
		"id, %s AS price, %s AS work_id, %s AS vip_gated",
		a.spec.priceColumn, workExpr, vipExpr,
	))
	if a.spec.scope != nil {
		q = a.spec.scope(q)
	}
	return q
}

// Lookup returns price, work and VIP flag of one item
func (a *gormCatalogAdapter) Lookup(ctx context.Context, contentID uint64) (*CatalogItem, error) {
	var row catalogRow
	err := a.query(ctx).Where("id = ?", contentID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	price := row.Price
	if price < 0 {
		price = 0
	}
	return &CatalogItem{
		ID:       row.ID,
		WorkID:   row.WorkID,
		Price:    price,
		VipGated: a.spec.vipColumn != "" && row.VipGated,
	}, nil
}

func (a *gormCatalogAdapter) PriceOf(ctx context.Context, contentID uint64) (int64, error) {
	item, err := a.Lookup(ctx, contentID)
	if err != nil {
		return 0, err
	}
	return item.Price, nil
}

// IsVipGated is always false for chapter types
func (a *gormCatalogAdapter) IsVipGated(ctx context.Context, contentID uint64) (bool, error) {
	item, err := a.Lookup(ctx, contentID)
	if err != nil {
		return false, err
	}
	return item.VipGated, nil
}

// WorkMembers lists the priced chapters of a work
func (a *gormCatalogAdapter) WorkMembers(ctx context.Context, workID uint64) ([]WorkMember, error) {
	if a.spec.workColumn == "" {
		return nil, ErrUnsupportedContentType
	}
	var rows []catalogRow
	err := a.query(ctx).
		Where(a.spec.workColumn+" = ?", workID).
		Where(a.spec.priceColumn + " > 0").
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	members := make([]WorkMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, WorkMember{ContentID: row.ID, Price: row.Price})
	}
	return members, nil
}
