package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainhouse "villabook/internal/domain/house"
	"villabook/internal/domain/ledger"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

// mutateRetries bounds the optimistic-concurrency retry loop on the
// per-house prices map. Concurrent writers to the same house are rare
// at this scale; last-writer-wins per date-key is the accepted policy.
const mutateRetries = 3

type HouseRepository struct {
	col *mongo.Collection
}

func NewHouseRepository(db *mongo.Database) *HouseRepository {
	col := db.Collection("houses")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "code", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &HouseRepository{col: col}
}

func (r *HouseRepository) ByID(ctx context.Context, id domainhouse.ID) (*domainhouse.House, error) {
	var doc houseDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainhouse.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *HouseRepository) ByCode(ctx context.Context, code string) (*domainhouse.House, error) {
	var doc houseDocument
	if err := r.col.FindOne(ctx, bson.M{"code": code}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainhouse.ErrCodeNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *HouseRepository) List(ctx context.Context, params domainhouse.SearchParams) ([]*domainhouse.House, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainhouse.House
	for cursor.Next(ctx) {
		var doc houseDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		h := doc.toEntity()
		if h.Matches(params) {
			out = append(out, h)
		}
	}
	return out, cursor.Err()
}

func (r *HouseRepository) Save(ctx context.Context, h *domainhouse.House) error {
	doc := newHouseDocument(h)
	filter := bson.M{"_id": doc.ID, "version": h.Version}
	doc.Version = h.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	h.Version = doc.Version
	return nil
}

func (r *HouseRepository) Delete(ctx context.Context, id domainhouse.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainhouse.ErrNotFound
	}
	return nil
}

// MutatePrices runs fn against the current prices map and writes the
// whole map back under a version filter, retrying on conflict. The
// version filter makes the read-modify-write atomic per document
// without cross-document transactions.
func (r *HouseRepository) MutatePrices(ctx context.Context, code string, fn domainhouse.Mutator) (ledger.Entries, error) {
	var lastErr error
	for attempt := 0; attempt < mutateRetries; attempt++ {
		var doc houseDocument
		if err := r.col.FindOne(ctx, bson.M{"code": code}).Decode(&doc); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, domainhouse.ErrCodeNotFound
			}
			return nil, err
		}
		prices := doc.Prices
		if prices == nil {
			prices = make(ledger.Entries)
		}
		next, err := fn(prices.Clone())
		if err != nil {
			return nil, err
		}
		filter := bson.M{"_id": doc.ID, "version": doc.Version}
		update := bson.M{"$set": bson.M{
			"prices":     next,
			"updated_at": time.Now().UTC().UnixMilli(),
			"version":    doc.Version + 1,
		}}
		res, err := r.col.UpdateOne(ctx, filter, update)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return next, nil
		}
		lastErr = ErrConcurrentUpdate
	}
	return nil, lastErr
}

type houseDocument struct {
	ID               string         `bson:"_id"`
	Name             string         `bson:"name"`
	Code             string         `bson:"code"`
	Zone             string         `bson:"zone"`
	Address          string         `bson:"address"`
	Description      string         `bson:"description"`
	ShortDescription string         `bson:"short_description"`
	Bedrooms         int            `bson:"bedrooms"`
	Bathrooms        int            `bson:"bathrooms"`
	MaxGuests        int            `bson:"max_guests"`
	PricePerNight    int64          `bson:"price_per_night"`
	Amenities        []string       `bson:"amenities"`
	Images           []imageDoc     `bson:"images"`
	IsActive         bool           `bson:"is_active"`
	IsFeatured       bool           `bson:"is_featured"`
	Rating           float64        `bson:"rating"`
	ReviewCount      int            `bson:"review_count"`
	SortOrder        int            `bson:"sort_order"`
	Prices           ledger.Entries `bson:"prices"`
	CreatedAt        int64          `bson:"created_at"`
	UpdatedAt        int64          `bson:"updated_at"`
	Version          int64          `bson:"version"`
}

type imageDoc struct {
	URL         string `bson:"url"`
	StoragePath string `bson:"storage_path"`
}

func newHouseDocument(h *domainhouse.House) houseDocument {
	images := make([]imageDoc, 0, len(h.Images))
	for _, img := range h.Images {
		images = append(images, imageDoc{URL: img.URL, StoragePath: img.StoragePath})
	}
	return houseDocument{
		ID:               string(h.ID),
		Name:             h.Name,
		Code:             h.Code,
		Zone:             h.Zone,
		Address:          h.Address,
		Description:      h.Description,
		ShortDescription: h.ShortDescription,
		Bedrooms:         h.Bedrooms,
		Bathrooms:        h.Bathrooms,
		MaxGuests:        h.MaxGuests,
		PricePerNight:    h.PricePerNight,
		Amenities:        h.Amenities,
		Images:           images,
		IsActive:         h.IsActive,
		IsFeatured:       h.IsFeatured,
		Rating:           h.Rating,
		ReviewCount:      h.ReviewCount,
		SortOrder:        h.SortOrder,
		Prices:           h.Prices,
		CreatedAt:        h.CreatedAt.UnixMilli(),
		UpdatedAt:        h.UpdatedAt.UnixMilli(),
		Version:          h.Version,
	}
}

func (d houseDocument) toEntity() *domainhouse.House {
	images := make([]domainhouse.Image, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, domainhouse.Image{URL: img.URL, StoragePath: img.StoragePath})
	}
	prices := d.Prices
	if prices == nil {
		prices = make(ledger.Entries)
	}
	return &domainhouse.House{
		ID:               domainhouse.ID(d.ID),
		Name:             d.Name,
		Code:             d.Code,
		Zone:             d.Zone,
		Address:          d.Address,
		Description:      d.Description,
		ShortDescription: d.ShortDescription,
		Bedrooms:         d.Bedrooms,
		Bathrooms:        d.Bathrooms,
		MaxGuests:        d.MaxGuests,
		PricePerNight:    d.PricePerNight,
		Amenities:        d.Amenities,
		Images:           images,
		IsActive:         d.IsActive,
		IsFeatured:       d.IsFeatured,
		Rating:           d.Rating,
		ReviewCount:      d.ReviewCount,
		SortOrder:        d.SortOrder,
		Prices:           prices,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		Version:          d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
