package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "villabook/internal/domain/booking"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("bookings")
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "villa_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), idx)
	return &BookingRepository{col: col}
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	_, err := r.col.InsertOne(ctx, newBookingDocument(b))
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *BookingRepository) List(ctx context.Context, filter domainbooking.ListFilter) ([]*domainbooking.Booking, error) {
	query := bson.M{}
	if filter.VillaID != "" {
		query["villa_id"] = filter.VillaID
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEntity())
	}
	return out, cursor.Err()
}

// UpdateStatus is a compare-and-set on the status field: the filter
// carries the expected prior status, so the losing side of a concurrent
// confirm/cancel pair matches nothing instead of overwriting.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id domainbooking.BookingID, from, to domainbooking.Status, at time.Time) error {
	update := bson.M{"$set": bson.M{"status": string(to), "updated_at": at.UTC().UnixMilli()}}
	filter := bson.M{"_id": string(id), "status": string(from)}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": string(id)})
		if err != nil {
			return err
		}
		if n == 0 {
			return domainbooking.ErrNotFound
		}
		return domainbooking.ErrInvalidState
	}
	return nil
}

func (r *BookingRepository) UpdateNotification(ctx context.Context, id domainbooking.BookingID, n domainbooking.Notification, at time.Time) error {
	set := bson.M{
		"line_message_sent":       n.Sent,
		"line_message_status":     n.StatusCode,
		"line_message_request_id": n.RequestID,
		"line_message_error":      n.Error,
		"updated_at":              at.UTC().UnixMilli(),
	}
	if n.FriendStatus != "" {
		set["line_friend_status"] = n.FriendStatus
	}
	if n.Sent {
		set["line_message_sent_at"] = n.SentAt.UTC().UnixMilli()
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": string(id)}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainbooking.ErrNotFound
	}
	return nil
}

type bookingDocument struct {
	ID            string `bson:"_id"`
	UserID        string `bson:"user_id"`
	UserLineID    string `bson:"user_line_id"`
	UserName      string `bson:"user_name"`
	UserPhone     string `bson:"user_phone"`
	VillaID       string `bson:"villa_id"`
	VillaName     string `bson:"villa_name"`
	VillaCode     string `bson:"villa_code"`
	CheckIn       string `bson:"check_in"`
	CheckOut      string `bson:"check_out"`
	Nights        int    `bson:"nights"`
	Guests        int    `bson:"guests"`
	TotalPrice    int64  `bson:"total_price"`
	Message       string `bson:"message"`
	Status        string `bson:"status"`
	LineSent      bool   `bson:"line_message_sent"`
	LineStatus    int    `bson:"line_message_status"`
	LineRequestID string `bson:"line_message_request_id"`
	LineError     string `bson:"line_message_error"`
	LineFriend    string `bson:"line_friend_status"`
	LineSentAt    int64  `bson:"line_message_sent_at,omitempty"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:            string(b.ID),
		UserID:        b.UserID,
		UserLineID:    b.UserLineID,
		UserName:      b.UserName,
		UserPhone:     b.UserPhone,
		VillaID:       b.VillaID,
		VillaName:     b.VillaName,
		VillaCode:     b.VillaCode,
		CheckIn:       b.CheckIn,
		CheckOut:      b.CheckOut,
		Nights:        b.Nights,
		Guests:        b.Guests,
		TotalPrice:    b.TotalPrice,
		Message:       b.Message,
		Status:        string(b.Status),
		LineSent:      b.LineNotify.Sent,
		LineStatus:    b.LineNotify.StatusCode,
		LineRequestID: b.LineNotify.RequestID,
		LineError:     b.LineNotify.Error,
		LineFriend:    b.LineNotify.FriendStatus,
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
	}
	if !b.LineNotify.SentAt.IsZero() {
		doc.LineSentAt = b.LineNotify.SentAt.UnixMilli()
	}
	return doc
}

func (d bookingDocument) toEntity() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		UserID:     d.UserID,
		UserLineID: d.UserLineID,
		UserName:   d.UserName,
		UserPhone:  d.UserPhone,
		VillaID:    d.VillaID,
		VillaName:  d.VillaName,
		VillaCode:  d.VillaCode,
		CheckIn:    d.CheckIn,
		CheckOut:   d.CheckOut,
		Nights:     d.Nights,
		Guests:     d.Guests,
		TotalPrice: d.TotalPrice,
		Message:    d.Message,
		Status:     domainbooking.Status(d.Status),
		LineNotify: domainbooking.Notification{
			Sent:         d.LineSent,
			StatusCode:   d.LineStatus,
			RequestID:    d.LineRequestID,
			Error:        d.LineError,
			FriendStatus: d.LineFriend,
		},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
	if d.LineSentAt != 0 {
		b.LineNotify.SentAt = timestampToTime(d.LineSentAt)
	}
	return b
}
