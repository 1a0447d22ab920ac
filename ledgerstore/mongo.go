// Package ledgerstore implements the ledger store interfaces over the
// MongoDB collections in db.
package ledgerstore

import (
	"context"
	"errors"
	"time"

	"courtside/db"
	"courtside/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Mongo struct {
	users     *mongo.Collection
	classes   *mongo.Collection
	creditTx  *mongo.Collection
	earnings  *mongo.Collection
	earningTx *mongo.Collection
	bookings  *mongo.Collection
}

// New wires the store to the shared collections.
func New() *Mongo {
	return &Mongo{
		users:     db.UserCollection,
		classes:   db.ClassesCollection,
		creditTx:  db.CreditTxCollection,
		earnings:  db.EarningsCollection,
		earningTx: db.EarningTxCollection,
		bookings:  db.BookingsCollection,
	}
}

// ---------- WalletStore ----------

// Balance reads the credits field off the user document. A user document
// without the field counts as "no balance record yet" so the manager's
// default-initialization kicks in for freshly registered users too.
func (m *Mongo) Balance(ctx context.Context, userID string) (int, bool, error) {
	var doc struct {
		Credits int `bson:"credits"`
	}
	filter := bson.M{"userId": userID, "credits": bson.M{"$exists": true}}
	err := m.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return doc.Credits, true, nil
}

func (m *Mongo) SetBalance(ctx context.Context, userID string, credits int) error {
	_, err := m.users.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"credits": credits, "updatedAt": time.Now()}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *Mongo) AppendCreditTransaction(ctx context.Context, tx models.CreditTransaction) error {
	_, err := m.creditTx.InsertOne(ctx, tx)
	return err
}

func (m *Mongo) CreditTransactions(ctx context.Context, userID string) ([]models.CreditTransaction, error) {
	findOptions := options.Find().SetSort(bson.M{"timestamp": -1})
	cur, err := m.creditTx.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var txns []models.CreditTransaction
	for cur.Next(ctx) {
		var tx models.CreditTransaction
		if err := cur.Decode(&tx); err != nil {
			// malformed record, skip
			continue
		}
		txns = append(txns, tx)
	}
	return txns, cur.Err()
}

// ---------- EarningsStore ----------

func (m *Mongo) Earnings(ctx context.Context, coachID string) (models.CoachEarnings, bool, error) {
	var e models.CoachEarnings
	err := m.earnings.FindOne(ctx, bson.M{"coachId": coachID}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CoachEarnings{}, false, nil
	}
	if err != nil {
		return models.CoachEarnings{}, false, err
	}
	return e, true, nil
}

func (m *Mongo) SetEarnings(ctx context.Context, e models.CoachEarnings) error {
	_, err := m.earnings.UpdateOne(ctx,
		bson.M{"coachId": e.CoachID},
		bson.M{"$set": bson.M{"totalEarnings": e.TotalEarnings, "lastUpdated": e.LastUpdated}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *Mongo) AppendEarningTransaction(ctx context.Context, tx models.EarningTransaction) error {
	_, err := m.earningTx.InsertOne(ctx, tx)
	return err
}

func (m *Mongo) EarningTransactions(ctx context.Context, coachID string) ([]models.EarningTransaction, error) {
	findOptions := options.Find().SetSort(bson.M{"timestamp": -1})
	cur, err := m.earningTx.Find(ctx, bson.M{"coachId": coachID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var txns []models.EarningTransaction
	for cur.Next(ctx) {
		var tx models.EarningTransaction
		if err := cur.Decode(&tx); err != nil {
			continue
		}
		txns = append(txns, tx)
	}
	return txns, cur.Err()
}

// ---------- ClassStore ----------

func (m *Mongo) InsertClass(ctx context.Context, class models.ClassSlot) error {
	_, err := m.classes.InsertOne(ctx, class)
	return err
}

func (m *Mongo) Class(ctx context.Context, id string) (models.ClassSlot, bool, error) {
	var c models.ClassSlot
	err := m.classes.FindOne(ctx, bson.M{"id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ClassSlot{}, false, nil
	}
	if err != nil {
		return models.ClassSlot{}, false, err
	}
	return c, true, nil
}

func (m *Mongo) UpdateClass(ctx context.Context, id string, fields map[string]any) error {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	_, err := m.classes.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	return err
}

func (m *Mongo) DeleteClass(ctx context.Context, id string) error {
	_, err := m.classes.DeleteOne(ctx, bson.M{"id": id})
	return err
}

func (m *Mongo) ClassesBetween(ctx context.Context, from, to time.Time) ([]models.ClassSlot, error) {
	filter := bson.M{"date": bson.M{"$gte": from, "$lt": to}}
	cur, err := m.classes.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var classes []models.ClassSlot
	for cur.Next(ctx) {
		var c models.ClassSlot
		if err := cur.Decode(&c); err != nil {
			continue
		}
		classes = append(classes, c)
	}
	return classes, cur.Err()
}

func (m *Mongo) InsertBooking(ctx context.Context, b models.Booking) error {
	_, err := m.bookings.InsertOne(ctx, b)
	return err
}
