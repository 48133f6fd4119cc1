package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/attacksurface/sentinel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scansCollection = "scans"

// Mongo is the MongoDB-backed ScanStore. The connection is lazily
// established on first use and reused for the process lifetime, matching
// the original recon service's lazy single-client pattern.
type Mongo struct {
	uri                 string
	dbName              string
	serverSelectTimeout time.Duration

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(uri, dbName string, serverSelectTimeout time.Duration) *Mongo {
	return &Mongo{uri: uri, dbName: dbName, serverSelectTimeout: serverSelectTimeout}
}

func (m *Mongo) database(ctx context.Context) (*mongo.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}

	opts := options.Client().ApplyURI(m.uri).SetServerSelectionTimeout(m.serverSelectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, newError(ErrConnectionFailed, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, newError(ErrUnavailable, err)
	}

	m.client = client
	m.db = client.Database(m.dbName)
	return m.db, nil
}

type scanDocument struct {
	ID          primitive.ObjectID       `bson:"_id,omitempty"`
	Domain      string                   `bson:"domain"`
	Timestamp   time.Time                `bson:"timestamp"`
	Assets      []models.Asset           `bson:"assets"`
	TotalAssets int                      `bson:"total_assets"`
	RiskSummary models.SeverityHistogram `bson:"risk_summary"`
}

func (m *Mongo) Save(ctx context.Context, domain string, assets []models.Asset) (models.ScanRecord, error) {
	db, err := m.database(ctx)
	if err != nil {
		return models.ScanRecord{}, err
	}

	record := models.NewScanRecord(domain, assets, time.Now())
	doc := scanDocument{
		Domain:      record.Domain,
		Timestamp:   record.Timestamp,
		Assets:      record.Assets,
		TotalAssets: record.TotalAssets,
		RiskSummary: record.RiskSummary,
	}

	result, err := db.Collection(scansCollection).InsertOne(ctx, doc)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.ScanRecord{}, newError(ErrTimeout, err)
		}
		return models.ScanRecord{}, newError(ErrWriteFailed, err)
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return models.ScanRecord{}, newError(ErrWriteFailed, errors.New("unexpected inserted id type"))
	}
	record.ScanID = id.Hex()

	return record, nil
}

func (m *Mongo) Get(ctx context.Context, scanID string) (models.ScanRecord, bool, error) {
	id, err := primitive.ObjectIDFromHex(scanID)
	if err != nil {
		return models.ScanRecord{}, false, nil
	}

	db, err := m.database(ctx)
	if err != nil {
		return models.ScanRecord{}, false, err
	}

	var doc scanDocument
	err = db.Collection(scansCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ScanRecord{}, false, nil
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.ScanRecord{}, false, newError(ErrTimeout, err)
		}
		return models.ScanRecord{}, false, newError(ErrReadFailed, err)
	}

	record := models.ScanRecord{
		ScanID:      id.Hex(),
		Domain:      doc.Domain,
		Timestamp:   doc.Timestamp,
		Assets:      doc.Assets,
		TotalAssets: doc.TotalAssets,
		RiskSummary: doc.RiskSummary,
	}
	return record, true, nil
}
