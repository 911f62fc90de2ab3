package dashboard

import (
	"context"
	"time"

	"go-insight/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DashboardRepository mirrors dashboard snapshots to MongoDB so other
// portal instances (and the admin screens) can read them.
type DashboardRepository interface {
	FindByOwner(ctx context.Context, tenantID, ownerID string) ([]Dashboard, error)
	SaveAll(ctx context.Context, tenantID, ownerID string, dashboards []Dashboard) error
}

type dashboardDoc struct {
	TenantID  string    `bson:"tenant_id"`
	OwnerID   string    `bson:"owner_id"`
	Dashboard Dashboard `bson:"dashboard"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type DashboardRepositoryImpl struct {
	collection *mongo.Collection
}

func NewDashboardRepository(db *database.MongodbDB) DashboardRepository {
	return &DashboardRepositoryImpl{
		collection: db.DB.Collection("dashboards"),
	}
}

func (r *DashboardRepositoryImpl) FindByOwner(ctx context.Context, tenantID, ownerID string) ([]Dashboard, error) {
	filter := bson.M{"tenant_id": tenantID, "owner_id": ownerID}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []dashboardDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	dashboards := make([]Dashboard, 0, len(docs))
	for _, doc := range docs {
		dashboards = append(dashboards, doc.Dashboard)
	}
	return dashboards, nil
}

// SaveAll upserts every dashboard in the list and removes any the owner no
// longer has, keeping the mirror in lockstep with the local snapshot.
func (r *DashboardRepositoryImpl) SaveAll(ctx context.Context, tenantID, ownerID string, dashboards []Dashboard) error {
	ids := make([]string, 0, len(dashboards))
	now := time.Now()

	for _, d := range dashboards {
		ids = append(ids, d.ID)
		filter := bson.M{
			"tenant_id":     tenantID,
			"owner_id":      ownerID,
			"dashboard._id": d.ID,
		}
		doc := dashboardDoc{
			TenantID:  tenantID,
			OwnerID:   ownerID,
			Dashboard: d,
			UpdatedAt: now,
		}
		_, err := r.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
		if err != nil {
			return err
		}
	}

	_, err := r.collection.DeleteMany(ctx, bson.M{
		"tenant_id":     tenantID,
		"owner_id":      ownerID,
		"dashboard._id": bson.M{"$nin": ids},
	})
	return err
}
