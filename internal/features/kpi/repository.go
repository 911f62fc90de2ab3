package kpi

import (
	"context"
	"errors"
	"time"

	"go-insight/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type KPIRepository interface {
	Create(ctx context.Context, def *Definition) error
	Get(ctx context.Context, id string) (*Definition, error)
	FindByTenant(ctx context.Context, tenantID string) ([]Definition, error)
	Update(ctx context.Context, id string, def *Definition) error
	Delete(ctx context.Context, id string) error
}

type KPIRepositoryImpl struct {
	collection *mongo.Collection
}

func NewKPIRepository(db *database.MongodbDB) KPIRepository {
	return &KPIRepositoryImpl{
		collection: db.DB.Collection("kpi_definitions"),
	}
}

func (r *KPIRepositoryImpl) Create(ctx context.Context, def *Definition) error {
	if def.ID.IsZero() {
		def.ID = primitive.NewObjectID()
	}
	def.CreatedAt = time.Now()
	def.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, def)
	return err
}

func (r *KPIRepositoryImpl) Get(ctx context.Context, id string) (*Definition, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var def Definition
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&def)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("kpi definition not found")
		}
		return nil, err
	}
	return &def, nil
}

func (r *KPIRepositoryImpl) FindByTenant(ctx context.Context, tenantID string) ([]Definition, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var defs []Definition
	if err = cursor.All(ctx, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *KPIRepositoryImpl) Update(ctx context.Context, id string, def *Definition) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	def.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"name":          def.Name,
			"key":           def.Key,
			"description":   def.Description,
			"unit":          def.Unit,
			"expression":    def.Expression,
			"target":        def.Target,
			"direction":     def.Direction,
			"sample_inputs": def.SampleInputs,
			"updated_at":    def.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("kpi definition not found")
	}
	return nil
}

func (r *KPIRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return errors.New("kpi definition not found")
	}
	return nil
}
