package kpi

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Definition is a KPI the portal's editor manages. Expression is evaluated
// over named metric inputs, e.g. "answered / offered * 100".
type Definition struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID     string             `json:"tenant_id" bson:"tenant_id"`
	Name         string             `json:"name" bson:"name"`
	Key          string             `json:"key" bson:"key"` // slug, unique per tenant
	Description  string             `json:"description,omitempty" bson:"description,omitempty"`
	Unit         string             `json:"unit,omitempty" bson:"unit,omitempty"`
	Expression   string             `json:"expression" bson:"expression"`
	Target       float64            `json:"target,omitempty" bson:"target,omitempty"`
	Direction    string             `json:"direction,omitempty" bson:"direction,omitempty"` // up|down: which way is good
	SampleInputs map[string]float64 `json:"sample_inputs,omitempty" bson:"sample_inputs,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// Result is one evaluation of a definition.
type Result struct {
	Key       string    `json:"key"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Target    float64   `json:"target,omitempty"`
	OnTarget  bool      `json:"on_target"`
	Evaluated time.Time `json:"evaluated_at"`
}
