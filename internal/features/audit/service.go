package audit

import (
	"context"
	"errors"
	"time"

	common_models "go-insight/internal/common/models"
	"go-insight/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditService interface {
	LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error
	ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error)
}

type AuditServiceImpl struct {
	Repo AuditRepository
}

func NewAuditService(repo AuditRepository) AuditService {
	return &AuditServiceImpl{Repo: repo}
}

func (s *AuditServiceImpl) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	// Actor and tenant come from validated claims, never from request
	// data. System events may legitimately carry no claims.
	actorID := "system"
	tenantID := ""
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok {
		actorID = claims.UserID
		tenantID = claims.TenantID
	}

	log := common_models.AuditLog{
		ID:        primitive.NewObjectID(),
		TenantID:  tenantID,
		Action:    action,
		Module:    module,
		RecordID:  recordID,
		ActorID:   actorID,
		Changes:   changes,
		Timestamp: time.Now(),
	}

	return s.Repo.Create(ctx, log)
}

// ListLogs always scopes the query to the caller's tenant. A tenant_id
// filter supplied by the caller is discarded.
func (s *AuditServiceImpl) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok || claims.TenantID == "" {
		return nil, errors.New("missing tenant claims")
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	scoped := make(map[string]interface{}, len(filters)+1)
	for k, v := range filters {
		if k == "tenant_id" {
			continue
		}
		scoped[k] = v
	}
	scoped["tenant_id"] = claims.TenantID

	return s.Repo.List(ctx, scoped, limit, offset)
}
