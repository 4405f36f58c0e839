package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditLogList_BuildsFilter(t *testing.T) {
	ctx := context.Background()
	audit := new(AuditRepoMock)
	uc := NewAuditLogUsecase(audit)

	actor := int64(7)
	audit.On("List", ctx, mock.MatchedBy(func(f repo.AuditLogListFilter) bool {
		return f.Page == 3 && f.Limit == 10 &&
			f.ActorUserID != nil && *f.ActorUserID == actor &&
			f.Action == model.AuditActionUpdateOrderStatus &&
			f.ResourceType == model.AuditResourceOrder &&
			f.From != nil && f.To == nil
	})).Return([]model.AuditLog{{ID: 1}}, int64(21), nil).Once()

	out, err := uc.List(ctx, AuditLogListInput{
		Page:         3,
		Limit:        10,
		ActorUserID:  &actor,
		Action:       "update_order_status",
		ResourceType: "ORDER",
		From:         "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, 3, out.Page)
	assert.Equal(t, int64(21), out.Total)
	audit.AssertExpectations(t)
}

func TestAuditLogList_Validation(t *testing.T) {
	ctx := context.Background()
	audit := new(AuditRepoMock)
	uc := NewAuditLogUsecase(audit)

	_, err := uc.List(ctx, AuditLogListInput{Page: 0, Limit: 10})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid page")

	_, err = uc.List(ctx, AuditLogListInput{Page: 1, Limit: 10, Action: "drop_table"})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid action")

	_, err = uc.List(ctx, AuditLogListInput{Page: 1, Limit: 10, ResourceType: "user"})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid resource_type")

	_, err = uc.List(ctx, AuditLogListInput{Page: 1, Limit: 10, To: "tomorrow"})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid datetime")

	audit.AssertNotCalled(t, "List", mock.Anything, mock.Anything)

	audit.On("List", ctx, mock.Anything).Return(nil, int64(0), errors.New("boom")).Once()
	_, err = uc.List(ctx, AuditLogListInput{Page: 1, Limit: 10})
	assertHTTPError(t, err, http.StatusInternalServerError, "db error")
}
