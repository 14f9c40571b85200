package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fixedpronos/prono_server/internal/model"
	"github.com/fixedpronos/prono_server/internal/model/dto"
	"github.com/fixedpronos/prono_server/internal/repository"
	"github.com/fixedpronos/prono_server/internal/testutil"
)

func setupPronoService(t *testing.T) (*PronoService, *gorm.DB) {
	t.Helper()

	subService, db := setupSubscriptionService(t)
	svc := NewPronoService(repository.NewPronoRepository(db), subService)
	svc.now = func() time.Time { return subNow }
	return svc, db
}

func TestPronoService_ListDay_Redaction(t *testing.T) {
	svc, db := setupPronoService(t)
	ctx := context.Background()

	today := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	testutil.TestProno(t, db, today)
	testutil.TestProno(t, db, today.Add(time.Hour), testutil.WithRequiredTier(model.PlanPro))
	testutil.TestProno(t, db, today.Add(2*time.Hour), testutil.WithRequiredTier(model.PlanVIP))
	testutil.TestProno(t, db, today.AddDate(0, 0, -1))

	testutil.TestSubscription(t, db, 7, model.PlanPro, model.SubscriptionStatusActive, subNow.AddDate(0, 0, -1), subNow.AddDate(0, 1, 0))

	locked := func(items []*dto.PronoItem) map[string]bool {
		out := map[string]bool{}
		for _, it := range items {
			out[it.RequiredTier] = it.Locked
		}
		return out
	}

	t.Run("anonymous", func(t *testing.T) {
		items, total, err := svc.ListDay(ctx, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, map[string]bool{model.TierFree: false, model.PlanPro: true, model.PlanVIP: true}, locked(items))

		for _, it := range items {
			if it.Locked {
				assert.NotEqual(t, "Home win", it.Prediction)
				assert.Empty(t, it.Analysis)
			}
		}
	})

	t.Run("pro subscriber", func(t *testing.T) {
		items, _, err := svc.ListDay(ctx, 7, 0)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{model.TierFree: false, model.PlanPro: false, model.PlanVIP: true}, locked(items))
	})

	t.Run("yesterday", func(t *testing.T) {
		_, total, err := svc.ListDay(ctx, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("before yesterday", func(t *testing.T) {
		_, total, err := svc.ListDay(ctx, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})
}

func TestPronoService_List_ByDate(t *testing.T) {
	svc, db := setupPronoService(t)
	ctx := context.Background()

	testutil.TestProno(t, db, time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
	testutil.TestProno(t, db, time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC))

	_, total, err := svc.List(ctx, 0, "2026-03-01", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = svc.List(ctx, 0, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, _, err = svc.List(ctx, 0, "01/03/2026", 1, 20)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPronoService_Get(t *testing.T) {
	svc, db := setupPronoService(t)
	ctx := context.Background()

	vip := testutil.TestProno(t, db, subNow, testutil.WithRequiredTier(model.PlanVIP))
	draft := testutil.TestProno(t, db, subNow, testutil.WithPublished(false))
	testutil.TestSubscription(t, db, 9, model.PlanVIP, model.SubscriptionStatusActive, subNow.AddDate(0, 0, -1), subNow.AddDate(0, 1, 0))

	item, err := svc.Get(ctx, 0, vip.ID)
	require.NoError(t, err)
	assert.True(t, item.Locked)

	item, err = svc.Get(ctx, 9, vip.ID)
	require.NoError(t, err)
	assert.False(t, item.Locked)
	assert.Equal(t, "Home win", item.Prediction)

	_, err = svc.Get(ctx, 9, draft.ID)
	assert.ErrorIs(t, err, ErrPronoNotFound)

	_, err = svc.Get(ctx, 9, 12345)
	assert.ErrorIs(t, err, ErrPronoNotFound)
}

func TestPronoService_AdminCRUD(t *testing.T) {
	svc, _ := setupPronoService(t)
	ctx := context.Background()

	req := &dto.PronoRequest{
		Title:       "ASEC vs Africa",
		Sport:       "football",
		Prediction:  "Over 2.5",
		Odds:        decimal.RequireFromString("1.90"),
		IsPublished: true,
		MatchDate:   subNow,
	}

	created, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.TierFree, created.RequiredTier)

	req.RequiredTier = model.PlanPro
	req.Result = "won"
	updated, err := svc.Update(ctx, created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, updated.RequiredTier)
	assert.Equal(t, "won", updated.Result)

	req.RequiredTier = "platinum"
	_, err = svc.Update(ctx, created.ID, req)
	assert.ErrorIs(t, err, ErrValidation)

	pronos, total, err := svc.AdminList(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, pronos, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrPronoNotFound)

	_, err = svc.Update(ctx, created.ID, req)
	assert.ErrorIs(t, err, ErrPronoNotFound)
}
