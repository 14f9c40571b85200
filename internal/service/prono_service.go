package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fixedpronos/prono_server/internal/model"
	"github.com/fixedpronos/prono_server/internal/model/dto"
	"github.com/fixedpronos/prono_server/internal/repository"
)

var ErrPronoNotFound = errors.New("prono not found")

const dateLayout = "2006-01-02"

type PronoService struct {
	pronoRepo  *repository.PronoRepository
	subService *SubscriptionService
	now        func() time.Time
}

func NewPronoService(pronoRepo *repository.PronoRepository, subService *SubscriptionService) *PronoService {
	return &PronoService{
		pronoRepo:  pronoRepo,
		subService: subService,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// List returns published pronos, optionally for one UTC day (YYYY-MM-DD).
// Pronos above the caller's tier come back locked.
func (s *PronoService) List(ctx context.Context, userID int64, date string, page, pageSize int) ([]*dto.PronoItem, int64, error) {
	var from, to time.Time
	if date != "" {
		day, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, 0, validationError("date must be YYYY-MM-DD")
		}
		from, to = day, day.AddDate(0, 0, 1)
	}
	return s.list(ctx, userID, from, to, page, pageSize)
}

// ListDay returns the pronos of the UTC day daysAgo days before today.
func (s *PronoService) ListDay(ctx context.Context, userID int64, daysAgo int) ([]*dto.PronoItem, int64, error) {
	y, m, d := s.now().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
	return s.list(ctx, userID, from, from.AddDate(0, 0, 1), 1, 100)
}

func (s *PronoService) list(ctx context.Context, userID int64, from, to time.Time, page, pageSize int) ([]*dto.PronoItem, int64, error) {
	tier, err := s.subService.Tier(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePage(page, pageSize)
	pronos, total, err := s.pronoRepo.ListPublished(ctx, from, to, page, pageSize)
	if err != nil {
		return nil, 0, persistenceError(err)
	}

	items := make([]*dto.PronoItem, 0, len(pronos))
	for _, p := range pronos {
		items = append(items, toPronoItem(p, tier))
	}
	return items, total, nil
}

// Get returns one published prono as seen by the caller.
func (s *PronoService) Get(ctx context.Context, userID, pronoID int64) (*dto.PronoItem, error) {
	prono, err := s.getByID(ctx, pronoID)
	if err != nil {
		return nil, err
	}
	if !prono.IsPublished {
		return nil, ErrPronoNotFound
	}

	tier, err := s.subService.Tier(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toPronoItem(prono, tier), nil
}

func toPronoItem(p *model.Prono, tier string) *dto.PronoItem {
	item := &dto.PronoItem{
		ID:           p.ID,
		Title:        p.Title,
		Sport:        p.Sport,
		Competition:  p.Competition,
		HomeTeam:     p.HomeTeam,
		AwayTeam:     p.AwayTeam,
		Prediction:   p.Prediction,
		Analysis:     p.Analysis,
		Odds:         p.Odds,
		RequiredTier: p.RequiredTier,
		Result:       p.Result,
		MatchDate:    p.MatchDate,
	}
	if !model.TierAllows(tier, p.RequiredTier) {
		item.Locked = true
		item.Prediction = fmt.Sprintf("%s subscription required", strings.ToUpper(p.RequiredTier))
		item.Analysis = ""
	}
	return item
}

func (s *PronoService) AdminList(ctx context.Context, page, pageSize int) ([]*model.Prono, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	pronos, total, err := s.pronoRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, persistenceError(err)
	}
	return pronos, total, nil
}

func (s *PronoService) Create(ctx context.Context, req *dto.PronoRequest) (*model.Prono, error) {
	prono := &model.Prono{}
	if err := applyPronoRequest(prono, req); err != nil {
		return nil, err
	}
	if err := s.pronoRepo.Create(ctx, prono); err != nil {
		return nil, persistenceError(err)
	}
	return prono, nil
}

func (s *PronoService) Update(ctx context.Context, pronoID int64, req *dto.PronoRequest) (*model.Prono, error) {
	prono, err := s.getByID(ctx, pronoID)
	if err != nil {
		return nil, err
	}
	if err := applyPronoRequest(prono, req); err != nil {
		return nil, err
	}
	if err := s.pronoRepo.Update(ctx, prono); err != nil {
		return nil, persistenceError(err)
	}
	return prono, nil
}

func (s *PronoService) Delete(ctx context.Context, pronoID int64) error {
	if _, err := s.getByID(ctx, pronoID); err != nil {
		return err
	}
	return persistenceError(s.pronoRepo.Delete(ctx, pronoID))
}

func (s *PronoService) getByID(ctx context.Context, pronoID int64) (*model.Prono, error) {
	prono, err := s.pronoRepo.GetByID(ctx, pronoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPronoNotFound
		}
		return nil, persistenceError(err)
	}
	return prono, nil
}

func applyPronoRequest(p *model.Prono, req *dto.PronoRequest) error {
	tier := req.RequiredTier
	if tier == "" {
		tier = model.TierFree
	}
	if !model.IsValidTier(tier) {
		return validationError("unknown tier %q", tier)
	}

	p.Title = req.Title
	p.Sport = req.Sport
	p.Competition = req.Competition
	p.HomeTeam = req.HomeTeam
	p.AwayTeam = req.AwayTeam
	p.Prediction = req.Prediction
	p.Analysis = req.Analysis
	p.Odds = req.Odds
	p.RequiredTier = tier
	p.Result = req.Result
	p.IsPublished = req.IsPublished
	p.MatchDate = req.MatchDate.UTC()
	return nil
}
