package service

import (
	"context"
	"time"

	"messenger/internal/domain"
	"messenger/internal/models"
)

type StatsService struct {
	repo domain.StatsRepository
	now  func() time.Time
}

func NewStatsService(repo domain.StatsRepository) *StatsService {
	return &StatsService{repo: repo, now: time.Now}
}

func (s *StatsService) Summary(ctx context.Context) (*models.Summary, error) {
	return s.repo.Summary(ctx, s.today())
}

// Daily returns per-day counts for the last days days, today included.
// Out-of-range values fall back to the default window or the maximum.
func (s *StatsService) Daily(ctx context.Context, days int) ([]models.DailyCount, error) {
	switch {
	case days <= 0:
		days = models.DefaultStatsDays
	case days > models.MaxStatsDays:
		days = models.MaxStatsDays
	}
	to := s.today()
	from := to.AddDate(0, 0, -(days - 1))
	return s.repo.DailyCounts(ctx, from, to)
}

func (s *StatsService) ByCompany(ctx context.Context) ([]models.CompanyCount, error) {
	return s.repo.CompanyCounts(ctx)
}

func (s *StatsService) ByStatus(ctx context.Context) ([]models.StatusCount, error) {
	return s.repo.StatusCounts(ctx)
}

func (s *StatsService) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
