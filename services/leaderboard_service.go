package services

import (
	"context"
	"net/url"

	"github.com/sirupsen/logrus"

	"friendsClient/internal/apiclient"
	"friendsClient/internal/pagination"
	"friendsClient/internal/types/leaderboard"
)

// LeaderboardService reads per-user leaderboard scores for profile
// display.
type LeaderboardService struct {
	api *apiclient.Client
	log *logrus.Entry
}

func NewLeaderboardService(api *apiclient.Client, logger *logrus.Logger) *LeaderboardService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LeaderboardService{
		api: api,
		log: logger.WithField("service", "leaderboards"),
	}
}

// UserEntries returns one page of username's leaderboard entries.
func (s *LeaderboardService) UserEntries(ctx context.Context, username string, page, limit int) (*pagination.Page[leaderboard.Entry], error) {
	var out pagination.Page[leaderboard.Entry]
	path := "/v1/leaderboards/users/" + url.PathEscape(username) + "/entries"
	if err := s.api.Get(ctx, path, pageQuery(page, limit), &out); err != nil {
		s.log.WithField("username", username).WithError(err).Warn("fetch leaderboard entries failed")
		return nil, err
	}
	return &out, nil
}
