package tracker

import (
	"context"

	"github.com/tubedash/tubedash/internal/database"
	"github.com/tubedash/tubedash/internal/models"
	"github.com/tubedash/tubedash/internal/services/youtube"
	"github.com/tubedash/tubedash/internal/utils"
)

// Service owns the dashboard's tracked-channel lifecycle: adding channels by
// identifier, refreshing their statistics through the multi-key API client
// and persisting the resulting read models.
type Service struct {
	db *database.PostgresDB
	yt *youtube.Client
}

func NewService(db *database.PostgresDB, yt *youtube.Client) *Service {
	return &Service{db: db, yt: yt}
}

// AddChannel fetches the full aggregate for an identifier (ID, username or
// @handle) and persists it. The fetch itself never fails; a terminated
// placeholder is stored when the channel cannot be resolved, so the
// dashboard shows the miss instead of silently dropping the row.
func (s *Service) AddChannel(ctx context.Context, identifier string) (*models.ChannelStats, error) {
	stats := s.yt.FetchChannelStats(ctx, identifier)
	if err := s.db.UpsertChannel(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// RefreshAll re-fetches statistics for every tracked channel in one batched
// pass. Channels missing from the batch result (failed chunk or terminated
// channel) keep their previously stored row untouched.
func (s *Service) RefreshAll(ctx context.Context) ([]models.ChannelStats, error) {
	tracked, err := s.db.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	if len(tracked) == 0 {
		return []models.ChannelStats{}, nil
	}

	ids := make([]string, 0, len(tracked))
	for _, ch := range tracked {
		ids = append(ids, ch.ChannelID)
	}

	fetched := s.yt.FetchChannelStatsBatch(ctx, ids)
	refreshed := make([]models.ChannelStats, 0, len(fetched))
	for _, stats := range fetched {
		if err := s.db.UpsertChannel(ctx, stats); err != nil {
			utils.LogError(ctx, "Failed to persist refreshed channel", err, utils.Fields{
				"channel_id": stats.ChannelID,
			})
			continue
		}
		refreshed = append(refreshed, *stats)
	}

	if len(refreshed) < len(tracked) {
		utils.LogWarn(ctx, "Refresh completed with omissions", utils.Fields{
			"tracked":   len(tracked),
			"refreshed": len(refreshed),
		})
	}

	return refreshed, nil
}

// ListChannels returns the persisted channel read models.
func (s *Service) ListChannels(ctx context.Context) ([]models.ChannelStats, error) {
	return s.db.ListChannels(ctx)
}

// DeleteChannel removes a channel from tracking.
func (s *Service) DeleteChannel(ctx context.Context, channelID string) error {
	return s.db.DeleteChannel(ctx, channelID)
}

// VideoPage returns one page of a tracked channel's uploads with statistics.
func (s *Service) VideoPage(ctx context.Context, channelID string, pageSize int, pageToken string) (*models.VideoPage, error) {
	ch, err := s.db.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	page := s.yt.FetchVideoPage(ctx, ch.UploadsPlaylistID, pageSize, pageToken)
	return &page, nil
}
