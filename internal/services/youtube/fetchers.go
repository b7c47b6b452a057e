package youtube

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tubedash/tubedash/internal/models"
	"github.com/tubedash/tubedash/internal/utils"
)

const (
	// batchLimit is the maximum number of IDs the Data API accepts per
	// channels.list or videos.list call.
	batchLimit = 50

	// oldestVideoPad backdates the publishedAfter filter so a first upload
	// that predates the recorded channel-creation timestamp (clock skew on
	// very old channels) is still found.
	oldestVideoPad = 12 * time.Hour

	// defaultThumbnailURL stands in for channels whose metadata could not be
	// fetched (terminated or unknown channels).
	defaultThumbnailURL = "https://www.gstatic.com/youtube/img/tvfilm/clapperboard_profile.png"

	// monetizationSubscriberFloor is the partner-program subscriber
	// threshold used for the derived monetization tag.
	monetizationSubscriberFloor = 1000
)

var channelIDPattern = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

// ResolveChannelID turns a user-supplied identifier (canonical ID, legacy
// username or @handle) into a channel ID. It never fails: when neither the
// username lookup nor the search finds anything, the input comes back
// unchanged and the downstream metadata fetch reports the miss.
func (c *Client) ResolveChannelID(ctx context.Context, input string) string {
	identifier := strings.TrimSpace(input)
	if channelIDPattern.MatchString(identifier) {
		return identifier
	}

	query := strings.TrimPrefix(identifier, "@")

	body, err := c.Call(ctx, "channels", map[string]string{
		"part":        "id",
		"forUsername": query,
	})
	if err == nil {
		var resp channelListResponse
		if decodeResponse("channels", body, &resp) == nil && len(resp.Items) > 0 {
			return resp.Items[0].ID
		}
	}

	body, err = c.Call(ctx, "search", map[string]string{
		"part":       "snippet",
		"q":          query,
		"type":       "channel",
		"maxResults": "1",
	})
	if err == nil {
		var resp searchListResponse
		if decodeResponse("search", body, &resp) == nil && len(resp.Items) > 0 {
			if id := resp.Items[0].ID.ChannelID; id != "" {
				return id
			}
		}
	}

	return input
}

// FetchNewestVideo returns full statistics for the most recent entry of an
// uploads playlist, or nil when the playlist is empty or either sub-call
// fails.
func (c *Client) FetchNewestVideo(ctx context.Context, playlistID string) *models.VideoStat {
	body, err := c.Call(ctx, "playlistItems", map[string]string{
		"part":       "snippet,contentDetails",
		"playlistId": playlistID,
		"maxResults": "1",
	})
	if err != nil {
		return nil
	}
	var page playlistItemsResponse
	if decodeResponse("playlistItems", body, &page) != nil || len(page.Items) == 0 {
		return nil
	}

	videoID := page.Items[0].ContentDetails.VideoID
	stats := c.fetchVideoStats(ctx, []string{videoID})
	if len(stats) == 0 {
		return nil
	}
	v := stats[0]
	return &v
}

// FetchOldestVideo searches for the channel's earliest upload. The search
// window opens shortly before the recorded channel-creation timestamp and
// the results are re-sorted ascending client-side, since the API orders
// descending by date. Returns nil on empty results or failure.
func (c *Client) FetchOldestVideo(ctx context.Context, channelID, channelCreatedAt string) *models.VideoStat {
	createdAt, err := time.Parse(time.RFC3339, channelCreatedAt)
	if err != nil {
		return nil
	}
	publishedAfter := createdAt.Add(-oldestVideoPad).UTC().Format(time.RFC3339)

	body, err := c.Call(ctx, "search", map[string]string{
		"part":           "snippet",
		"channelId":      channelID,
		"type":           "video",
		"order":          "date",
		"maxResults":     "50",
		"publishedAfter": publishedAfter,
	})
	if err != nil {
		return nil
	}
	var resp searchListResponse
	if decodeResponse("search", body, &resp) != nil || len(resp.Items) == 0 {
		return nil
	}

	items := resp.Items
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Snippet.PublishedAt < items[j].Snippet.PublishedAt
	})
	earliest := items[0]

	return &models.VideoStat{
		VideoID:      earliest.ID.VideoID,
		Title:        earliest.Snippet.Title,
		ThumbnailURL: earliest.Snippet.Thumbnails.best(),
		PublishedAt:  earliest.Snippet.PublishedAt,
	}
}

// FetchChannelStats resolves an identifier and assembles the full aggregate:
// channel metadata plus newest and oldest video, fetched concurrently.
// Failure to fetch metadata is encoded in the result's status field — a
// terminated placeholder with zeroed counters — never in an error.
func (c *Client) FetchChannelStats(ctx context.Context, identifier string) *models.ChannelStats {
	channelID := c.ResolveChannelID(ctx, identifier)

	body, err := c.Call(ctx, "channels", map[string]string{
		"part": "snippet,statistics,contentDetails",
		"id":   channelID,
	})
	if err != nil {
		utils.LogWarn(ctx, "Channel metadata fetch failed", utils.Fields{
			"channel_id": channelID,
			"error":      err.Error(),
		})
		return terminatedPlaceholder(channelID)
	}
	var resp channelListResponse
	if decodeResponse("channels", body, &resp) != nil || len(resp.Items) == 0 {
		return terminatedPlaceholder(channelID)
	}

	stats := channelStatsFromResource(resp.Items[0])

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		stats.NewestVideo = c.FetchNewestVideo(ctx, stats.UploadsPlaylistID)
	}()
	go func() {
		defer wg.Done()
		stats.OldestVideo = c.FetchOldestVideo(ctx, stats.ChannelID, stats.PublishedAt)
	}()
	wg.Wait()

	return stats
}

// FetchChannelStatsBatch fetches metadata for many channels in chunks of at
// most 50 IDs. A failed chunk is logged and omitted; the surviving chunks
// are concatenated in order. Callers must expect fewer results than
// identifiers. Batch entries carry no newest/oldest video snapshots.
func (c *Client) FetchChannelStatsBatch(ctx context.Context, channelIDs []string) []*models.ChannelStats {
	results := make([]*models.ChannelStats, 0, len(channelIDs))

	for offset := 0; offset < len(channelIDs); offset += batchLimit {
		end := offset + batchLimit
		if end > len(channelIDs) {
			end = len(channelIDs)
		}
		chunk := channelIDs[offset:end]

		body, err := c.Call(ctx, "channels", map[string]string{
			"part": "snippet,statistics,contentDetails",
			"id":   strings.Join(chunk, ","),
		})
		if err != nil {
			utils.LogWarn(ctx, "Channel batch chunk failed", utils.Fields{
				"offset":     offset,
				"chunk_size": len(chunk),
				"error":      err.Error(),
			})
			continue
		}
		var resp channelListResponse
		if decodeResponse("channels", body, &resp) != nil {
			continue
		}
		for _, item := range resp.Items {
			results = append(results, channelStatsFromResource(item))
		}
	}

	return results
}

// FetchVideoPage returns one page of an uploads playlist with full per-video
// statistics, reassembled in playlist order (the statistics response is not
// guaranteed ordered). Entries whose video ID is missing from the statistics
// response are dropped. Any failure yields an empty page, never an error.
func (c *Client) FetchVideoPage(ctx context.Context, playlistID string, pageSize int, pageToken string) models.VideoPage {
	if pageSize <= 0 || pageSize > batchLimit {
		pageSize = batchLimit
	}
	params := map[string]string{
		"part":       "snippet,contentDetails",
		"playlistId": playlistID,
		"maxResults": strconv.Itoa(pageSize),
	}
	if pageToken != "" {
		params["pageToken"] = pageToken
	}

	body, err := c.Call(ctx, "playlistItems", params)
	if err != nil {
		return models.VideoPage{Videos: []models.VideoStat{}}
	}
	var page playlistItemsResponse
	if decodeResponse("playlistItems", body, &page) != nil || len(page.Items) == 0 {
		return models.VideoPage{Videos: []models.VideoStat{}}
	}

	order := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		order = append(order, item.ContentDetails.VideoID)
	}

	stats := c.fetchVideoStats(ctx, order)
	if stats == nil {
		return models.VideoPage{Videos: []models.VideoStat{}}
	}
	byID := make(map[string]models.VideoStat, len(stats))
	for _, v := range stats {
		byID[v.VideoID] = v
	}

	videos := make([]models.VideoStat, 0, len(order))
	for _, id := range order {
		if v, ok := byID[id]; ok {
			videos = append(videos, v)
		}
	}

	return models.VideoPage{Videos: videos, NextPageToken: page.NextPageToken}
}

// fetchVideoStats resolves full statistics for up to 50 video IDs. Returns
// nil on failure.
func (c *Client) fetchVideoStats(ctx context.Context, videoIDs []string) []models.VideoStat {
	if len(videoIDs) == 0 {
		return nil
	}
	body, err := c.Call(ctx, "videos", map[string]string{
		"part": "snippet,statistics",
		"id":   strings.Join(videoIDs, ","),
	})
	if err != nil {
		return nil
	}
	var resp videoListResponse
	if decodeResponse("videos", body, &resp) != nil {
		return nil
	}

	stats := make([]models.VideoStat, 0, len(resp.Items))
	for _, item := range resp.Items {
		stats = append(stats, models.VideoStat{
			VideoID:      item.ID,
			Title:        item.Snippet.Title,
			ThumbnailURL: item.Snippet.Thumbnails.best(),
			PublishedAt:  item.Snippet.PublishedAt,
			ViewCount:    zeroIfEmpty(item.Statistics.ViewCount),
			LikeCount:    zeroIfEmpty(item.Statistics.LikeCount),
			CommentCount: zeroIfEmpty(item.Statistics.CommentCount),
		})
	}
	return stats
}

func channelStatsFromResource(item channelResource) *models.ChannelStats {
	subscribers, _ := strconv.ParseInt(zeroIfEmpty(item.Statistics.SubscriberCount), 10, 64)
	videos, _ := strconv.ParseInt(zeroIfEmpty(item.Statistics.VideoCount), 10, 64)
	views, _ := strconv.ParseInt(zeroIfEmpty(item.Statistics.ViewCount), 10, 64)

	var engagement float64
	if subscribers > 0 {
		engagement = float64(views) / float64(subscribers)
	}

	return &models.ChannelStats{
		ChannelID:         item.ID,
		Title:             item.Snippet.Title,
		ThumbnailURL:      item.Snippet.Thumbnails.best(),
		SubscriberCount:   zeroIfEmpty(item.Statistics.SubscriberCount),
		ViewCount:         zeroIfEmpty(item.Statistics.ViewCount),
		VideoCount:        zeroIfEmpty(item.Statistics.VideoCount),
		PublishedAt:       item.Snippet.PublishedAt,
		UploadsPlaylistID: item.ContentDetails.RelatedPlaylists.Uploads,
		Status:            models.ChannelStatusActive,
		Monetizable:       subscribers >= monetizationSubscriberFloor && videos > 0,
		EngagementRatio:   engagement,
		UpdatedAt:         time.Now().UTC(),
	}
}

func terminatedPlaceholder(channelID string) *models.ChannelStats {
	return &models.ChannelStats{
		ChannelID:       channelID,
		Title:           fmt.Sprintf("Unknown channel (%s)", channelID),
		ThumbnailURL:    defaultThumbnailURL,
		SubscriberCount: "0",
		ViewCount:       "0",
		VideoCount:      "0",
		Status:          models.ChannelStatusTerminated,
		UpdatedAt:       time.Now().UTC(),
	}
}

func zeroIfEmpty(count string) string {
	if count == "" {
		return "0"
	}
	return count
}
