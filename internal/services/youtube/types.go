package youtube

import (
	"encoding/json"
	"fmt"
)

// Typed response schemas for the Data API v3 endpoints the client speaks.
// Decoding into these fails loudly instead of silently producing missing
// fields from loosely-shaped JSON.

type apiErrorEnvelope struct {
	Error *apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Errors  []apiErrorItem `json:"errors"`
}

type apiErrorItem struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// reason returns the first machine-readable reason code, if the response
// carried the conventional error-object shape.
func (e *apiErrorEnvelope) reason() string {
	if e.Error == nil || len(e.Error.Errors) == 0 {
		return ""
	}
	return e.Error.Errors[0].Reason
}

func (e *apiErrorEnvelope) message() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Message
}

type thumbnail struct {
	URL string `json:"url"`
}

type thumbnailSet struct {
	Default thumbnail `json:"default"`
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
}

// best returns the largest available thumbnail URL.
func (t thumbnailSet) best() string {
	switch {
	case t.High.URL != "":
		return t.High.URL
	case t.Medium.URL != "":
		return t.Medium.URL
	default:
		return t.Default.URL
	}
}

type channelListResponse struct {
	Items []channelResource `json:"items"`
}

type channelResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string       `json:"title"`
		CustomURL   string       `json:"customUrl"`
		PublishedAt string       `json:"publishedAt"`
		Thumbnails  thumbnailSet `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount             string `json:"viewCount"`
		SubscriberCount       string `json:"subscriberCount"`
		HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
		VideoCount            string `json:"videoCount"`
	} `json:"statistics"`
	ContentDetails struct {
		RelatedPlaylists struct {
			Uploads string `json:"uploads"`
		} `json:"relatedPlaylists"`
	} `json:"contentDetails"`
}

type playlistItemsResponse struct {
	NextPageToken string         `json:"nextPageToken"`
	Items         []playlistItem `json:"items"`
}

type playlistItem struct {
	Snippet struct {
		Title       string       `json:"title"`
		PublishedAt string       `json:"publishedAt"`
		Thumbnails  thumbnailSet `json:"thumbnails"`
	} `json:"snippet"`
	ContentDetails struct {
		VideoID          string `json:"videoId"`
		VideoPublishedAt string `json:"videoPublishedAt"`
	} `json:"contentDetails"`
}

type videoListResponse struct {
	Items []videoResource `json:"items"`
}

type videoResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string       `json:"title"`
		PublishedAt string       `json:"publishedAt"`
		Thumbnails  thumbnailSet `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
}

type searchListResponse struct {
	Items []searchResult `json:"items"`
}

type searchResult struct {
	ID struct {
		Kind      string `json:"kind"`
		ChannelID string `json:"channelId"`
		VideoID   string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title       string       `json:"title"`
		ChannelID   string       `json:"channelId"`
		PublishedAt string       `json:"publishedAt"`
		Thumbnails  thumbnailSet `json:"thumbnails"`
	} `json:"snippet"`
}

// DecodeError reports a response body that did not match the expected schema
// for an operation.
type DecodeError struct {
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeResponse(operation string, data []byte, out interface{}) error {
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Operation: operation, Err: err}
	}
	return nil
}
