package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/volunteerhub/backend/internal/models"
)

const (
	pointBaseURL = "https://pointapp-8f268.appspot.com/api/v1/shared/frames/events"

	pointDescription = "The Nashville Food Project strives to provide increased access to healthy foods in homeless and underserved communities in the Middle TN area."

	// Delay between page fetches so we do not hammer the API.
	pointPageDelay = 500 * time.Millisecond
)

type pointResponse struct {
	Items []pointEvent `json:"items"`
	Total int          `json:"total"`
}

type pointEvent struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	StartTime    int64  `json:"startTime"`
	Spots        int    `json:"spots"`
	Address      string `json:"address"`
	Image        string `json:"image"`
	IsVirtual    bool   `json:"isVirtual"`
	PrimaryCause struct {
		Title string `json:"title"`
	} `json:"primaryCause"`
}

// PointSource ingests Nashville Food Project events from the Point platform.
type PointSource struct {
	orgID   int
	token   string
	start   int
	end     int
	size    int
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewPointSource creates a Point ingestion source. Pages start through end
// inclusive are fetched with size events per page.
func NewPointSource(orgID int, token string, start, end, size int, logger *zap.Logger) *PointSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointSource{
		orgID:   orgID,
		token:   token,
		start:   start,
		end:     end,
		size:    size,
		baseURL: pointBaseURL,
		client:  http.DefaultClient,
		logger:  logger,
	}
}

// Run fetches the configured page range, filters to upcoming events with
// open spots, and upserts them. Returns the number of rows written.
func (s *PointSource) Run(ctx context.Context, store EventUpserter) (int, error) {
	raw, err := s.fetchRange(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("point events fetched", zap.Int("events", len(raw)))

	events := cleanPointEvents(raw, s.orgID, time.Now())
	events = DedupeEvents(events)
	s.logger.Info("point events cleaned", zap.Int("events", len(events)))

	return upsertAll(ctx, store, events, s.logger), nil
}

// fetchRange pulls each page in order; a failed page is logged and skipped
// so a partial outage still yields the rest of the range.
func (s *PointSource) fetchRange(ctx context.Context) ([]pointEvent, error) {
	var all []pointEvent
	for page := s.start; page <= s.end; page++ {
		events, err := s.fetchPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			s.logger.Error("point page fetch failed", zap.Int("page", page), zap.Error(err))
			continue
		}
		all = append(all, events...)
		if page < s.end {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(pointPageDelay):
			}
		}
	}
	return all, nil
}

func (s *PointSource) fetchPage(ctx context.Context, page int) ([]pointEvent, error) {
	url := fmt.Sprintf("%s?token=%s&page=%d&size=%d", s.baseURL, s.token, page, s.size)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page status: %d", resp.StatusCode)
	}

	var envelope pointResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return envelope.Items, nil
}

// cleanPointEvents filters to upcoming events with open spots and maps them
// into event rows.
func cleanPointEvents(raw []pointEvent, orgID int, now time.Time) []models.Event {
	var events []models.Event
	for _, pe := range raw {
		if pe.Spots <= 0 {
			continue
		}
		start := time.UnixMilli(pe.StartTime)
		if start.Before(now) {
			continue
		}

		name := strings.TrimSpace(pe.Title)
		if name == "" {
			name = "Untitled Event"
		}
		location := strings.TrimSpace(pe.Address)
		if location == "" {
			location = "Location TBD"
		}
		link := fmt.Sprintf("https://dash.pointapp.org/events/%d", pe.ID)

		e := models.Event{
			OID:          orgID,
			Name:         name,
			Description:  pointDescription,
			Date:         start.Format("2006-01-02"),
			Time:         start.Format("15:04:05"),
			Location:     location,
			PeopleNeeded: pe.Spots,
			Tags:         extractPointTags(pe),
			Link:         &link,
			Restricted:   false,
		}
		if pe.Image != "" {
			image := pe.Image
			e.ImageURL = &image
		}
		events = append(events, e)
	}
	return events
}

// extractPointTags builds the tag list for a Point event from its cause,
// title keywords, and format.
func extractPointTags(pe pointEvent) []string {
	tags := []string{"External"}
	if cause := strings.TrimSpace(pe.PrimaryCause.Title); cause != "" {
		tags = append(tags, cause)
	}
	tags = append(tags, "Nashville Food Project")

	title := strings.ToLower(pe.Title)
	switch {
	case strings.Contains(title, "meal prep") || strings.Contains(title, "cooking"):
		tags = append(tags, "Meal Prep")
	case strings.Contains(title, "sorting") || strings.Contains(title, "preserving"):
		tags = append(tags, "Sorting")
	case strings.Contains(title, "garden") || strings.Contains(title, "farm"):
		tags = append(tags, "Garden")
	case strings.Contains(title, "delivery") || strings.Contains(title, "distribute"):
		tags = append(tags, "Delivery")
	case strings.Contains(title, "best use"):
		tags = append(tags, "Best Use")
	}

	if pe.IsVirtual {
		tags = append(tags, "Virtual")
	} else {
		tags = append(tags, "In-Person")
	}
	return tags
}
