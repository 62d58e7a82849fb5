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
	handsOnURL = "https://handson.unitedwaygreaternashville.org/search/RetrieveFirstLoadForListingInSearch"

	// Form body for the listing search: zip 37210, any distance, sorted by
	// next date.
	handsOnForm = "blockId=48815&parameters[sort_by]=Next Date&parameters[searchvo_date_from]=&parameters[searchvo_date_to]=&parameters[age_volunteer_specific]=&parameters[enter_code_invitation_code]=&parameters[share_search_result]=&parameters[save_current_search_as]=&parameters[keyword]=&parameters[location-type]=&parameters[temporal_auxiliar]=&parameters[location]=37210&parameters[distance]=Any&parameters[countRegular]=0&parameters[countTraining]=0&parameters[countFilled]=0&parameters[countEvents]=0&parameters[countOpp55]=0&parameters[language]=en-US"

	handsOnImageURL = "https://mpf.com/wp-content/uploads/2014/10/handsOnNashville.jpg"
)

// handsOnResponse is the listing endpoint envelope. listingOpportunities is
// a JSON array re-encoded as a string inside the outer JSON document.
type handsOnResponse struct {
	Code                 string `json:"code"`
	ListingOpportunities string `json:"listingOpportunities"`
}

type handsOnOpportunity struct {
	SID                   json.RawMessage `json:"SID"`
	Title                 string          `json:"Title"`
	Description           string          `json:"Description"`
	Location              string          `json:"Location"`
	StartDateTimeValue    string          `json:"StartDateTimeValue"`
	VolunteersStillNeeded json.RawMessage `json:"VolunteersStillNeeded"`
	OccurrenceUrl         string          `json:"OccurrenceUrl"`
}

// HandsOnSource ingests HandsOn Nashville volunteer opportunities.
type HandsOnSource struct {
	orgID  int
	client *http.Client
	logger *zap.Logger
}

// NewHandsOnSource creates a HandsOn Nashville ingestion source. Ingested
// events are owned by the given organization row.
func NewHandsOnSource(orgID int, logger *zap.Logger) *HandsOnSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandsOnSource{orgID: orgID, client: http.DefaultClient, logger: logger}
}

// Run fetches the listing, filters to upcoming opportunities that still need
// volunteers, and upserts them. Returns the number of rows written.
func (s *HandsOnSource) Run(ctx context.Context, store EventUpserter) (int, error) {
	opportunities, err := s.fetch(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("handson listing fetched", zap.Int("opportunities", len(opportunities)))

	events := cleanHandsOnEvents(opportunities, s.orgID, time.Now())
	events = DedupeEvents(events)
	s.logger.Info("handson events cleaned", zap.Int("events", len(events)))

	return upsertAll(ctx, store, events, s.logger), nil
}

// cleanHandsOnEvents filters to upcoming opportunities that still need
// volunteers and maps them into event rows.
func cleanHandsOnEvents(opportunities []handsOnOpportunity, orgID int, now time.Time) []models.Event {
	var events []models.Event
	for _, op := range opportunities {
		needed := intFromJSON(op.VolunteersStillNeeded)
		if needed <= 0 {
			continue
		}
		start, err := time.Parse(time.RFC3339, op.StartDateTimeValue)
		if err != nil {
			start, err = time.Parse("2006-01-02T15:04:05", op.StartDateTimeValue)
			if err != nil {
				continue
			}
		}
		if start.Before(now) {
			continue
		}

		name := strings.TrimSpace(op.Title)
		if name == "" {
			name = "Untitled Event"
		}
		location := strings.TrimSpace(op.Location)
		if location == "" {
			location = "Location TBD"
		}
		link := op.OccurrenceUrl
		if link == "" {
			link = fmt.Sprintf("https://handson.unitedwaygreaternashville.org/opportunity/%s",
				strings.Trim(string(op.SID), `"`))
		}
		image := handsOnImageURL

		events = append(events, models.Event{
			OID:          orgID,
			Name:         name,
			Description:  op.Description,
			Date:         start.Format("2006-01-02"),
			Time:         start.Format("15:04:05"),
			Location:     location,
			PeopleNeeded: needed,
			Tags:         []string{"External", "Hands On"},
			ImageURL:     &image,
			Link:         &link,
			Restricted:   false,
		})
	}
	return events
}

func (s *HandsOnSource) fetch(ctx context.Context) ([]handsOnOpportunity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, handsOnURL, strings.NewReader(handsOnForm))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing status: %d", resp.StatusCode)
	}

	var envelope handsOnResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.ListingOpportunities == "" {
		return nil, nil
	}
	var opportunities []handsOnOpportunity
	if err := json.Unmarshal([]byte(envelope.ListingOpportunities), &opportunities); err != nil {
		return nil, fmt.Errorf("decode opportunities: %w", err)
	}
	return opportunities, nil
}
