// Package doctors searches the provider directory. When the directory API is
// not configured or unreachable the service answers with deterministic sample
// data instead of failing — the opposite of the calendar and payment paths,
// where a silent fallback would fabricate bookings.
package doctors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

const defaultPageSize = 10

// Service queries the doctor directory API.
type Service struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger

	// now is overridable in tests so sample slots are deterministic.
	now func() time.Time
}

// Config holds directory API credentials.
type Config struct {
	APIKey  string
	BaseURL string
}

// NewService creates a doctor search service.
func NewService(cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.zocdoc.com/v1"
	}
	return &Service{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

// WithNow overrides the clock (for testing).
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) configured() bool {
	return s.apiKey != "" && !strings.HasPrefix(s.apiKey, "your-")
}

// Search queries the directory, falling back to sample data when the API is
// unconfigured or the upstream call fails. It never returns an error.
func (s *Service) Search(ctx context.Context, req SearchRequest) SearchResult {
	if !s.configured() {
		s.logger.Info("doctor directory API not configured, returning sample data")
		return s.sampleResult(req)
	}

	result, err := s.searchUpstream(ctx, req)
	if err != nil {
		s.logger.Error("doctor directory search failed, returning sample data", "error", err)
		return s.sampleResult(req)
	}
	return result
}

func (s *Service) searchUpstream(ctx context.Context, req SearchRequest) (SearchResult, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	params := url.Values{}
	params.Set("specialty", req.Specialty)
	params.Set("location", req.Location)
	params.Set("insurance", req.Insurance)
	params.Set("page", strconv.Itoa(req.Page))
	params.Set("pageSize", strconv.Itoa(pageSize))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return SearchResult{}, fmt.Errorf("doctors: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return SearchResult{}, fmt.Errorf("doctors: search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SearchResult{}, fmt.Errorf("doctors: directory returned status %d", resp.StatusCode)
	}

	var upstream struct {
		Results []struct {
			ID           string `json:"id"`
			FirstName    string `json:"firstName"`
			LastName     string `json:"lastName"`
			Specialty    string `json:"specialty"`
			ImageURL     string `json:"imageUrl"`
			PracticeName string `json:"practiceName"`
			Address      struct {
				Street string `json:"street"`
				City   string `json:"city"`
				State  string `json:"state"`
				Zip    string `json:"zip"`
			} `json:"address"`
			Rating               float64 `json:"rating"`
			ReviewCount          int     `json:"reviewCount"`
			AcceptingNewPatients *bool   `json:"acceptingNewPatients"`
			ProfileURL           string  `json:"profileUrl"`
		} `json:"results"`
		TotalResults int `json:"totalResults"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&upstream); err != nil {
		return SearchResult{}, fmt.Errorf("doctors: decode response: %w", err)
	}

	result := SearchResult{
		Doctors:     make([]Doctor, 0, len(upstream.Results)),
		SearchQuery: req.Specialty,
		Location:    req.Location,
		Specialty:   req.Specialty,
	}
	for _, d := range upstream.Results {
		accepting := true
		if d.AcceptingNewPatients != nil {
			accepting = *d.AcceptingNewPatients
		}
		result.Doctors = append(result.Doctors, Doctor{
			ID:              d.ID,
			FirstName:       d.FirstName,
			LastName:        d.LastName,
			Specialty:       d.Specialty,
			ProfileImageURL: d.ImageURL,
			PracticeName:    d.PracticeName,
			Address: Address{
				Street:  d.Address.Street,
				City:    d.Address.City,
				State:   d.Address.State,
				ZipCode: d.Address.Zip,
			},
			Rating:               d.Rating,
			ReviewCount:          d.ReviewCount,
			AcceptingNewPatients: accepting,
			ProfileURL:           d.ProfileURL,
		})
	}
	result.TotalResults = upstream.TotalResults
	if result.TotalResults == 0 {
		result.TotalResults = len(result.Doctors)
	}
	return result, nil
}

func (s *Service) sampleResult(req SearchRequest) SearchResult {
	specialty := req.Specialty
	if specialty == "" {
		specialty = "Primary Care"
	}
	location := req.Location
	if location == "" {
		location = "New York, NY"
	}

	slots := s.sampleSlots()
	docs := []Doctor{
		s.sampleDoctor("Sarah", "Johnson", specialty, location, "Metropolitan Health Partners",
			"123 Medical Center Dr", 4.8, 234, "4F46E5",
			[]string{"Medicare", "Medicaid", "Aetna", "Blue Cross Blue Shield", "United Healthcare"}, true, slots),
		s.sampleDoctor("Michael", "Chen", specialty, location, "City Care Medical Group",
			"456 Health Ave, Suite 200", 4.9, 189, "059669",
			[]string{"Medicare", "Cigna", "Aetna", "Humana"}, true, slots),
		s.sampleDoctor("Emily", "Rodriguez", specialty, location, "Wellness First Medical Center",
			"789 Care Blvd", 4.7, 312, "DC2626",
			[]string{"Medicare", "Medicaid", "United Healthcare", "Oscar Health"}, true, slots),
		s.sampleDoctor("David", "Patel", specialty, location, "Premier Healthcare Associates",
			"321 Physicians Way", 4.6, 156, "7C3AED",
			[]string{"Medicare", "Blue Cross Blue Shield", "Cigna", "Aetna"}, false, slots),
	}

	return SearchResult{
		Doctors:      docs,
		SearchQuery:  specialty,
		Location:     location,
		Specialty:    specialty,
		TotalResults: len(docs),
	}
}

func (s *Service) sampleDoctor(firstName, lastName, specialty, location, practice, street string,
	rating float64, reviews int, colorCode string, insurances []string, acceptingNew bool, slots []string) Doctor {

	city := strings.TrimSpace(strings.Split(location, ",")[0])
	state := "NY"
	if idx := strings.Index(location, ","); idx >= 0 {
		state = strings.TrimSpace(location[idx+1:])
	}

	return Doctor{
		ID:        uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
		Specialty: specialty,
		ProfileImageURL: fmt.Sprintf(
			"https://ui-avatars.com/api/?name=%s+%s&background=%s&color=fff&size=200",
			firstName, lastName, colorCode),
		PracticeName: practice,
		Address: Address{
			Street:  street,
			City:    city,
			State:   state,
			ZipCode: "10001",
		},
		Rating:               rating,
		ReviewCount:          reviews,
		InsurancesAccepted:   insurances,
		AvailableSlots:       slots,
		ProfileURL:           "https://www.zocdoc.com",
		AcceptingNewPatients: acceptingNew,
	}
}

// sampleSlots returns morning and afternoon openings over the next three days.
func (s *Service) sampleSlots() []string {
	today := s.now()
	slots := make([]string, 0, 18)
	for day := 1; day <= 3; day++ {
		date := today.AddDate(0, 0, day)
		for _, hour := range []int{9, 10, 11, 14, 15, 16} {
			slot := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
			slots = append(slots, slot.Format("2006-01-02 15:04"))
		}
	}
	return slots
}
