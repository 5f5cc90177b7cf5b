package doctors

// Doctor is one provider entry in a search result.
type Doctor struct {
	ID                   string   `json:"id"`
	FirstName            string   `json:"firstName"`
	LastName             string   `json:"lastName"`
	Specialty            string   `json:"specialty"`
	ProfileImageURL      string   `json:"profileImageUrl,omitempty"`
	PracticeName         string   `json:"practiceName,omitempty"`
	Address              Address  `json:"address"`
	Rating               float64  `json:"rating"`
	ReviewCount          int      `json:"reviewCount"`
	InsurancesAccepted   []string `json:"insurancesAccepted,omitempty"`
	AvailableSlots       []string `json:"availableSlots,omitempty"`
	ProfileURL           string   `json:"profileUrl,omitempty"`
	AcceptingNewPatients bool     `json:"acceptingNewPatients"`
}

// Address locates a doctor's practice.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// SearchRequest carries the directory search parameters.
type SearchRequest struct {
	Specialty string `json:"specialty"`
	Location  string `json:"location"`
	Insurance string `json:"insurance,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"pageSize,omitempty"`
}

// SearchResult is the directory response.
type SearchResult struct {
	Doctors      []Doctor `json:"doctors"`
	SearchQuery  string   `json:"searchQuery"`
	Location     string   `json:"location"`
	Specialty    string   `json:"specialty"`
	TotalResults int      `json:"totalResults"`
}
