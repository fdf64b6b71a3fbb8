package domain

// Criteria is the set of filters a client asks for. Empty fields do not
// constrain the result.
type Criteria struct {
	Date      string `json:"date,omitempty"`
	Area      string `json:"area,omitempty"`
	Language  string `json:"language,omitempty"`
	Day       string `json:"day,omitempty"`
	Organizer string `json:"organizer,omitempty"`
	Age       string `json:"age,omitempty"`
	Time      string `json:"time,omitempty"`
	Address   string `json:"address,omitempty"`
}

func (c Criteria) IsZero() bool { return c == Criteria{} }

// FilteredResult is what the filtered-sheets endpoint returns.
type FilteredResult struct {
	Data   []Record
	Count  int
	Sample Record
	Cached bool
}

// Marker is a record that carries usable coordinates.
type Marker struct {
	Record Record
	Lat    float64
	Lng    float64
}
