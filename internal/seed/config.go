package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL    string        // Base URL of the service
	VideoPath  string        // Video to open before seeding; empty keeps the open session
	NumEvents  int           // Number of events to generate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	MaxVideoMS int64         // Upper bound for generated positions
	Events     []string      // Event vocabulary to draw from
	Teams      []string      // Team vocabulary to draw from
	OutputFile string        // Output file for generated events
	Verbose    bool          // Enable verbose logging
}

// Event is an annotation submitted to POST /events.
type Event struct {
	Event   string `json:"event"`
	Team    string `json:"team"`
	VideoMS int64  `json:"video_ms"`
	X       *int   `json:"x,omitempty"`
	Y       *int   `json:"y,omitempty"`
}

// Entry is one row of GET /events.
type Entry struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Frame   int64  `json:"frame"`
	Team    string `json:"team"`
	Event   string `json:"event"`
	VideoMS int64  `json:"video_ms"`
}

type eventsResponse struct {
	Events []Entry `json:"events"`
	Count  int     `json:"count"`
}

// Stats holds run statistics.
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsFailed     int
	EventsBefore     int
	EventsAfter      int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
