package catalog

import (
	"time"

	"sprite-curator/internal/grid"
)

// ReviewStatusPending marks a review entry nobody has resolved yet.
const ReviewStatusPending = "needs_manual_review"

// ReviewInstructions is attached to every review entry.
const ReviewInstructions = "Please determine the sprite dimensions for this sheet. " +
	"Provide: sprite_width, sprite_height, cols, rows"

// ProcessedSheet records a sheet whose frames were extracted.
type ProcessedSheet struct {
	ID         string      `json:"id"`
	RunID      string      `json:"run_id"`
	Title      string      `json:"title"`
	SourcePath string      `json:"source_file"`
	Layout     grid.Layout `json:"layout"`

	ExtractedFrames int    `json:"extracted_frames"`
	OutputDir       string `json:"output_dir,omitempty"`

	DirectionMethod     string         `json:"direction_method,omitempty"`
	DirectionVerdict    string         `json:"direction_verdict,omitempty"`
	DirectionConfidence float64        `json:"direction_confidence"`
	Directions          map[string]int `json:"directions,omitempty"`

	GroupCount   int `json:"group_count"`
	LargestGroup int `json:"largest_group"`

	Kind string `json:"kind,omitempty"` // Character category, empty for other sheets

	CreatedAt time.Time `json:"created_at"`
}

// ReviewEntry records a sheet routed to manual review, with every layout
// candidate the detectors produced.
type ReviewEntry struct {
	ID           string        `json:"id"`
	RunID        string        `json:"run_id"`
	Title        string        `json:"title"`
	ImagePath    string        `json:"image_path"`
	ImageWidth   int           `json:"image_width"`
	ImageHeight  int           `json:"image_height"`
	Verdict      string        `json:"verdict"`
	Reason       string        `json:"reason,omitempty"`
	Candidates   []grid.Layout `json:"detection_attempts"`
	Instructions string        `json:"instructions"`
	Status       string        `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Stats summarizes the catalog contents.
type Stats struct {
	Processed       int `json:"processed"`
	NeedsReview     int `json:"needs_review"`
	ExtractedFrames int `json:"extracted_frames"`
}
