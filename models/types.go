package models

import "time"

// Post status constants
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request types

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreatePostRequest struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	CategorySlug string `json:"category_slug"`
	AuthorName   string `json:"author_name"`
	// "draft" (default) or "pending" to submit for review immediately.
	Status string `json:"status,omitempty"`
}

// Response types

type CreateCategoryResponse struct {
	CategoryID string `json:"category_id"`
	Slug       string `json:"slug"`
}

type CreatePostResponse struct {
	PostID string `json:"post_id"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

type ClickResponse struct {
	Status  string `json:"status"`
	Variant string `json:"variant"`
}

type PurgeResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
	Detail string `json:"detail"`

	ProbePrefix  int `json:"probe_prefix"`
	ShortSession int `json:"short_session"`
	BurstMinutes int `json:"burst_minutes"`
	Total        int `json:"total"`
}

// Domain types

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	CategoryID  string     `json:"category_id"`
	AuthorName  string     `json:"author_name"`
	Status      string     `json:"status"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type CategoryWithPosts struct {
	Category Category `json:"category"`
	Posts    []Post   `json:"posts"`
}

type Bookmark struct {
	PostID    string    `json:"post_id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type DashboardResponse struct {
	PendingPosts []Post `json:"pending_posts"`
	DraftPosts   []Post `json:"draft_posts"`
}

// VariantSummary is one row of the experiment summary (admin tools).
type VariantSummary struct {
	Variant        string  `json:"variant"`
	Exposures      int     `json:"exposures"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
	ExposureShare  float64 `json:"exposure_share"`
}

type SummaryResponse struct {
	Experiment    string           `json:"experiment"`
	Endpoint      string           `json:"endpoint"`
	TotalEvents   int              `json:"total_events"`
	Variants      []VariantSummary `json:"variants"`
	SplitFlagged  []string         `json:"split_flagged,omitempty"`
	SplitBalanced bool             `json:"split_balanced"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
