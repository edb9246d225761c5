package core

// PointValues holds the point award per user action. The defaults are
// the product values; deployments may override them through config.
type PointValues struct {
	DailyLogin        int64 `json:"daily_login"`
	CreatePost        int64 `json:"create_post"`
	ReceivedJob       int64 `json:"received_job"`
	CompletedJob      int64 `json:"completed_job"`
	PositiveReview    int64 `json:"positive_review"`
	ProfileCompletion int64 `json:"profile_completion"`
}

// DefaultPointValues returns the standard award table.
func DefaultPointValues() PointValues {
	return PointValues{
		DailyLogin:        10,
		CreatePost:        25,
		ReceivedJob:       50,
		CompletedJob:      100,
		PositiveReview:    20,
		ProfileCompletion: 15,
	}
}

// Ledger reason strings used by the built-in flows.
const (
	ReasonDailyLogin        = "Daily login"
	ReasonCreatePost        = "Created a new post"
	ReasonReceivedJob       = "Received a job"
	ReasonCompletedJob      = "Completed a job"
	ReasonPositiveReview    = "Received a positive review"
	ReasonProfileCompletion = "Completed profile"
)
