package model

// PlatformStats aggregates platform-wide counters.
//
// ActiveUsers counts all user rows — there is no activity-window filter
// behind the name. TotalCollaborations is the count of all star rows plus
// the sum of fork counters across public, published ideas.
type PlatformStats struct {
	TotalIdeas          int `json:"totalIdeas"`
	ActiveUsers         int `json:"activeUsers"`
	IdeasThisWeek       int `json:"ideasThisWeek"`
	TotalCollaborations int `json:"totalCollaborations"`
}

// UserDashboardStats aggregates a single user's authored ideas.
//
// TotalViews is a placeholder heuristic (idea count × 150) — no view counter
// exists in the store, so the figure is not authoritative.
type UserDashboardStats struct {
	TotalIdeas int `json:"totalIdeas"`
	TotalStars int `json:"totalStars"`
	TotalForks int `json:"totalForks"`
	TotalViews int `json:"totalViews"`
}
