package userstats

type IncrementStatsInput struct {
	UserID  string
	Correct bool
}

type GetStatsInput struct {
	UserID string
}
