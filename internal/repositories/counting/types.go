package counting

import "github.com/OnekiDevs/oneki/internal/models"

type SaveCountingInput struct {
	Counting *models.GuildCounting
}

type GetCountingInput struct {
	GuildID string
}

type ListCountingsInput struct {
	// Offset is the number of guilds to skip, for pagination
	Offset int

	// Limit caps the number of guilds returned; 0 means all
	Limit int
}

type ListCountingsOutput struct {
	Countings []*models.GuildCounting
}

type DeleteCountingInput struct {
	GuildID string
}

type ClearCurrentNumberInput struct {
	GuildID string
}

type IncrementUserTallyInput struct {
	GuildID string
	UserID  string
	Correct bool
}
