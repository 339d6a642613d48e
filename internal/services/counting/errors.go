package counting

// CountingError is a custom error type for counting-related errors
type CountingError string

// Error implements the error interface
func (e CountingError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrNotConfigured    CountingError = "counting is not configured for this guild"
	ErrNilConfig        CountingError = "config cannot be nil"
	ErrNilCountingRepo  CountingError = "counting repository cannot be nil"
	ErrNilUserStatsRepo CountingError = "user stats repository cannot be nil"
	ErrNilClock         CountingError = "clock cannot be nil"
	ErrEmptyGuildID     CountingError = "guild ID cannot be empty"
	ErrEmptyChannelID   CountingError = "channel ID cannot be empty"
)
