package models

import (
	"encoding/json"
	"time"
)

// CurrentNumber is the last accepted count in a guild's channel.
type CurrentNumber struct {
	// Num is the value of the last accepted count
	Num int `json:"num"`

	// By is the Discord user ID of the member who counted it.
	// Empty when Num is 0 (nobody has counted yet).
	By string `json:"by,omitempty"`

	// MessageID is the message that carried the count
	MessageID string `json:"message,omitempty"`
}

// Record is a guild's all-time counting high-water mark.
type Record struct {
	// Num is the highest count ever reached
	Num int `json:"num"`

	// Time is when the record was last set or matched
	Time time.Time `json:"time,omitempty"`
}

// UserTally holds a member's correct/incorrect counts within one guild
type UserTally struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// UserStats holds a user's cross-guild counting totals
type UserStats struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// GuildCounting is the full counting-game state for one guild.
type GuildCounting struct {
	// GuildID is the Discord guild this state belongs to. It is the
	// document key, not part of the document body.
	GuildID string `json:"-"`

	// ChannelID is the only channel where counting is active
	ChannelID string `json:"channel"`

	// NumbersOnly penalizes non-numeric messages in the channel when
	// true; when false they are silently ignored
	NumbersOnly bool `json:"numbers_only"`

	// CurrentNumber is nil until the first count is accepted and again
	// after every failed count
	CurrentNumber *CurrentNumber `json:"current_number,omitempty"`

	// Record is nil until a count has been accepted at least once
	Record *Record `json:"record,omitempty"`

	// FailRoleID is the role applied as a penalty for breaking the
	// sequence, empty when no penalty role is configured
	FailRoleID string `json:"fail_role,omitempty"`

	// Users maps member IDs to their per-guild tallies, created lazily
	Users map[string]*UserTally `json:"users,omitempty"`
}

// guildCountingDoc mirrors GuildCounting for decoding. NumbersOnly is a
// pointer so documents written before the flag existed keep the default.
type guildCountingDoc struct {
	ChannelID     string                `json:"channel"`
	NumbersOnly   *bool                 `json:"numbers_only"`
	CurrentNumber *CurrentNumber        `json:"current_number,omitempty"`
	Record        *Record               `json:"record,omitempty"`
	FailRoleID    string                `json:"fail_role,omitempty"`
	Users         map[string]*UserTally `json:"users,omitempty"`
}

// UnmarshalJSON decodes a persisted counting document, defaulting
// numbers_only to true when the field is absent.
func (g *GuildCounting) UnmarshalJSON(data []byte) error {
	var doc guildCountingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	g.ChannelID = doc.ChannelID
	g.CurrentNumber = doc.CurrentNumber
	g.Record = doc.Record
	g.FailRoleID = doc.FailRoleID
	g.Users = doc.Users

	g.NumbersOnly = true
	if doc.NumbersOnly != nil {
		g.NumbersOnly = *doc.NumbersOnly
	}

	return nil
}

// MarshalJSON encodes the document, omitting the current number and the
// record while they are still zero.
func (g *GuildCounting) MarshalJSON() ([]byte, error) {
	doc := guildCountingDoc{
		ChannelID:     g.ChannelID,
		NumbersOnly:   &g.NumbersOnly,
		CurrentNumber: g.CurrentNumber,
		Record:        g.Record,
		FailRoleID:    g.FailRoleID,
		Users:         g.Users,
	}

	if doc.CurrentNumber != nil && doc.CurrentNumber.Num == 0 {
		doc.CurrentNumber = nil
	}

	if doc.Record != nil && doc.Record.Num == 0 {
		doc.Record = nil
	}

	if len(doc.Users) == 0 {
		doc.Users = nil
	}

	return json.Marshal(doc)
}

// CurrentNum returns the last accepted count, 0 when nothing has been
// counted yet.
func (g *GuildCounting) CurrentNum() int {
	if g.CurrentNumber == nil {
		return 0
	}
	return g.CurrentNumber.Num
}

// CurrentBy returns the user ID holding the current count, empty when
// the count is at zero.
func (g *GuildCounting) CurrentBy() string {
	if g.CurrentNumber == nil {
		return ""
	}
	return g.CurrentNumber.By
}

// RecordNum returns the guild's record, 0 when no record exists yet
func (g *GuildCounting) RecordNum() int {
	if g.Record == nil {
		return 0
	}
	return g.Record.Num
}
