package api

import "time"

// Request payloads.

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	// RefreshToken is optional in the body; the cookie is used when absent.
	RefreshToken string `json:"refreshToken,omitempty"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

type CreateRoomRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	MaxParticipants *int   `json:"maxParticipants,omitempty"`
}

// UpdateRoomRequest carries the allow-listed mutable room fields. Pointers
// distinguish "absent" from zero values; anything else in the body is
// silently dropped.
type UpdateRoomRequest struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	MaxParticipants *int    `json:"maxParticipants,omitempty"`
	IsOpen          *bool   `json:"isOpen,omitempty"`
	VotingOpen      *bool   `json:"votingOpen,omitempty"`
}

type JoinRoomRequest struct {
	Code string `json:"code"`
}

type CreateOptionRequest struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type UpdateOptionRequest struct {
	Text string `json:"text"`
}

type CastVoteRequest struct {
	RoomID   string `json:"roomId"`
	OptionID string `json:"optionId"`
}

type FinalizeRequest struct {
	Tiebreaker string `json:"tiebreaker,omitempty"`
}

// Response payloads.

type MessageResponse struct {
	Message string `json:"message"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse is returned by login, verify and refresh. Tokens are also set
// as http-only cookies; the body copy serves non-browser clients.
type AuthResponse struct {
	Message      string `json:"message,omitempty"`
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type FinalDecision struct {
	OptionID   string    `json:"optionId"`
	Tiebreaker string    `json:"tiebreaker,omitempty"`
	DecidedAt  time.Time `json:"decidedAt"`
}

type Room struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	MaxParticipants *int           `json:"maxParticipants,omitempty"`
	Code            string         `json:"code"`
	CreatorID       string         `json:"creatorId"`
	Participants    []string       `json:"participants"`
	IsOpen          bool           `json:"isOpen"`
	VotingOpen      bool           `json:"votingOpen"`
	CreatedAt       time.Time      `json:"createdAt"`
	LastActivity    time.Time      `json:"lastActivity"`
	FinalDecision   *FinalDecision `json:"finalDecision,omitempty"`
}

// PastRoom is a decided room as listed in the caller's decision history,
// flattening the winning option's text alongside the room fields.
type PastRoom struct {
	Room
	DecidedOptionText string `json:"decidedOptionText"`
}

type Option struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"roomId"`
	Text          string    `json:"text"`
	SubmittedBy   string    `json:"submittedBy"`
	SubmitterName string    `json:"submitterName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Vote struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	OptionID  string    `json:"optionId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomDetailResponse is the full view of a room. Votes are only populated
// once voting has closed; while voting is open a caller sees at most their
// own vote.
type RoomDetailResponse struct {
	Room     Room     `json:"room"`
	Options  []Option `json:"options"`
	Votes    []Vote   `json:"votes"`
	UserVote *Vote    `json:"userVote,omitempty"`
}

// VoteCountsResponse reports tally state. VoteCounts is null for non-creators
// while voting is open; vote secrecy holds until the round closes.
type VoteCountsResponse struct {
	TotalVotes int            `json:"totalVotes"`
	UserVoted  bool           `json:"userVoted"`
	VoteCounts map[string]int `json:"voteCounts"`
}

// FinalizeResponse reports the outcome of a finalize call. When IsTie is true
// and no decision is present, the caller is expected to pick a tiebreaker and
// resubmit.
type FinalizeResponse struct {
	Room          *Room    `json:"room,omitempty"`
	WinningOption *Option  `json:"winningOption,omitempty"`
	TiedOptions   []string `json:"tiedOptions,omitempty"`
	IsTie         bool     `json:"isTie"`
	Tiebreaker    string   `json:"tiebreaker,omitempty"`
}

type SweepResponse struct {
	Message     string `json:"message"`
	RoomsClosed int64  `json:"roomsClosed"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
