package http

import (
	"github.com/diceydecisions/dicey/internal/dicey/domain"
	"github.com/diceydecisions/dicey/internal/dicey/service"
	"github.com/diceydecisions/dicey/pkg/api"
)

func toAPIUser(u domain.User) api.User {
	return api.User{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toAPIRoom(r domain.Room, participants []string) api.Room {
	out := api.Room{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		MaxParticipants: r.MaxParticipants,
		Code:            r.Code,
		CreatorID:       r.CreatorID,
		Participants:    participants,
		IsOpen:          r.IsOpen,
		VotingOpen:      r.VotingOpen,
		CreatedAt:       r.CreatedAt,
		LastActivity:    r.LastActivity,
	}
	if out.Participants == nil {
		out.Participants = []string{}
	}
	if r.Decided() {
		out.FinalDecision = &api.FinalDecision{
			OptionID:  *r.DecidedOptionID,
			DecidedAt: *r.DecidedAt,
		}
		if r.Tiebreaker != nil {
			out.FinalDecision.Tiebreaker = *r.Tiebreaker
		}
	}
	return out
}

func toAPIPastRoom(d domain.DecidedRoom) api.PastRoom {
	return api.PastRoom{
		Room:              toAPIRoom(d.Room, nil),
		DecidedOptionText: d.OptionText,
	}
}

func toAPIOption(o domain.Option) api.Option {
	return api.Option{
		ID:            o.ID,
		RoomID:        o.RoomID,
		Text:          o.Text,
		SubmittedBy:   o.SubmittedBy,
		SubmitterName: o.SubmitterName,
		CreatedAt:     o.CreatedAt,
	}
}

func toAPIOptions(opts []domain.Option) []api.Option {
	out := make([]api.Option, 0, len(opts))
	for _, o := range opts {
		out = append(out, toAPIOption(o))
	}
	return out
}

func toAPIVote(v domain.Vote) api.Vote {
	return api.Vote{
		ID:        v.ID,
		RoomID:    v.RoomID,
		OptionID:  v.OptionID,
		UserID:    v.UserID,
		CreatedAt: v.CreatedAt,
	}
}

func toAPIVotes(votes []domain.Vote) []api.Vote {
	out := make([]api.Vote, 0, len(votes))
	for _, v := range votes {
		out = append(out, toAPIVote(v))
	}
	return out
}

func toAPIRoomDetail(d service.RoomDetail) api.RoomDetailResponse {
	out := api.RoomDetailResponse{
		Room:    toAPIRoom(d.Room, d.Participants),
		Options: toAPIOptions(d.Options),
		Votes:   toAPIVotes(d.Votes),
	}
	if d.UserVote != nil {
		v := toAPIVote(*d.UserVote)
		out.UserVote = &v
	}
	return out
}
