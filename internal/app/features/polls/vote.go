// internal/app/features/polls/vote.go
package polls

import (
	"context"
	"errors"
	"net/http"

	pollstore "github.com/dalemusser/clubhub/internal/app/store/polls"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/inputval"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

type voteRequest struct {
	Option *int `json:"option"`
}

// voterKey identifies one ballot: the user when signed in, otherwise the
// client address.
func voterKey(r *http.Request) string {
	if me, ok := auth.CurrentIdentity(r); ok {
		return "user:" + me.ID.Hex()
	}
	return "ip:" + ratelimit.ClientIP(r)
}

// ServeVote handles POST /polls/{id}/vote. Signed-out callers may vote.
func (h *Handler) ServeVote(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.PathID(r, "id", "Poll not found.")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var req voteRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.Option == nil {
		respond.Error(w, r, h.Log, apperr.Validation("Option is required."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.readable(ctx, r, id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	p, err := h.Polls.Vote(ctx, id, *req.Option, voterKey(r))
	switch {
	case err == nil:
		respond.OK(w, p)
	case errors.Is(err, pollstore.ErrAlreadyVoted):
		respond.Error(w, r, h.Log, apperr.InvalidState("You have already voted in this poll."))
	case errors.Is(err, pollstore.ErrPollClosed):
		respond.Error(w, r, h.Log, apperr.InvalidState("This poll is closed."))
	case errors.Is(err, pollstore.ErrInvalidOption):
		respond.Error(w, r, h.Log, apperr.Validation("Option is not valid for this poll."))
	case errors.Is(err, mongo.ErrNoDocuments):
		respond.Error(w, r, h.Log, apperr.NotFound("Poll not found."))
	case errors.Is(err, context.DeadlineExceeded):
		respond.Error(w, r, h.Log, apperr.Server("Voting timed out.", err))
	default:
		respond.Error(w, r, h.Log, apperr.Server("Failed to record vote.", err))
	}
}
