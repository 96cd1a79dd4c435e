package pollstore_test

import (
	"errors"
	"sync"
	"testing"

	pollstore "github.com/dalemusser/clubhub/internal/app/store/polls"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Vote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := pollstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreatePoll(ctx, "Best day?", primitive.NewObjectID(), nil, "Mon", "Fri")

	got, err := store.Vote(ctx, p.ID, 1, "user:abc")
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if got.Options[1].Votes != 1 || got.Options[0].Votes != 0 {
		t.Errorf("tallies = %+v", got.Options)
	}

	if _, err := store.Vote(ctx, p.ID, 0, "user:abc"); !errors.Is(err, pollstore.ErrAlreadyVoted) {
		t.Errorf("second vote: got %v, want ErrAlreadyVoted", err)
	}
	if _, err := store.Vote(ctx, p.ID, 5, "user:other"); !errors.Is(err, pollstore.ErrInvalidOption) {
		t.Errorf("bad option: got %v, want ErrInvalidOption", err)
	}
	if _, err := store.Vote(ctx, primitive.NewObjectID(), 0, "user:other"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing poll: got %v", err)
	}

	if _, err := store.Close(ctx, p.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := store.Vote(ctx, p.ID, 0, "user:late"); !errors.Is(err, pollstore.ErrPollClosed) {
		t.Errorf("closed poll: got %v, want ErrPollClosed", err)
	}
}

func TestStore_Vote_ConcurrentSameVoter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := pollstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreatePoll(ctx, "Q", primitive.NewObjectID(), nil, "A", "B")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Vote(ctx, p.ID, i%2, "ip:10.0.0.1")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, pollstore.ErrAlreadyVoted):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful votes = %d, want 1", ok)
	}

	final, _ := store.GetByID(ctx, p.ID)
	if final.Options[0].Votes+final.Options[1].Votes != 1 || len(final.Voters) != 1 {
		t.Errorf("final state %+v voters=%v", final.Options, final.Voters)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pollstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	club := primitive.NewObjectID()
	author := primitive.NewObjectID()
	_, _ = store.Create(ctx, models.Poll{Question: "club", ClubID: &club, Options: []models.PollOption{{Text: "y"}}, CreatedBy: author})
	_, _ = store.Create(ctx, models.Poll{Question: "public", IsPublic: true, Options: []models.PollOption{{Text: "y"}}, CreatedBy: author})

	if got, _ := store.List(ctx, pollstore.ListFilter{}); len(got) != 2 {
		t.Errorf("all = %d, want 2", len(got))
	}
	if got, _ := store.List(ctx, pollstore.ListFilter{ClubID: &club}); len(got) != 1 || got[0].Question != "club" {
		t.Errorf("club filter = %+v", got)
	}
	if got, _ := store.List(ctx, pollstore.ListFilter{PublicOnly: true}); len(got) != 1 || got[0].Question != "public" {
		t.Errorf("public filter = %+v", got)
	}
}
