package clubstore_test

import (
	"errors"
	"testing"

	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_DerivesSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := clubstore.New(db)

	c, err := store.Create(ctx, models.Club{Name: "Club Évian"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.Slug != "club-evian" {
		t.Errorf("slug = %q", c.Slug)
	}

	_, err = store.Create(ctx, models.Club{Name: "club evian"})
	if !errors.Is(err, clubstore.ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}

	got, err := store.GetBySlug(ctx, "club-evian")
	if err != nil || got.ID != c.ID {
		t.Errorf("GetBySlug: %v", err)
	}
}

func TestStore_Create_RejectsEmptySlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := clubstore.New(db)

	for _, name := range []string{"Клуб Москва", "東京クラブ", "!!!"} {
		if _, err := store.Create(ctx, models.Club{Name: name}); !errors.Is(err, clubstore.ErrEmptySlug) {
			t.Errorf("Create(%q) error = %v, want ErrEmptySlug", name, err)
		}
	}

	c, err := store.Create(ctx, models.Club{Name: "Клуб Москва", Slug: "moscow"})
	if err != nil {
		t.Fatalf("Create with explicit slug: %v", err)
	}
	if c.Slug != "moscow" {
		t.Errorf("slug = %q, want moscow", c.Slug)
	}
}

func TestStore_SetChief_OneClubPerChief(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := clubstore.New(db)

	a, _ := store.Create(ctx, models.Club{Name: "A"})
	b, _ := store.Create(ctx, models.Club{Name: "B"})
	chief := primitive.NewObjectID()

	if _, err := store.SetChief(ctx, a.ID, &chief); err != nil {
		t.Fatalf("SetChief: %v", err)
	}
	if _, err := store.SetChief(ctx, b.ID, &chief); !errors.Is(err, clubstore.ErrChiefTaken) {
		t.Errorf("expected ErrChiefTaken, got %v", err)
	}

	cleared, err := store.SetChief(ctx, a.ID, nil)
	if err != nil {
		t.Fatalf("SetChief(nil): %v", err)
	}
	if cleared.ChiefUserID != nil {
		t.Error("expected chief to be removed")
	}
}

func TestStore_EffectiveClub(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := clubstore.New(db)

	president := primitive.NewObjectID()
	club := fx.CreateClub(ctx, "Chief Club", "chief-club", &president)
	assigned := primitive.NewObjectID()

	got, err := store.EffectiveClub(ctx, president, &assigned)
	if err != nil || got == nil || *got != assigned {
		t.Errorf("assigned club should win: %v %v", got, err)
	}

	got, err = store.EffectiveClub(ctx, president, nil)
	if err != nil || got == nil || *got != club.ID {
		t.Errorf("expected chief lookup to find club: %v %v", got, err)
	}

	got, err = store.EffectiveClub(ctx, primitive.NewObjectID(), nil)
	if err != nil || got != nil {
		t.Errorf("expected no club: %v %v", got, err)
	}
}
