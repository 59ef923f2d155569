package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
)

func TestProfileRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)

	birthDate := time.Date(1995, time.March, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .*FROM woningzoeker\.profiles`).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "min_price_base", "max_price_base", "birth_date",
		}).AddRow("profile-1", "user-1", 500, 900, birthDate))

	mock.ExpectQuery(`SELECT city FROM woningzoeker\.profile_cities`).
		WithArgs("profile-1").
		WillReturnRows(pgxmock.NewRows([]string{"city"}).
			AddRow("Delft").
			AddRow("Den Haag"))

	profiles, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}

	profile := profiles[0]
	if profile.ID != "profile-1" || profile.MinPriceBase != 500 || profile.MaxPriceBase != 900 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if len(profile.Cities) != 2 || profile.Cities[0] != "Delft" {
		t.Fatalf("unexpected cities: %v", profile.Cities)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepository_ListEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM woningzoeker\.profiles`).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "min_price_base", "max_price_base", "birth_date",
		}))

	profiles, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("expected no profiles, got %+v", profiles)
	}
}
