package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/repository"
)

func TestIdentityCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	idents := db.Identities()
	ctx := context.Background()

	rec := &repository.IdentityRecord{
		Email:        "ada@example.com",
		PasswordHash: "$2a$fakehash",
		Username:     "ada",
		Provider:     "password",
	}
	if err := idents.CreateIdentity(ctx, rec); err != nil {
		t.Fatalf("CreateIdentity() error = %v", err)
	}
	if rec.ID == "" {
		t.Error("CreateIdentity() should assign an ID")
	}

	got, err := idents.GetIdentityByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetIdentityByEmail() error = %v", err)
	}
	if got.ID != rec.ID || got.Username != "ada" {
		t.Errorf("got = %+v, want stored record", got)
	}
	if got.EmailConfirmedAt != nil {
		t.Error("EmailConfirmedAt should be nil before confirmation")
	}

	byID, err := idents.GetIdentityByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetIdentityByID() error = %v", err)
	}
	if byID.Email != "ada@example.com" {
		t.Errorf("Email = %q", byID.Email)
	}
}

func TestIdentityCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	idents := db.Identities()
	ctx := context.Background()

	if err := idents.CreateIdentity(ctx, &repository.IdentityRecord{Email: "ada@example.com"}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	err := idents.CreateIdentity(ctx, &repository.IdentityRecord{Email: "ada@example.com"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestConfirmIdentity(t *testing.T) {
	db := newTestDB(t)
	idents := db.Identities()
	ctx := context.Background()

	rec := &repository.IdentityRecord{Email: "ada@example.com"}
	if err := idents.CreateIdentity(ctx, rec); err != nil {
		t.Fatalf("setup: %v", err)
	}

	at := time.Now()
	if err := idents.ConfirmIdentity(ctx, rec.ID, at); err != nil {
		t.Fatalf("ConfirmIdentity() error = %v", err)
	}

	got, err := idents.GetIdentityByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetIdentityByID() error = %v", err)
	}
	if got.EmailConfirmedAt == nil {
		t.Fatal("EmailConfirmedAt should be set after confirmation")
	}

	if err := idents.ConfirmIdentity(ctx, "missing", at); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("confirming missing identity = %v, want ErrNotFound", err)
	}
}

func TestUpsertOAuthIdentity(t *testing.T) {
	db := newTestDB(t)
	idents := db.Identities()
	ctx := context.Background()

	first := &repository.IdentityRecord{
		Email:    "octo@example.com",
		Username: "octo",
		Provider: "github",
	}
	if err := idents.UpsertOAuthIdentity(ctx, first); err != nil {
		t.Fatalf("UpsertOAuthIdentity() error = %v", err)
	}
	if first.EmailConfirmedAt == nil {
		t.Error("OAuth identities should be created confirmed")
	}

	// Re-upsert with a changed username keeps the identity ID.
	second := &repository.IdentityRecord{
		Email:    "octo@example.com",
		Username: "octocat",
		Provider: "github",
	}
	if err := idents.UpsertOAuthIdentity(ctx, second); err != nil {
		t.Fatalf("second UpsertOAuthIdentity() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("ID changed on upsert: %q vs %q", second.ID, first.ID)
	}

	got, err := idents.GetIdentityByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetIdentityByID() error = %v", err)
	}
	if got.Username != "octocat" {
		t.Errorf("Username = %q, want refreshed value", got.Username)
	}
}

// TestUpsertOAuthIdentity_ConfirmsExisting covers the collision between an
// unconfirmed password sign-up and a later OAuth sign-in with the same
// email: the external provider has verified the address, so the upsert must
// stamp confirmation on the existing row rather than carry the nil forward.
func TestUpsertOAuthIdentity_ConfirmsExisting(t *testing.T) {
	db := newTestDB(t)
	idents := db.Identities()
	ctx := context.Background()

	pw := &repository.IdentityRecord{
		Email:        "ada@example.com",
		PasswordHash: "irrelevant",
		Provider:     "password",
	}
	if err := idents.CreateIdentity(ctx, pw); err != nil {
		t.Fatalf("CreateIdentity() error = %v", err)
	}
	if pw.EmailConfirmedAt != nil {
		t.Fatal("setup: password identity should start unconfirmed")
	}

	oauth := &repository.IdentityRecord{
		Email:    "ada@example.com",
		Username: "ada",
		Provider: "github",
	}
	if err := idents.UpsertOAuthIdentity(ctx, oauth); err != nil {
		t.Fatalf("UpsertOAuthIdentity() error = %v", err)
	}
	if oauth.ID != pw.ID {
		t.Errorf("ID = %q, want existing identity %q", oauth.ID, pw.ID)
	}
	if oauth.EmailConfirmedAt == nil {
		t.Error("upsert over an unconfirmed identity should confirm it")
	}

	got, err := idents.GetIdentityByID(ctx, pw.ID)
	if err != nil {
		t.Fatalf("GetIdentityByID() error = %v", err)
	}
	if got.EmailConfirmedAt == nil {
		t.Error("confirmation should be persisted on the identity row")
	}
}

func TestKVRoundTrip(t *testing.T) {
	db := newTestDB(t)
	kv := db.KV()
	ctx := context.Background()

	if _, err := kv.GetKV(ctx, "theme"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing key = %v, want ErrNotFound", err)
	}

	if err := kv.SetKV(ctx, "theme", "dark"); err != nil {
		t.Fatalf("SetKV() error = %v", err)
	}
	got, err := kv.GetKV(ctx, "theme")
	if err != nil {
		t.Fatalf("GetKV() error = %v", err)
	}
	if got != "dark" {
		t.Errorf("value = %q, want %q", got, "dark")
	}

	// Overwrite wins.
	if err := kv.SetKV(ctx, "theme", "light"); err != nil {
		t.Fatalf("SetKV() error = %v", err)
	}
	got, _ = kv.GetKV(ctx, "theme")
	if got != "light" {
		t.Errorf("value = %q, want %q", got, "light")
	}
}
