package token

import (
    "errors"
    "strings"
    "testing"
    "time"

    "github.com/iliyamo/venue-reservation/internal/clock"
    "github.com/iliyamo/venue-reservation/internal/model"
)

var epoch = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func TestCheckInRoundTrip(t *testing.T) {
    clk := clock.Fake(epoch)
    s := NewCheckInSigner([]byte("secret"), clk)
    tok, err := s.Sign(CheckInPayload{ReservationID: 42, UserID: 7}, 30*time.Minute)
    if err != nil {
        t.Fatalf("Sign: %v", err)
    }
    p, err := s.Verify(tok)
    if err != nil {
        t.Fatalf("Verify: %v", err)
    }
    if p.ReservationID != 42 || p.UserID != 7 {
        t.Fatalf("payload = %+v, want rid 42 user 7", p)
    }
    if !p.ExpiresAt.Equal(epoch.Add(30 * time.Minute)) {
        t.Fatalf("ExpiresAt = %v, want %v", p.ExpiresAt, epoch.Add(30*time.Minute))
    }
}

func TestCheckInExpiry(t *testing.T) {
    clk := clock.Fake(epoch)
    s := NewCheckInSigner([]byte("secret"), clk)
    tok, _ := s.Sign(CheckInPayload{ReservationID: 1, UserID: 1}, time.Minute)

    clk.Advance(59 * time.Second)
    if _, err := s.Verify(tok); err != nil {
        t.Fatalf("Verify before expiry: %v", err)
    }
    clk.Advance(2 * time.Second)
    if _, err := s.Verify(tok); !errors.Is(err, ErrExpired) {
        t.Fatalf("Verify after expiry = %v, want ErrExpired", err)
    }
}

func TestCheckInRejectsTampering(t *testing.T) {
    clk := clock.Fake(epoch)
    s := NewCheckInSigner([]byte("secret"), clk)
    other := NewCheckInSigner([]byte("other"), clk)
    tok, _ := other.Sign(CheckInPayload{ReservationID: 1, UserID: 1}, time.Minute)
    if _, err := s.Verify(tok); !errors.Is(err, ErrInvalid) {
        t.Fatalf("foreign key: err = %v, want ErrInvalid", err)
    }
    if _, err := s.Verify("not.a.token"); !errors.Is(err, ErrInvalid) {
        t.Fatalf("garbage: err = %v, want ErrInvalid", err)
    }
    good, _ := s.Sign(CheckInPayload{ReservationID: 1, UserID: 1}, time.Minute)
    parts := strings.Split(good, ".")
    parts[2] = strings.Repeat("A", len(parts[2]))
    if _, err := s.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrInvalid) {
        t.Fatalf("bad signature: err = %v, want ErrInvalid", err)
    }
}

func TestCheckInRejectsAccessToken(t *testing.T) {
    clk := clock.Fake(epoch)
    s := NewCheckInSigner([]byte("secret"), clk)
    at, _ := NewAccessToken("secret", clk, 9, model.RoleEmployee, time.Hour)
    if _, err := s.Verify(at.Token); !errors.Is(err, ErrInvalid) {
        t.Fatalf("access token accepted as check-in token: %v", err)
    }
}

func TestAccessToken(t *testing.T) {
    clk := clock.Fake(epoch)
    at, err := NewAccessToken("k", clk, 15, model.RoleAdmin, time.Hour)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    actor, err := ParseAccess("k", clk, at.Token)
    if err != nil {
        t.Fatalf("ParseAccess: %v", err)
    }
    if actor.UserID != 15 || actor.Role != model.RoleAdmin {
        t.Fatalf("actor = %+v", actor)
    }
    if _, err := ParseAccess("wrong", clk, at.Token); !errors.Is(err, ErrInvalid) {
        t.Fatalf("wrong secret: err = %v", err)
    }
    clk.Advance(2 * time.Hour)
    if _, err := ParseAccess("k", clk, at.Token); !errors.Is(err, ErrExpired) {
        t.Fatalf("expired: err = %v", err)
    }
}

func TestAccessRejectsCheckInToken(t *testing.T) {
    clk := clock.Fake(epoch)
    s := NewCheckInSigner([]byte("k"), clk)
    tok, _ := s.Sign(CheckInPayload{ReservationID: 3, UserID: 4}, time.Hour)
    if _, err := ParseAccess("k", clk, tok); !errors.Is(err, ErrInvalid) {
        t.Fatalf("check-in token accepted as access token: %v", err)
    }
}
