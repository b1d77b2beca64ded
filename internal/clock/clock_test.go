package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	c.Advance(90 * time.Minute)
	if got, want := c.Now(), epoch.Add(90*time.Minute); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
	c.Set(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() after Set = %v, want %v", got, epoch)
	}
}

func TestFakeTickerFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Minute)
	defer ticker.Stop()

	select {
	case <-ticker.C:
		t.Fatal("ticker fired before Advance")
	default:
	}

	c.Advance(30 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	c.Advance(30 * time.Second)
	select {
	case got := <-ticker.C:
		if want := epoch.Add(time.Minute); !got.Equal(want) {
			t.Fatalf("tick = %v, want %v", got, want)
		}
	default:
		t.Fatal("ticker did not fire after interval")
	}
}

func TestFakeTickerDropsWhenBehind(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Minute)
	c.Advance(5 * time.Minute)

	<-ticker.C
	select {
	case <-ticker.C:
		t.Fatal("expected dropped ticks, got a second buffered tick")
	default:
	}
}

func TestFakeTickerStop(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Minute)
	ticker.Stop()
	c.Advance(time.Hour)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestRealClockIsUTC(t *testing.T) {
	if loc := Real().Now().Location(); loc != time.UTC {
		t.Fatalf("Real().Now() location = %v, want UTC", loc)
	}
}
