package schedule

import (
	"testing"
	"time"

	"companion/internal/models"
)

func testIndex(days []models.Day) *Index {
	ix := NewIndex(time.UTC)
	ix.Swap(days)
	return ix
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02T15:04", value, time.UTC)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return parsed
}

func TestSessionKey_StableAndPure(t *testing.T) {
	session := models.Session{Time: "09:00", End: "10:00", Title: "Keynote", Room: "Sala A"}

	first := SessionKey(session, "2026-03-10")
	second := SessionKey(session, "2026-03-10")

	if first != second {
		t.Errorf("key not stable: %q vs %q", first, second)
	}
	if first != "2026-03-10|09:00|Keynote" {
		t.Errorf("unexpected key format: %q", first)
	}
}

func TestIsSessionNow(t *testing.T) {
	session := models.Session{Time: "09:00", End: "10:00", Title: "Keynote"}
	ix := testIndex(nil)

	cases := []struct {
		name string
		date string
		now  string
		want bool
	}{
		{"inside window", "2026-03-10", "2026-03-10T09:30", true},
		{"at start", "2026-03-10", "2026-03-10T09:00", true},
		{"at end", "2026-03-10", "2026-03-10T10:00", true},
		{"before start", "2026-03-10", "2026-03-10T08:59", false},
		{"after end", "2026-03-10", "2026-03-10T10:01", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ix.IsSessionNow(session, tc.date, at(t, tc.now)); got != tc.want {
				t.Errorf("IsSessionNow = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("missing date", func(t *testing.T) {
		if ix.IsSessionNow(session, "", at(t, "2026-03-10T09:30")) {
			t.Error("expected false with empty date")
		}
	})

	t.Run("unparsable time", func(t *testing.T) {
		broken := models.Session{Time: "whenever", End: "10:00", Title: "Keynote"}
		if ix.IsSessionNow(broken, "2026-03-10", at(t, "2026-03-10T09:30")) {
			t.Error("expected false with unparsable time")
		}
	})
}

func TestNextOrCurrentSession(t *testing.T) {
	days := []models.Day{
		{Day: 1, Date: "2026-03-10", Sessions: []models.Session{
			{Time: "09:00", End: "10:00", Title: "Keynote"},
			{Time: "11:00", End: "12:00", Title: "Panel"},
		}},
		{Day: 2, Date: "2026-03-11", Sessions: []models.Session{
			{Time: "09:00", End: "10:00", Title: "Cierre"},
		}},
	}
	ix := testIndex(days)

	t.Run("in progress wins", func(t *testing.T) {
		got := ix.NextOrCurrentSession(at(t, "2026-03-10T09:30"))
		if got == nil || got.Session.Title != "Keynote" {
			t.Fatalf("expected Keynote, got %+v", got)
		}
	})

	t.Run("soonest future start", func(t *testing.T) {
		got := ix.NextOrCurrentSession(at(t, "2026-03-10T10:30"))
		if got == nil || got.Session.Title != "Panel" {
			t.Fatalf("expected Panel, got %+v", got)
		}
	})

	t.Run("crosses days", func(t *testing.T) {
		got := ix.NextOrCurrentSession(at(t, "2026-03-10T13:00"))
		if got == nil || got.Session.Title != "Cierre" {
			t.Fatalf("expected Cierre, got %+v", got)
		}
	})

	t.Run("nothing upcoming returns nil", func(t *testing.T) {
		if got := ix.NextOrCurrentSession(at(t, "2026-03-11T11:00")); got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
	})

	t.Run("tie keeps first in list order", func(t *testing.T) {
		tied := testIndex([]models.Day{
			{Day: 1, Date: "2026-03-10", Sessions: []models.Session{
				{Time: "09:00", End: "10:00", Title: "Primera"},
				{Time: "09:00", End: "10:00", Title: "Segunda"},
			}},
		})
		got := tied.NextOrCurrentSession(at(t, "2026-03-10T08:00"))
		if got == nil || got.Session.Title != "Primera" {
			t.Fatalf("expected Primera, got %+v", got)
		}
	})

	t.Run("malformed session is skipped", func(t *testing.T) {
		mixed := testIndex([]models.Day{
			{Day: 1, Date: "2026-03-10", Sessions: []models.Session{
				{Time: "bad", End: "worse", Title: "Rota"},
				{Time: "11:00", End: "12:00", Title: "Sana"},
			}},
		})
		got := mixed.NextOrCurrentSession(at(t, "2026-03-10T08:00"))
		if got == nil || got.Session.Title != "Sana" {
			t.Fatalf("expected Sana, got %+v", got)
		}
	})

	t.Run("empty index returns nil", func(t *testing.T) {
		if got := testIndex(nil).NextOrCurrentSession(at(t, "2026-03-10T09:00")); got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
	})
}

func TestFindSessionsBySpeaker(t *testing.T) {
	days := []models.Day{
		{Day: 1, Date: "2026-03-10", Sessions: []models.Session{
			{Time: "09:00", End: "10:00", Title: "Keynote", Speakers: []string{"sp1", "sp2"}},
			{Time: "11:00", End: "12:00", Title: "Panel", Speakers: []string{"sp2"}},
		}},
		{Day: 2, Date: "2026-03-11", Sessions: []models.Session{
			{Time: "09:00", End: "10:00", Title: "Taller", Speakers: []string{"sp1"}},
		}},
	}
	ix := testIndex(days)

	refs := ix.FindSessionsBySpeaker("sp1")
	if len(refs) != 2 {
		t.Fatalf("expected 2 sessions for sp1, got %d", len(refs))
	}
	if refs[0].Key() != "2026-03-10|09:00|Keynote" || refs[1].Key() != "2026-03-11|09:00|Taller" {
		t.Errorf("unexpected refs: %v, %v", refs[0].Key(), refs[1].Key())
	}

	if got := ix.FindSessionsBySpeaker("nobody"); len(got) != 0 {
		t.Errorf("expected no sessions, got %d", len(got))
	}
}

func TestFindSession(t *testing.T) {
	ix := testIndex([]models.Day{
		{Day: 1, Date: "2026-03-10", Sessions: []models.Session{
			{Time: "09:00", End: "10:00", Title: "Keynote", Room: "Sala A"},
		}},
	})

	got := ix.FindSession("2026-03-10", "09:00", "Keynote")
	if got == nil || got.Session.Room != "Sala A" {
		t.Fatalf("expected Keynote in Sala A, got %+v", got)
	}

	if ix.FindSession("2026-03-10", "09:00", "Otra") != nil {
		t.Error("expected nil for unknown title")
	}
}
