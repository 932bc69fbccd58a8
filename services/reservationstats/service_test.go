package reservationstats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"fooni-backend/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cleanup := telemetry.SetupForTesting("test:services/reservationstats")
	defer cleanup()
	m.Run()
}

type fakeFetcher struct {
	body []byte
}

func (f fakeFetcher) FetchBookings(ctx context.Context, session string) ([]byte, error) {
	return f.body, nil
}

var testNow = time.Unix(1000, 0)

func newTestService(t *testing.T, roster Roster, reservations []Reservation) Service {
	body, err := json.Marshal(reservations)
	require.NoError(t, err)
	return NewService(fakeFetcher{body: body}, Options{
		Roster: roster,
		Now:    func() time.Time { return testNow },
	})
}

func TestParseMinutesFractional(t *testing.T) {
	for _, tc := range []struct {
		raw     string
		minutes float64
	}{
		{"12'30", 12.5},
		{"0'", 0},
		{"7'", 7},
		{"1'15", 1.25},
	} {
		minutes, err := DurationFractional.ParseMinutes(tc.raw)
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.minutes, minutes, tc.raw)
	}

	for _, raw := range []string{"", "12", "'30", "abc", "-5'"} {
		_, err := DurationFractional.ParseMinutes(raw)
		require.ErrorIs(t, err, ErrMalformedDuration, raw)
	}
}

func TestParseMinutesSimple(t *testing.T) {
	minutes, err := DurationSimple.ParseMinutes("7'")
	require.NoError(t, err)
	require.Equal(t, 7.0, minutes)

	_, err = DurationSimple.ParseMinutes("12'30")
	require.ErrorIs(t, err, ErrMalformedDuration)
}

func TestAggregateScenario(t *testing.T) {
	roster := Roster{
		BaselineMinutes: 240,
		Coaches: []CoachSeed{
			{Id: "A", Name: "A", Minutes: 10},
			{Id: "B", Name: "B", Minutes: -5},
		},
	}
	service := newTestService(t, roster, []Reservation{
		{Id: "1", OriginMinutes: "5'", CoachId: "A", Timeslot: "500"},
		{Id: "2", OriginMinutes: "10'", CoachId: "A", Timeslot: "1500"},
		{Id: "3", OriginMinutes: "2'30", CoachId: "C", Timeslot: "500"},
	})

	stats, err := service.Aggregate(context.Background(), "sess")
	require.NoError(t, err)
	require.Equal(t, 247.5, stats.TotalTime)

	want := []Coach{
		{Id: "A", Name: "A", Minutes: 15},
		{Id: "C", Name: "C", Minutes: 2.5},
		{Id: "B", Name: "B", Minutes: -5},
	}
	if diff := cmp.Diff(want, stats.Coaches); diff != "" {
		t.Fatalf("coaches mismatch (-want +got):\n%s", diff)
	}
}

func TestFutureReservationMasksMalformation(t *testing.T) {
	service := newTestService(t, Roster{}, []Reservation{
		{Id: "1", OriginMinutes: "garbage", CoachId: "A", Timeslot: "1500"},
		{Id: "2", OriginMinutes: "3'", CoachId: "A", Timeslot: "500"},
	})

	stats, err := service.Aggregate(context.Background(), "sess")
	require.NoError(t, err)
	require.Equal(t, 3.0, stats.TotalTime)
	require.Equal(t, 3.0, stats.Coaches[0].Minutes)
}

func TestPastMalformedDurationIsFatal(t *testing.T) {
	service := newTestService(t, Roster{}, []Reservation{
		{Id: "1", OriginMinutes: "garbage", CoachId: "A", Timeslot: "500"},
	})

	_, err := service.Aggregate(context.Background(), "sess")
	require.ErrorIs(t, err, ErrMalformedDuration)
}

func TestTotalTimeIsOrderIndependent(t *testing.T) {
	reservations := []Reservation{
		{Id: "1", OriginMinutes: "5'", CoachId: "A", Timeslot: "1"},
		{Id: "2", OriginMinutes: "2'30", CoachId: "B", Timeslot: "2"},
		{Id: "3", OriginMinutes: "0'", CoachId: "C", Timeslot: "3"},
		{Id: "4", OriginMinutes: "12'45", CoachId: "A", Timeslot: "4"},
	}
	permuted := []Reservation{
		reservations[3], reservations[1], reservations[0], reservations[2],
	}

	a, err := newTestService(t, Roster{}, reservations).Aggregate(context.Background(), "sess")
	require.NoError(t, err)
	b, err := newTestService(t, Roster{}, permuted).Aggregate(context.Background(), "sess")
	require.NoError(t, err)

	require.Equal(t, a.TotalTime, b.TotalTime)
}

func TestTieBreakFollowsInsertionOrder(t *testing.T) {
	roster := Roster{
		Coaches: []CoachSeed{
			{Id: "x", Name: "X"},
			{Id: "y", Name: "Y"},
		},
	}
	// z and w are auto-created in first-seen order, all four end up tied
	// at zero
	service := newTestService(t, roster, []Reservation{
		{Id: "1", OriginMinutes: "0'", CoachId: "z", Timeslot: "1"},
		{Id: "2", OriginMinutes: "0'", CoachId: "w", Timeslot: "2"},
	})

	stats, err := service.Aggregate(context.Background(), "sess")
	require.NoError(t, err)

	var ids []string
	for _, coach := range stats.Coaches {
		ids = append(ids, coach.Id)
	}
	require.Equal(t, []string{"x", "y", "z", "w"}, ids)
}

func TestUnknownCoachDefaultsNameToId(t *testing.T) {
	service := newTestService(t, Roster{}, []Reservation{
		{Id: "1", OriginMinutes: "4'", CoachId: "31337", Timeslot: "500"},
	})

	stats, err := service.Aggregate(context.Background(), "sess")
	require.NoError(t, err)
	require.Len(t, stats.Coaches, 1)
	require.Equal(t, "31337", stats.Coaches[0].Id)
	require.Equal(t, "31337", stats.Coaches[0].Name)
	require.Equal(t, 4.0, stats.Coaches[0].Minutes)
}

func TestHiddenCoachNeverAppears(t *testing.T) {
	roster := Roster{
		Coaches: []CoachSeed{
			{Id: "0", Name: "No Coaching", Minutes: -470, Hide: true},
			{Id: "a", Name: "A"},
		},
	}
	service := newTestService(t, roster, []Reservation{
		{Id: "1", OriginMinutes: "500'", CoachId: "0", Timeslot: "500"},
	})

	stats, err := service.Aggregate(context.Background(), "sess")
	require.NoError(t, err)
	require.Len(t, stats.Coaches, 1)
	require.Equal(t, "a", stats.Coaches[0].Id)
}

func TestMalformedResponse(t *testing.T) {
	service := NewService(fakeFetcher{body: []byte(`{"error":"nope"}`)}, Options{
		Now: func() time.Time { return testNow },
	})

	_, err := service.Aggregate(context.Background(), "sess")
	require.ErrorIs(t, err, ErrMalformedResponse)
}
