package reservationstats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"fooni-backend/lib/telemetry"
	"fooni-backend/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("services/reservationstats")

// ErrMalformedResponse means the bookings action returned something other
// than the expected JSON array.
var ErrMalformedResponse = errors.New("reservationstats: bookings response is not an array")

// Reservation is one booking record as the shop backend returns it. The
// history is append-only and returned in full on every call.
type Reservation struct {
	Id            string `json:"id"`
	OriginMinutes string `json:"origin_minutes"`
	CoachId       string `json:"coach_id"`
	Timeslot      string `json:"timeslot"`
}

// Coach is a leaderboard row.
type Coach struct {
	Id        string  `json:"id"`
	Name      string  `json:"name"`
	Instagram string  `json:"instagram,omitempty"`
	Minutes   float64 `json:"minutes"`
	Hide      bool    `json:"hide,omitempty"`
}

// Stats is the derived reservation_stats artifact.
type Stats struct {
	TotalTime float64 `json:"totalTime"`
	Coaches   []Coach `json:"coaches"`
}

// BookingsFetcher is the slice of the shop client the aggregator needs.
type BookingsFetcher interface {
	FetchBookings(ctx context.Context, session string) ([]byte, error)
}

type Options struct {
	Roster Roster
	Format DurationFormat
	// Now is injectable for tests, defaulting to timezone.Now.
	Now func() time.Time
}

type Service struct {
	client BookingsFetcher
	config Options
}

func NewService(client BookingsFetcher, options Options) Service {
	if options.Now == nil {
		options.Now = timezone.Now
	}
	if options.Format == "" {
		options.Format = DurationFractional
	}
	return Service{
		client: client,
		config: options,
	}
}

// Aggregate fetches the full reservation history and folds it into the
// coach leaderboard. Pure given the response body and the clock.
func (s Service) Aggregate(ctx context.Context, session string) (Stats, error) {
	ctx, span := tracer.Start(ctx, "service:Aggregate")
	defer span.End()

	body, err := s.client.FetchBookings(ctx, session)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch bookings")
		return Stats{}, err
	}

	var reservations []Reservation
	err = json.Unmarshal(body, &reservations)
	if err != nil {
		span.SetStatus(codes.Error, ErrMalformedResponse.Error())
		return Stats{}, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}

	stats, err := s.fold(reservations)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Stats{}, err
	}
	return stats, nil
}

func (s Service) fold(reservations []Reservation) (Stats, error) {
	now := s.config.Now()

	// insertion order is the tie-break for equal totals: roster order
	// first, then first-seen reservation order
	var ordered []*Coach
	index := map[string]*Coach{}
	for _, seed := range s.config.Roster.Coaches {
		coach := &Coach{
			Id:        seed.Id,
			Name:      seed.Name,
			Instagram: seed.Instagram,
			Minutes:   seed.Minutes,
			Hide:      seed.Hide,
		}
		ordered = append(ordered, coach)
		index[seed.Id] = coach
	}

	totalTime := s.config.Roster.BaselineMinutes

	for _, reservation := range reservations {
		// future reservations are excluded entirely, before their other
		// fields get a chance to fail validation
		timeslot, err := strconv.ParseInt(reservation.Timeslot, 10, 64)
		if err == nil && time.Unix(timeslot, 0).After(now) {
			continue
		}

		minutes, err := s.config.Format.ParseMinutes(reservation.OriginMinutes)
		if err != nil {
			return Stats{}, err
		}

		totalTime += minutes

		coach, known := index[reservation.CoachId]
		if !known {
			coach = &Coach{
				Id:   reservation.CoachId,
				Name: reservation.CoachId,
			}
			ordered = append(ordered, coach)
			index[reservation.CoachId] = coach
		}
		coach.Minutes += minutes
	}

	var visible []Coach
	for _, coach := range ordered {
		if coach.Hide {
			continue
		}
		visible = append(visible, *coach)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Minutes > visible[j].Minutes
	})

	return Stats{
		TotalTime: totalTime,
		Coaches:   visible,
	}, nil
}
