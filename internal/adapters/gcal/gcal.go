// Package gcal implements the event store on the Google Calendar v3 API
package gcal

import (
	"context"
	"errors"
	"net/http"
	"time"

	perr "shiftsync/internal/platform/errors"
	"shiftsync/internal/platform/logger"
	pstrings "shiftsync/internal/platform/strings"
	ptime "shiftsync/internal/platform/time"
	"shiftsync/internal/services/shiftsync/domain"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

const (
	// MarkerKey and MarkerValue tag every event the sync creates
	MarkerKey   = "AutoGenerated"
	MarkerValue = "true"

	// DefaultCalendar is the authorised user's main calendar
	DefaultCalendar = "primary"
)

// Gateway implements domain.EventStore
type Gateway struct {
	svc *calendar.Service
	log logger.Logger
}

// New wraps an authorised Calendar service
func New(svc *calendar.Service) *Gateway {
	if svc == nil {
		panic("gcal.Gateway requires a service")
	}
	return &Gateway{svc: svc, log: *logger.Named("gcal")}
}

func calendarOr(id string) string { return pstrings.IfBlank(id, DefaultCalendar) }

// ExistsNear reports whether a generated event overlaps [midnight, start+1m)
// the page is capped at one item, so a single hit means one or more that day
func (g *Gateway) ExistsNear(ctx context.Context, calendarID string, start time.Time) (bool, error) {
	day := ptime.Midnight(start)
	res, err := g.svc.Events.List(calendarOr(calendarID)).
		PrivateExtendedProperty(MarkerKey + "=" + MarkerValue).
		TimeMin(day.Format(time.RFC3339)).
		TimeMax(start.Add(time.Minute).Format(time.RFC3339)).
		MaxResults(1).
		SingleEvents(true).
		Context(ctx).
		Do()
	if err != nil {
		return false, perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnavailable, "list events near %s", start.Format(time.RFC3339)), "gcal.exists")
	}
	return len(res.Items) == 1, nil
}

// Insert creates a marked event
func (g *Gateway) Insert(ctx context.Context, calendarID string, ev domain.NewEvent) (domain.CalendarEvent, error) {
	body := &calendar.Event{
		Summary: ev.Summary,
		ColorId: ev.ColorID,
		Start:   when(ev.Start),
		End:     when(ev.End),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{MarkerKey: MarkerValue},
		},
	}
	out, err := g.svc.Events.Insert(calendarOr(calendarID), body).Context(ctx).Do()
	if err != nil {
		return domain.CalendarEvent{}, perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnavailable, "insert event %q", ev.Summary), "gcal.insert")
	}
	logger.From(g.log, ctx).Debug().Str("event_id", out.Id).Str("link", out.HtmlLink).Msg("event inserted")

	got := domain.CalendarEvent{ID: out.Id, Summary: out.Summary, ColorID: out.ColorId, Start: ev.Start, End: ev.End}
	if t, ok := parseWhen(out.Start, ev.Start.Location()); ok {
		got.Start = t
	}
	if t, ok := parseWhen(out.End, ev.End.Location()); ok {
		got.End = t
	}
	return got, nil
}

// Delete removes an event, 404 and 410 count as already removed
func (g *Gateway) Delete(ctx context.Context, calendarID, eventID string) error {
	err := g.svc.Events.Delete(calendarOr(calendarID), eventID).Context(ctx).Do()
	if err == nil || gone(err) {
		return nil
	}
	return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnavailable, "delete event %s", eventID), "gcal.delete")
}

func gone(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}

// when renders t verbatim; the zone name is sent only when it is a real IANA name
func when(t time.Time) *calendar.EventDateTime {
	dt := &calendar.EventDateTime{DateTime: t.Format(time.RFC3339)}
	if name := t.Location().String(); name != "Local" {
		dt.TimeZone = name
	}
	return dt
}

func parseWhen(dt *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if dt == nil || dt.DateTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, dt.DateTime)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}
