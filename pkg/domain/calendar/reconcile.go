package calendar

import (
	"reflect"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// Reconcile compares a fresh propagation with the program's stored events
// from today onward. Scheduled events are upserted when new or changed and
// deleted when no longer produced. Events a user has acted on (completed,
// skipped, in progress) and events before today are never touched.
func Reconcile(existing, fresh []*types.CalendarEvent, today string) (upserts []*types.CalendarEvent, deletes []string) {
	stored := make(map[string]*types.CalendarEvent, len(existing))
	for _, e := range existing {
		stored[e.ID] = e
	}

	produced := make(map[string]bool, len(fresh))
	for _, f := range fresh {
		produced[f.ID] = true
		cur, ok := stored[f.ID]
		if !ok {
			upserts = append(upserts, f)
			continue
		}
		if cur.Status != types.EventScheduled {
			continue
		}
		if sameContent(cur, f) {
			continue
		}
		f.CreatedAt = cur.CreatedAt
		upserts = append(upserts, f)
	}

	for _, e := range existing {
		if produced[e.ID] || e.Status != types.EventScheduled || e.Date < today {
			continue
		}
		deletes = append(deletes, e.ID)
	}
	return upserts, deletes
}

func sameContent(a, b *types.CalendarEvent) bool {
	x, y := *a, *b
	x.CreatedAt = y.CreatedAt
	return reflect.DeepEqual(x, y)
}
