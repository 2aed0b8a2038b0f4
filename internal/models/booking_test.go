package models

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		// the happy path, in order
		{BookingStatusRequested, BookingStatusPendingUser, true},
		{BookingStatusPendingUser, BookingStatusAccepted, true},
		{BookingStatusAccepted, BookingStatusOngoing, true},
		{BookingStatusOngoing, BookingStatusCompleted, true},
		{BookingStatusCompleted, BookingStatusPaid, true},

		// paying an already-paid booking is a no-op transition, not an error
		{BookingStatusPaid, BookingStatusPaid, true},

		// no skipping steps
		{BookingStatusRequested, BookingStatusAccepted, false},
		{BookingStatusRequested, BookingStatusOngoing, false},
		{BookingStatusPendingUser, BookingStatusOngoing, false},
		{BookingStatusAccepted, BookingStatusCompleted, false},
		{BookingStatusRequested, BookingStatusPaid, false},

		// no moving backwards
		{BookingStatusAccepted, BookingStatusPendingUser, false},
		{BookingStatusOngoing, BookingStatusAccepted, false},
		{BookingStatusPaid, BookingStatusCompleted, false},

		// cancellation from any non-terminal state
		{BookingStatusRequested, BookingStatusCancelled, true},
		{BookingStatusPendingUser, BookingStatusCancelled, true},
		{BookingStatusAccepted, BookingStatusCancelled, true},
		{BookingStatusOngoing, BookingStatusCancelled, true},
		{BookingStatusCancelled, BookingStatusCancelled, true},
		{BookingStatusCompleted, BookingStatusCancelled, false},
		{BookingStatusPaid, BookingStatusCancelled, false},

		// cancelled is a dead end
		{BookingStatusCancelled, BookingStatusPendingUser, false},
		{BookingStatusCancelled, BookingStatusAccepted, false},
		{BookingStatusCancelled, BookingStatusOngoing, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAllowedSources(t *testing.T) {
	got := AllowedSources(BookingStatusPaid)
	if len(got) != 2 || got[0] != BookingStatusCompleted || got[1] != BookingStatusPaid {
		t.Errorf("AllowedSources(paid) = %v", got)
	}

	cancelSources := AllowedSources(BookingStatusCancelled)
	for _, s := range cancelSources {
		if s == BookingStatusCompleted || s == BookingStatusPaid {
			t.Errorf("cancelled must not be reachable from %q", s)
		}
	}
}

func TestToBookingResponseNullFields(t *testing.T) {
	b := Booking{
		ID:     "b1",
		UserID: "u1",
		Status: BookingStatusRequested,
	}
	resp := b.ToBookingResponse()
	if resp.DriverID != nil {
		t.Errorf("expected nil driver_id for unassigned booking, got %v", *resp.DriverID)
	}
	if resp.DropoffTime != nil {
		t.Errorf("expected nil dropoff_time, got %v", *resp.DropoffTime)
	}
}
