package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"staychain/core/types"
	"staychain/native/rental"
)

type stubEvent struct {
	evt *types.Event
}

func (e stubEvent) EventType() string {
	return e.evt.Type
}

func (e stubEvent) Event() *types.Event { return e.evt }

func revenueFor(denom string) float64 {
	return testutil.ToFloat64(Engine().feeRevenue.WithLabelValues(denom))
}

func TestEventSinkRecordsFeeRevenue(t *testing.T) {
	sink := NewEventSink(nil)
	before := revenueFor("ufee")

	sink.Emit(stubEvent{evt: &types.Event{
		Type: rental.EventTypeReservationCreated,
		Attributes: map[string]string{
			"denom":               "ufee",
			types.AttrPlatformFee: "15",
		},
	}})
	sink.Emit(stubEvent{evt: &types.Event{
		Type: "market.sale.settled",
		Attributes: map[string]string{
			"denom":               "ufee",
			types.AttrPlatformFee: "500",
		},
	}})

	if got := revenueFor("ufee") - before; got != 515 {
		t.Fatalf("revenue delta = %v, want 515", got)
	}
}

func TestEventSinkReversesRevenueOnWithdrawal(t *testing.T) {
	sink := NewEventSink(nil)
	before := revenueFor("udraw")

	sink.Emit(stubEvent{evt: &types.Event{
		Type: rental.EventTypeReservationFinalized,
		Attributes: map[string]string{
			"denom":               "udraw",
			types.AttrPlatformFee: "30",
		},
	}})
	sink.Emit(stubEvent{evt: &types.Event{
		Type: rental.EventTypePlatformWithdrawn,
		Attributes: map[string]string{
			"denom":  "udraw",
			"amount": "10",
		},
	}})

	if got := revenueFor("udraw") - before; got != 20 {
		t.Fatalf("revenue delta = %v, want 20", got)
	}
}

func TestEventSinkIgnoresEventsWithoutRevenue(t *testing.T) {
	sink := NewEventSink(nil)
	before := revenueFor("uquiet")

	// No denom, no fee: nothing to record.
	sink.Emit(stubEvent{evt: &types.Event{
		Type:       rental.EventTypeListingCreated,
		Attributes: map[string]string{"tokenId": "villa-1"},
	}})
	sink.Emit(stubEvent{evt: &types.Event{
		Type:       rental.EventTypeReservationApproved,
		Attributes: map[string]string{"denom": "uquiet"},
	}})

	if got := revenueFor("uquiet") - before; got != 0 {
		t.Fatalf("revenue delta = %v, want 0", got)
	}
}
