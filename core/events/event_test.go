package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/StorkBison/escrow-sell-SC/core/types"
)

type recorder struct{ seen []Event }

func (r *recorder) Emit(evt Event) { r.seen = append(r.seen, evt) }

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	multi := Multi{a, nil, NoopEmitter{}, b}

	evt := Committed{TxID: "sig", Slot: 3, Event: types.Event{Type: "escrow.settled", Attributes: map[string]string{"price": "1000"}}}
	multi.Emit(evt)

	require.Equal(t, []Event{evt}, a.seen)
	require.Equal(t, []Event{evt}, b.seen)
	require.Equal(t, "escrow.settled", evt.EventType())
	require.Equal(t, "1000", evt.Attr("price"))
	require.Empty(t, Committed{}.Attr("price"))
}
