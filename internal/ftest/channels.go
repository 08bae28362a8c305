package ftest

import (
	"testing"
	"time"
)

// How long the Soon helpers wait before declaring failure.
// Long enough for a heavily loaded CI machine,
// short enough to not stall a failing run badly.
const soon = 5 * time.Second

// ReceiveSoon returns a value received from ch,
// or fails t if nothing arrives within a short timeout.
func ReceiveSoon[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(soon):
		t.Fatal("nothing received on channel in time")
		panic("unreachable")
	}
}

// SendSoon sends v on ch,
// or fails t if the send does not complete within a short timeout.
func SendSoon[T any](t *testing.T, ch chan<- T, v T) {
	t.Helper()

	select {
	case ch <- v:
	case <-time.After(soon):
		t.Fatal("channel send did not complete in time")
	}
}

// IsSending asserts that ch has a value immediately available,
// and returns it.
func IsSending[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	default:
		t.Fatal("channel was not ready to send")
		panic("unreachable")
	}
}

// NotSending asserts that ch has no value immediately available.
func NotSending[T any](t *testing.T, ch <-chan T) {
	t.Helper()

	select {
	case <-ch:
		t.Fatal("channel had a value ready when none was expected")
	default:
	}
}
