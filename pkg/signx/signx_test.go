package signx

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testVerifier(at time.Time) *Verifier {
	v := NewVerifier("shhh-signing-secret", 5*time.Minute)
	v.now = func() time.Time { return at }
	return v
}

func TestVerifyAcceptsFreshSignedDelivery(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	v := testVerifier(now)

	body := []byte(`{"type":"event_callback","event_id":"Ev123"}`)
	ts := fmt.Sprintf("%d", now.Unix())

	require.NoError(t, v.Verify(v.Sign(ts, body), ts, body))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	v := testVerifier(now)

	ts := fmt.Sprintf("%d", now.Unix())
	sig := v.Sign(ts, []byte("original"))

	require.ErrorIs(t, v.Verify(sig, ts, []byte("tampered")), ErrInvalidSignature)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	v := testVerifier(now)
	other := NewVerifier("different-secret", 5*time.Minute)

	body := []byte("payload")
	ts := fmt.Sprintf("%d", now.Unix())

	require.ErrorIs(t, v.Verify(other.Sign(ts, body), ts, body), ErrInvalidSignature)
}

func TestVerifyRejectsStaleAndFutureTimestamps(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	v := testVerifier(now)
	body := []byte("payload")

	t.Run("stale", func(t *testing.T) {
		ts := fmt.Sprintf("%d", now.Add(-6*time.Minute).Unix())
		require.ErrorIs(t, v.Verify(v.Sign(ts, body), ts, body), ErrStaleTimestamp)
	})

	t.Run("future", func(t *testing.T) {
		ts := fmt.Sprintf("%d", now.Add(6*time.Minute).Unix())
		require.ErrorIs(t, v.Verify(v.Sign(ts, body), ts, body), ErrStaleTimestamp)
	})

	t.Run("just inside window", func(t *testing.T) {
		ts := fmt.Sprintf("%d", now.Add(-4*time.Minute).Unix())
		require.NoError(t, v.Verify(v.Sign(ts, body), ts, body))
	})
}

func TestVerifyRejectsMalformedTimestamp(t *testing.T) {
	t.Parallel()

	v := testVerifier(time.Now())
	require.ErrorIs(t, v.Verify("v0=deadbeef", "not-a-number", []byte("x")), ErrBadTimestamp)
}
