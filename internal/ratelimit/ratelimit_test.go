package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	durations []time.Duration
}

func (sr *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	sr.durations = append(sr.durations, d)
	return nil
}

func TestFixed_PauseUsesDelayForKind(t *testing.T) {
	recorder := &sleepRecorder{}
	f := NewFixed(DefaultDelays())
	f.sleep = recorder.sleep

	ctx := context.Background()
	require.NoError(t, f.Pause(ctx, PauseBetweenPages))
	require.NoError(t, f.Pause(ctx, PauseBetweenIssues))
	require.NoError(t, f.Pause(ctx, PauseBetweenComments))

	require.Equal(t, []time.Duration{time.Second, time.Second, 500 * time.Millisecond}, recorder.durations)
}

func TestFixed_BeforeNeverBlocks(t *testing.T) {
	f := NewFixed(DefaultDelays())
	require.NoError(t, f.Before(context.Background()))
}

func TestSleep_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	require.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}

func TestSleep_ZeroDuration(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))
}

func newTestAdaptive(now time.Time, reserve int) (*Adaptive, *sleepRecorder) {
	recorder := &sleepRecorder{}
	a := NewAdaptive(Delays{}, reserve)
	a.now = func() time.Time { return now }
	a.sleep = recorder.sleep
	return a, recorder
}

func response(headers map[string]string) *http.Response {
	resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func TestAdaptive_WaitsForResetWhenBudgetExhausted(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a, recorder := newTestAdaptive(now, 5)

	a.After(response(map[string]string{
		headerRemaining: "3",
		headerReset:     strconv.FormatInt(now.Add(42*time.Second).Unix(), 10),
	}))

	require.NoError(t, a.Before(context.Background()))
	require.Equal(t, []time.Duration{42 * time.Second}, recorder.durations)
}

func TestAdaptive_DoesNotWaitWithBudgetLeft(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a, recorder := newTestAdaptive(now, 5)

	a.After(response(map[string]string{
		headerRemaining: "4000",
		headerReset:     strconv.FormatInt(now.Add(time.Hour).Unix(), 10),
	}))

	require.NoError(t, a.Before(context.Background()))
	require.Empty(t, recorder.durations)
}

func TestAdaptive_HonorsRetryAfterSeconds(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a, recorder := newTestAdaptive(now, 0)

	a.After(response(map[string]string{headerRetryAfter: "30"}))

	require.NoError(t, a.Before(context.Background()))
	require.Equal(t, []time.Duration{30 * time.Second}, recorder.durations)
}

func TestAdaptive_IgnoresMalformedHeaders(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a, recorder := newTestAdaptive(now, 10)

	a.After(response(map[string]string{
		headerRemaining:  "lots",
		headerReset:      "soon",
		headerRetryAfter: "eventually",
	}))

	require.NoError(t, a.Before(context.Background()))
	require.Empty(t, recorder.durations)
}

func TestAdaptive_ResumeTimeNeverMovesBackward(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a, recorder := newTestAdaptive(now, 0)

	a.After(response(map[string]string{headerRetryAfter: "60"}))
	a.After(response(map[string]string{headerRetryAfter: "10"}))

	require.NoError(t, a.Before(context.Background()))
	require.Equal(t, []time.Duration{60 * time.Second}, recorder.durations)
}
