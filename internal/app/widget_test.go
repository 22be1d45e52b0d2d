package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tesfalem/quotewidget/internal/adapters/storage/memory"
	"github.com/tesfalem/quotewidget/internal/domain"
	"github.com/tesfalem/quotewidget/internal/mocks"
)

type widgetFixture struct {
	widget     *Widget
	persistent *memory.Store
	feed       *mocks.MockQuoteFeed
	clock      *fakeClock
}

func newWidgetFixture(t *testing.T, settings SyncSettings) *widgetFixture {
	t.Helper()

	f := &widgetFixture{
		persistent: memory.New(),
		feed:       mocks.NewMockQuoteFeed(t),
		clock:      newFakeClock(epoch),
	}

	w, err := NewWidget(WidgetConfig{
		Persistent: f.persistent,
		Session:    memory.New(),
		Feed:       f.feed,
		Sync:       settings,
		Logger:     discardLogger(),
		Clock:      f.clock,
		IntN:       func(int) int { return 0 },
	})
	require.NoError(t, err)

	t.Cleanup(w.Stop)

	f.widget = w

	return f
}

func TestWidget_StartLoadsStoreAndFilter(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})
	ctx := context.Background()

	require.NoError(t, f.persistent.Set(ctx, KeyLastFilter, "life"))

	require.NoError(t, f.widget.Start(ctx))

	assert.Equal(t, domain.DefaultSeed(), f.widget.Store.Quotes())
	assert.Equal(t, domain.FilterSelection("life"), f.widget.Filter.Active())
	assert.Len(t, f.widget.Visible(), 1)
}

func TestWidget_StartChecksFilterAgainstLoadedQuotes(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		wantNote bool
	}{
		{name: "category present in stored quotes", filter: "wisdom"},
		{name: "category absent", filter: "nope", wantNote: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			persistent := memory.New()

			require.NoError(t, persistent.Set(ctx, KeyQuotes, `[{"text":"A","category":"wisdom"}]`))
			require.NoError(t, persistent.Set(ctx, KeyLastFilter, tt.filter))

			var logs bytes.Buffer

			w, err := NewWidget(WidgetConfig{
				Persistent: persistent,
				Session:    memory.New(),
				Feed:       mocks.NewMockQuoteFeed(t),
				Logger:     slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
				Clock:      newFakeClock(epoch),
			})
			require.NoError(t, err)

			require.NoError(t, w.Start(ctx))
			t.Cleanup(w.Stop)

			assert.Equal(t, tt.wantNote, strings.Contains(logs.String(), "persisted filter matches no quotes"))
		})
	}
}

func TestWidget_PersistedFilterWithNoMatchesShowsEmptyState(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})
	ctx := context.Background()

	require.NoError(t, f.persistent.Set(ctx, KeyLastFilter, "y"))
	require.NoError(t, f.widget.Start(ctx))

	assert.Equal(t, domain.FilterSelection("y"), f.widget.Filter.Active())

	_, ok := f.widget.ShowRandom(ctx)
	assert.False(t, ok)
	assert.Empty(t, f.widget.Visible())
}

func TestWidget_ShowRandomUsesActiveFilter(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})
	ctx := context.Background()

	require.NoError(t, f.widget.Start(ctx))

	_, err := f.widget.Filter.Select(ctx, "Leadership")
	require.NoError(t, err)

	q, ok := f.widget.ShowRandom(ctx)
	require.True(t, ok)
	assert.Equal(t, "leadership", q.Category)
}

func TestWidget_Reset(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})
	ctx := context.Background()

	require.NoError(t, f.widget.Start(ctx))

	_, err := f.widget.Store.Add(ctx, domain.QuoteInput{Text: "extra", Category: "misc"})
	require.NoError(t, err)
	_, err = f.widget.Filter.Select(ctx, "misc")
	require.NoError(t, err)

	require.NoError(t, f.widget.Reset(ctx))

	assert.Equal(t, domain.DefaultSeed(), f.widget.Store.Quotes())
	assert.True(t, f.widget.Filter.Active().IsAll())
}

func TestWidget_StartWithSyncEnabledRunsAfterInitialDelay(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{
		Enabled:      true,
		InitialDelay: 2 * time.Second,
		Interval:     5 * time.Minute,
	})
	ctx := context.Background()

	done := make(chan struct{})

	f.feed.EXPECT().FetchQuotes(mock.Anything).RunAndReturn(func(context.Context) ([]domain.Quote, error) {
		defer close(done)

		return remoteBatch, nil
	}).Once()

	require.NoError(t, f.widget.Start(ctx))

	f.clock.WaitForWaiters(1)
	f.clock.Advance(2 * time.Hour)

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("sync did not run")
	}

	require.Eventually(t, func() bool {
		return f.widget.Sync.Status().LastStatus == domain.SyncStatusMerged
	}, waitTimeout, time.Millisecond)

	assert.Len(t, f.widget.Store.Quotes(), len(domain.DefaultSeed())+len(remoteBatch))
}

func TestWidget_SyncNow(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})

	f.feed.EXPECT().FetchQuotes(mock.Anything).Return(remoteBatch, nil)

	result := f.widget.SyncNow(context.Background())

	assert.Equal(t, domain.SyncStatusMerged, result.Status)
}

func TestWidget_Export(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})
	ctx := context.Background()

	require.NoError(t, f.widget.Start(ctx))

	var buf bytes.Buffer
	require.NoError(t, f.widget.Export(ctx, &buf))

	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {\n    \"text\""))
	assert.True(t, strings.HasSuffix(buf.String(), "]\n"))

	var exported domain.Collection
	require.NoError(t, json.Unmarshal(buf.Bytes(), &exported))
	assert.Equal(t, domain.DefaultSeed(), exported)
}

func TestWidget_ExportEmptyCollection(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})
	ctx := context.Background()

	require.NoError(t, f.widget.Store.ReplaceAll(ctx, domain.Collection{}))

	var buf bytes.Buffer
	require.NoError(t, f.widget.Export(ctx, &buf))

	assert.Equal(t, "[]\n", buf.String())
}

func TestWidget_ExportImportRoundTrip(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})
	ctx := context.Background()

	want := domain.Collection{{Text: "A", Category: "x"}, {Text: "B", Category: "y"}}
	require.NoError(t, f.widget.Store.ReplaceAll(ctx, want))

	var buf bytes.Buffer
	require.NoError(t, f.widget.Export(ctx, &buf))

	require.NoError(t, f.widget.Reset(ctx))

	n, err := f.widget.Import(ctx, &buf)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, want, f.widget.Store.Quotes())
}

func TestWidget_Import(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantN    int
		wantStep ExecutionStep
		want     domain.Collection
	}{
		{
			name:    "normalizes categories",
			payload: `[{"text":" A ","category":"X"},{"text":"B","category":"y"}]`,
			wantN:   2,
			want:    domain.Collection{{Text: "A", Category: "x"}, {Text: "B", Category: "y"}},
		},
		{
			name:    "empty array",
			payload: `[]`,
			wantN:   0,
			want:    domain.Collection{},
		},
		{
			name:     "not an array",
			payload:  `{"text":"A","category":"x"}`,
			wantStep: StepValidate,
		},
		{
			name:     "empty body",
			payload:  "   ",
			wantStep: StepValidate,
		},
		{
			name:     "malformed json",
			payload:  `[{"text":"A",`,
			wantStep: StepPerform,
		},
		{
			name:     "element missing category",
			payload:  `[{"text":"A","category":"x"},{"text":"B"}]`,
			wantStep: StepPerform,
		},
		{
			name:     "keys differ in case",
			payload:  `[{"TEXT":"a","Category":"b"}]`,
			wantStep: StepPerform,
		},
		{
			name:     "blank category",
			payload:  `[{"text":"A","category":"  "}]`,
			wantStep: StepVerify,
		},
		{
			name:     "element with wrong type",
			payload:  `[{"text":1,"category":"x"}]`,
			wantStep: StepPerform,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWidgetFixture(t, SyncSettings{})
			ctx := context.Background()

			require.NoError(t, f.widget.Start(ctx))

			n, err := f.widget.Import(ctx, strings.NewReader(tt.payload))

			if tt.wantStep != "" {
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err))

				step, ok := GetExecutionStep(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantStep, step)
				assert.Equal(t, domain.DefaultSeed(), f.widget.Store.Quotes(), "failed import must not touch the collection")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantN, n)
			assert.Equal(t, tt.want, f.widget.Store.Quotes())
		})
	}
}

func TestWidget_ImportReportsElementIndex(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})
	ctx := context.Background()

	require.NoError(t, f.widget.Start(ctx))

	payload := `[{"text":"A","category":"x"},{"text":"B","Category":"y"}]`

	_, err := f.widget.Import(ctx, strings.NewReader(payload))
	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "category", ve.Field)
	assert.Equal(t, 1, ve.Index)
	assert.Equal(t, domain.DefaultSeed(), f.widget.Store.Quotes())
}

func TestWidget_ImportTooLarge(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})

	payload := "[" + strings.Repeat(" ", MaxImportBytes) + "]"

	_, err := f.widget.Import(context.Background(), strings.NewReader(payload))

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
