package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helixir/name-similarity-service/internal/domain"
	"github.com/helixir/name-similarity-service/internal/events"
	"github.com/helixir/name-similarity-service/internal/namematch"
	"github.com/helixir/name-similarity-service/internal/observability"
	"github.com/helixir/name-similarity-service/internal/translate"
	"github.com/helixir/name-similarity-service/internal/translit"
)

var _ events.Handler = (*Service)(nil).HandleRequest

type stubDetector struct {
	langs map[string]string
}

func (d stubDetector) Name() string { return "stub" }

func (d stubDetector) Detect(_ context.Context, text string) string {
	if lang, ok := d.langs[text]; ok {
		return lang
	}
	return "en"
}

type stubTranslator struct {
	name   string
	out    map[string]string
	err    error
	mu     sync.Mutex
	called []string
}

func (s *stubTranslator) Name() string { return s.name }

func (s *stubTranslator) Translate(_ context.Context, text, _ string) (string, error) {
	s.mu.Lock()
	s.called = append(s.called, text)
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.out[text], nil
}

func (s *stubTranslator) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.called...)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, params events.EmitParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

func newEngine(t *testing.T) *namematch.Engine {
	t.Helper()
	e, err := namematch.New(namematch.DefaultConfig(), namematch.WithRomanizer(translit.New()))
	require.NoError(t, err)
	return e
}

type fixture struct {
	svc     *Service
	primary *stubTranslator
	free    *stubTranslator
}

func newFixture(t *testing.T, deps Deps) fixture {
	t.Helper()
	primary := &stubTranslator{name: "primary", out: map[string]string{
		"김현종": "Kim Hyun-jong",
		"현종김": "Hyun-jong Kim",
	}}
	free := &stubTranslator{name: "free", out: map[string]string{
		"김현종": "Kim Hyeon Jong",
	}}
	deps.Engine = newEngine(t)
	if deps.Detector == nil {
		deps.Detector = stubDetector{langs: map[string]string{"김현종": "ko", "현종김": "ko"}}
	}
	if deps.Primary == nil {
		deps.Primary = primary
	}
	if deps.Free == nil {
		deps.Free = free
	}
	svc, err := NewService(Config{}, deps)
	require.NoError(t, err)
	return fixture{svc: svc, primary: primary, free: free}
}

func TestNewService(t *testing.T) {
	t.Parallel()

	_, err := NewService(Config{}, Deps{})
	assert.EqualError(t, err, "scoring: engine is required")

	_, err = NewService(Config{DefaultMode: "sideways"}, Deps{Engine: newEngine(t)})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)

	svc, err := NewService(Config{}, Deps{Engine: newEngine(t)})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), svc.cfg)
	assert.Equal(t, "heuristic", svc.detector.Name())
	assert.Equal(t, translate.ProviderNoop, svc.primary.Name())
	assert.Equal(t, translate.ProviderNoop, svc.free.Name())
}

func TestService_Score_InvalidMode(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Deps{})
	_, err := f.svc.Score(context.Background(), Request{Text1: "Kim", Text2: "Lee", Mode: "sideways"})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestService_Score_Sentinel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Deps{})
	for _, mode := range []string{"on", "off", "optional", "none"} {
		res, err := f.svc.Score(context.Background(), Request{Text1: "김현종", Text2: "김현종", Mode: mode})
		require.NoError(t, err)
		assert.Equal(t, "92.30", res.Score.String(), mode)
		assert.True(t, res.Sentinel)
		assert.Empty(t, res.Translator)
	}
	assert.Empty(t, f.primary.calls())
	assert.Empty(t, f.free.calls())
}

func TestService_Score_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		mode            string
		text1, text2    string
		wantTranslator  string
		wantCompared    Pair
		wantLanguages   Pair
		wantPrimaryCall []string
		wantFreeCall    []string
	}{
		{
			name:            "always translate uses primary",
			mode:            "always_translate",
			text1:           "김현종",
			text2:           "Kim Hyun Jong",
			wantTranslator:  "primary",
			wantCompared:    Pair{Text1: "Kim Hyun-jong", Text2: "Kim Hyun Jong"},
			wantLanguages:   Pair{Text1: "ko", Text2: "en"},
			wantPrimaryCall: []string{"김현종"},
		},
		{
			name:           "prefer free uses free translator",
			mode:           "off",
			text1:          "김현종",
			text2:          "Kim Hyun Jong",
			wantTranslator: "free",
			wantCompared:   Pair{Text1: "Kim Hyeon Jong", Text2: "Kim Hyun Jong"},
			wantLanguages:  Pair{Text1: "ko", Text2: "en"},
			wantFreeCall:   []string{"김현종"},
		},
		{
			name:            "if needed translates fused native script",
			mode:            "translate_if_needed",
			text1:           "김현종",
			text2:           "Kim Hyun Jong",
			wantTranslator:  "primary",
			wantCompared:    Pair{Text1: "Kim Hyun-jong", Text2: "Kim Hyun Jong"},
			wantLanguages:   Pair{Text1: "ko", Text2: "en"},
			wantPrimaryCall: []string{"김현종"},
		},
		{
			name:         "if needed skips latin pairs",
			mode:         "",
			text1:        "Kim Jong",
			text2:        "Kim Jong Un",
			wantCompared: Pair{Text1: "Kim Jong", Text2: "Kim Jong Un"},
		},
		{
			name:         "no translate compares raw text",
			mode:         "none",
			text1:        "김현종",
			text2:        "현종김",
			wantCompared: Pair{Text1: "김현종", Text2: "현종김"},
		},
		{
			name:           "english detection skips translation",
			mode:           "on",
			text1:          "Zoë Kim",
			text2:          "Zoe Kim",
			wantTranslator: "primary",
			wantCompared:   Pair{Text1: "Zoë Kim", Text2: "Zoe Kim"},
			wantLanguages:  Pair{Text1: "en", Text2: "en"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, Deps{})
			res, err := f.svc.Score(context.Background(), Request{Text1: tt.text1, Text2: tt.text2, Mode: tt.mode})
			require.NoError(t, err)

			assert.Equal(t, tt.wantTranslator, res.Translator)
			assert.Equal(t, tt.wantCompared, res.Compared)
			assert.Equal(t, tt.wantLanguages, res.Languages)
			assert.Equal(t, tt.wantPrimaryCall, f.primary.calls())
			assert.Equal(t, tt.wantFreeCall, f.free.calls())
			assert.False(t, res.Sentinel)
			assert.Empty(t, res.Fallback)
			assert.Greater(t, float64(res.Score), 0.0)
			assert.LessOrEqual(t, float64(res.Score), 100.0)
		})
	}
}

func TestService_Score_NoTranslateSwapped(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Deps{})
	res, err := f.svc.Score(context.Background(), Request{Text1: "김현종", Text2: "현종김", Mode: "none"})
	require.NoError(t, err)
	assert.True(t, res.Classification.Swapped)
	assert.Equal(t, domain.ModeNoTranslate, res.Mode)
}

func TestService_Score_Symmetric(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Deps{})
	ctx := context.Background()
	for _, mode := range []string{"on", "none"} {
		ab, err := f.svc.Score(ctx, Request{Text1: "김현종", Text2: "Hyun Jong Kim", Mode: mode})
		require.NoError(t, err)
		ba, err := f.svc.Score(ctx, Request{Text1: "Hyun Jong Kim", Text2: "김현종", Mode: mode})
		require.NoError(t, err)
		assert.Equal(t, ab.Score.String(), ba.Score.String(), mode)
	}
}

func TestService_Score_TranslationFailure(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("test_scoring_translate_failure")
	failing := &stubTranslator{name: "failing", err: &translate.APIError{Provider: "failing", StatusCode: 503}}
	f := newFixture(t, Deps{Primary: failing, Metrics: metrics})

	res, err := f.svc.Score(context.Background(), Request{Text1: "김현종", Text2: "Kim Hyun Jong", Mode: "on"})
	require.NoError(t, err)

	assert.Equal(t, Pair{Text1: "김현종", Text2: "Kim Hyun Jong"}, res.Compared)
	assert.Empty(t, res.Fallback)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CollaboratorFailures.WithLabelValues("translate", "failing", "server")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ComparisonsTotal.WithLabelValues("always_translate", observability.OutcomeScored)))
}

func TestService_Score_EmptyTranslation(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("test_scoring_empty_translation")
	blank := &stubTranslator{name: "blank", out: map[string]string{"김현종": "  "}}
	f := newFixture(t, Deps{Primary: blank, Metrics: metrics})

	res, err := f.svc.Score(context.Background(), Request{Text1: "김현종", Text2: "Kim Hyun Jong", Mode: "on"})
	require.NoError(t, err)

	assert.Equal(t, FallbackEmptyTranslation, res.Fallback)
	assert.Equal(t, f.svc.engine.BasicSimilarity("김현종", "Kim Hyun Jong"), res.Score)
	assert.True(t, res.Classification.Mixed)
	assert.Equal(t, Pair{Text1: "김현종", Text2: "Kim Hyun Jong"}, res.Compared)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Fallbacks.WithLabelValues(FallbackEmptyTranslation)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CollaboratorFailures.WithLabelValues("translate", "blank", "empty")))
}

func TestService_Score_Publishes(t *testing.T) {
	t.Parallel()

	publisher := new(MockPublisher)
	var params events.EmitParams
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.EmitParams")).
		Run(func(args mock.Arguments) { params = args.Get(1).(events.EmitParams) }).
		Return(nil).Once()

	f := newFixture(t, Deps{Publisher: publisher})
	ctx := observability.WithSource(context.Background(), observability.SourceHTTP)
	res, err := f.svc.Score(ctx, Request{RequestID: "req-7", Text1: "Kim", Text2: "KIM", CorrelationID: "corr-7"})
	require.NoError(t, err)
	publisher.AssertExpectations(t)

	assert.Equal(t, "req-7", res.RequestID)
	assert.Equal(t, "req-7", params.RequestID)
	assert.Equal(t, domain.EventTypeScoreComputed, params.EventType)
	assert.Equal(t, "corr-7", params.CorrelationID)
	assert.Equal(t, observability.SourceHTTP, params.Origin)

	payload, ok := params.Payload.(domain.ScoreComputedPayload)
	require.True(t, ok)
	assert.Equal(t, "92.30", payload.Score)
	assert.True(t, payload.Sentinel)
	assert.Equal(t, domain.Digest("Kim"), payload.Text1Digest)
	assert.Equal(t, domain.Digest("KIM"), payload.Text2Digest)
	assert.Equal(t, domain.DefaultMode, payload.Mode)
}

func TestService_Score_PublishFailureIgnored(t *testing.T) {
	t.Parallel()

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	f := newFixture(t, Deps{Publisher: publisher})
	res, err := f.svc.Score(context.Background(), Request{Text1: "Kim", Text2: "Lee"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RequestID)
	publisher.AssertExpectations(t)
}

func TestService_Score_CancelledCallerStillPublishes(t *testing.T) {
	t.Parallel()

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).
		Return(nil).Once()

	f := newFixture(t, Deps{Publisher: publisher})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Score(ctx, Request{Text1: "Kim", Text2: "Lee", Mode: "none"})
	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestService_HandleRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Deps{})
	require.NoError(t, f.svc.HandleRequest(context.Background(), domain.ScoreRequest{Text1: "Kim", Text2: "Lee"}))
	assert.ErrorIs(t, f.svc.HandleRequest(context.Background(), domain.ScoreRequest{Text1: "Kim", Text2: "Lee", Mode: "?"}), domain.ErrInvalidMode)
}

func TestService_Inspect(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Deps{})

	got := f.svc.Inspect("Kim Hyun Jong", "Jong Hyun Kim")
	assert.True(t, got.Swapped)
	assert.False(t, got.Mixed)
	assert.Equal(t, "swapped", got.Kind)
	assert.Equal(t, []string{"Jong", "Hyun", "Kim"}, got.Tokens2)
	assert.Equal(t, "jong hyun kim", got.Normalized.Text2)
	assert.False(t, got.CompletelyDifferent)

	got = f.svc.Inspect("KimHyunJong", "김현종")
	assert.Equal(t, []string{"Kim", "Hyun", "Jong"}, got.Tokens1)
	assert.True(t, got.Mixed)
	assert.Equal(t, "mixed", got.Kind)

	assert.True(t, f.svc.Inspect("Kim", "Xyqwvzp").CompletelyDifferent)
}

func TestErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{err: context.DeadlineExceeded, want: "timeout"},
		{err: context.Canceled, want: "canceled"},
		{err: domain.ErrCircuitOpen, want: "circuit_open"},
		{err: domain.NewCollaboratorError("translate", "google", domain.ErrEmptyTranslation), want: "empty"},
		{err: &translate.APIError{StatusCode: 0}, want: "network"},
		{err: &translate.APIError{StatusCode: 429}, want: "rate_limited"},
		{err: &translate.APIError{StatusCode: 502}, want: "server"},
		{err: &translate.APIError{StatusCode: 403}, want: "client"},
		{err: errors.New("boom"), want: "other"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, errorType(tt.err))
		})
	}
}

func TestService_TranslateTimeout(t *testing.T) {
	t.Parallel()

	slow := &slowTranslator{}
	engine := newEngine(t)
	svc, err := NewService(Config{TranslateTimeout: 20 * time.Millisecond}, Deps{
		Engine:   engine,
		Detector: stubDetector{langs: map[string]string{"김현종": "ko"}},
		Primary:  slow,
	})
	require.NoError(t, err)

	start := time.Now()
	res, err := svc.Score(context.Background(), Request{Text1: "김현종", Text2: "Kim", Mode: "on"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "김현종", res.Compared.Text1)
}

type slowTranslator struct{}

func (slowTranslator) Name() string { return "slow" }

func (slowTranslator) Translate(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
