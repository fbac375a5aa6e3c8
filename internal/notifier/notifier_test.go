package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"CrudeSentinel/internal/model"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func newTestNotifier(sender messageSender) *TelegramNotifier {
	return &TelegramNotifier{ChatID: "42", sender: sender, backoff: time.Millisecond}
}

func sampleReport() *model.BacktestReport {
	t0 := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	v := -91.5
	return &model.BacktestReport{
		Symbol:     "CL=F",
		Interval:   model.IntervalDaily,
		FinishedAt: time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC),
		Series: model.BarSeries{Bars: []model.OHLCV{
			{Time: t0, Open: 1, High: 1, Low: 1, Close: 1},
			{Time: t0.Add(24 * time.Hour), Open: 1234.5, High: 1240, Low: 1230, Close: 1234.5},
		}},
		Oscillator: []model.OscillatorPoint{model.Undefined(t0), {Time: t0.Add(24 * time.Hour), Value: -12.345}},
		Signals: []model.Signal{
			{Time: t0, Kind: model.SignalNone},
			{Time: t0.Add(24 * time.Hour), Kind: model.SignalBuy, Close: 1234.5, Value: &v},
		},
		Trades: []model.Trade{
			{EntryTime: t0, EntryPrice: 50, StopLoss: 49, Target: 52, Reason: model.ExitStopLoss,
				Exit: &model.TradeExit{Time: t0.Add(24 * time.Hour), Price: 48.9, PnL: -1.1, ReturnPct: -2.2}},
		},
		Summary: model.Summary{
			TotalTrades: 1, Resolved: 1, Losses: 1, TotalPnL: -1.1, TotalReturnPct: -2.2, AvgReturnPct: -2.2,
			ByReason: model.ExitCounts{model.ExitStopLoss: 1},
		},
		Warnings: []string{"insufficient data: 2 bars, need <15>"},
	}
}

func TestFormatRunReport(t *testing.T) {
	msg := FormatRunReport(sampleReport())

	assert.Contains(t, msg, "CL=F 1d | 2025-03-20 08:00")
	assert.Contains(t, msg, "Last close: 1,234.50")
	assert.Contains(t, msg, "Latest %R: -12.35")
	assert.Contains(t, msg, "Buy signals: 1")
	assert.Contains(t, msg, "wins 0 | losses 1 | win rate 0.00%")
	assert.Contains(t, msg, "total P&amp;L -1.10")
	assert.Contains(t, msg, "exits: Stop Loss 1")
	assert.Contains(t, msg, "need &lt;15&gt;")
}

func TestFormatRunReport_UndefinedLatestReading(t *testing.T) {
	r := sampleReport()
	r.Oscillator = r.Oscillator[:1]
	assert.Contains(t, FormatRunReport(r), "Latest %R: undefined")
}

func TestFormatSignalsAndTrades(t *testing.T) {
	r := sampleReport()
	assert.Contains(t, FormatSignals(r, 5), "2025-03-04  close 1234.50  %R -91.50")
	assert.Contains(t, FormatTrades(r, 5), "STOP_LOSS")

	r.Signals, r.Trades = nil, nil
	assert.Equal(t, "No buy signals in the current window.", FormatSignals(r, 5))
	assert.Equal(t, "No trades in the current window.", FormatTrades(r, 5))
}

func TestReasonLabel(t *testing.T) {
	assert.Equal(t, "Oscillator Reversal", reasonLabel(model.ExitOscillatorReversal))
	assert.Equal(t, "Time Limit", reasonLabel(model.ExitTimeLimit))
}

func TestSendWithRetry_SucceedsAfterFailures(t *testing.T) {
	s := &mockSender{}
	s.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Twice()
	s.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *bot.SendMessageParams) bool {
		return p.ChatID == "42" && p.ParseMode == models.ParseModeHTML && p.Text == "hello"
	})).Return(&models.Message{}, nil).Once()

	require.NoError(t, newTestNotifier(s).SendWithRetry(context.Background(), "hello", 3))
	s.AssertNumberOfCalls(t, "SendMessage", 3)
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	s := &mockSender{}
	s.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("forbidden"))

	err := newTestNotifier(s).SendWithRetry(context.Background(), "hello", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	s.AssertNumberOfCalls(t, "SendMessage", 3)
}

func TestSendWithRetry_ContextCancelled(t *testing.T) {
	s := &mockSender{}
	s.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("down"))
	n := newTestNotifier(s)
	n.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.SendWithRetry(ctx, "hello", 3), context.Canceled)
}

func TestHandleUpdate(t *testing.T) {
	s := &mockSender{}
	s.On("SendMessage", mock.Anything, mock.Anything).Return(&models.Message{}, nil)
	n := newTestNotifier(s)

	var got []string
	n.handler = func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		return "ok"
	}

	n.handleUpdate(context.Background(), &models.Update{Message: &models.Message{Text: " /help ", Chat: models.Chat{ID: 42}}})
	n.handleUpdate(context.Background(), &models.Update{Message: &models.Message{Text: "/help", Chat: models.Chat{ID: 7}}})
	n.handleUpdate(context.Background(), &models.Update{})

	assert.Equal(t, []string{"/help"}, got)
	s.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("abcdefghi\n", 10)
	chunks := splitMessage(text, 25)
	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 25)
	}
	assert.Equal(t, []string{"short"}, splitMessage("short", 25))
}

func TestSplitMessage_KeepsPreBlocksBalanced(t *testing.T) {
	text := "<b>Trades</b>\n<pre>" + strings.Repeat("2025-03-04  48.50  TARGET\n", 12) + "</pre>\ndone"
	chunks := splitMessage(text, 80)
	require.Greater(t, len(chunks), 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 80)
		assert.Equal(t, strings.Count(c, "<pre>"), strings.Count(c, "</pre>"), c)
	}
	assert.True(t, strings.HasPrefix(chunks[1], "<pre>"))

	joined := strings.ReplaceAll(strings.Join(chunks, ""), "</pre><pre>", "")
	assert.Equal(t, text, joined)
}
