package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SMARespect/internal/model"
)

func TestSend(t *testing.T) {
	var got map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	tn.BaseURL = srv.URL
	require.NoError(t, tn.Send(context.Background(), "<b>hi</b>"))

	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry_GivesUpOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("T", "1", "", zerolog.Nop())
	tn.BaseURL = srv.URL
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := tn.SendWithRetry(ctx, "x", 3)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"short"}, Split("short", 10))

	parts := Split("aaaa\nbbbb\ncccc\n", 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc\n"}, parts)

	parts = Split("0123456789abcdef\nxy", 8)
	assert.Equal(t, []string{"01234567", "89abcdef", "\nxy"}, parts)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 8)
	}
}

func TestSplit_KeepsRunesAndTags(t *testing.T) {
	parts := Split("ééééé", 5)
	assert.Equal(t, []string{"éé", "éé", "é"}, parts)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p), "chunk %q is not valid UTF-8", p)
	}

	parts = Split("<b>abc</b><b>def</b>", 12)
	assert.Equal(t, []string{"<b>abc</b>", "<b>def</b>"}, parts)

	parts = Split("✅ <b>TCS.NS</b> ✅ <b>INFY.NS</b>", 20)
	assert.Equal(t, strings.Join(parts, ""), "✅ <b>TCS.NS</b> ✅ <b>INFY.NS</b>")
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 20)
		assert.True(t, utf8.ValidString(p))
		assert.Equal(t, strings.Count(p, "<"), strings.Count(p, ">"), "chunk %q cuts a tag", p)
	}
}

func TestFormatReport(t *testing.T) {
	r := &model.Report{
		Request: model.AnalysisRequest{
			Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Interval: model.IntervalWeekly,
		},
		Symbols: []model.SymbolReport{
			{Symbol: "TCS.NS", Candles: 120, Results: []model.EvaluationResult{
				{Period: 34, Respected: true, TouchCount: 4},
				{Period: 50},
			}},
			{Symbol: "A&B", Err: errors.New("no <data>")},
		},
	}

	all := FormatReport(r, false)
	assert.Contains(t, all, "2024-01-01 → 2024-01-31 | 1wk")
	assert.Contains(t, all, "<b>TCS.NS</b> (120 candles)")
	assert.Contains(t, all, "✅ SMA34: 4 touches")
	assert.Contains(t, all, "❌ SMA50")
	assert.Contains(t, all, "<b>A&amp;B</b>")
	assert.Contains(t, all, "no data: no &lt;data&gt;")
	assert.Contains(t, all, "1/2 symbols without data")

	filtered := FormatReport(r, true)
	assert.NotContains(t, filtered, "SMA50")
}

func TestFormatWatchlist(t *testing.T) {
	assert.Contains(t, FormatWatchlist(nil), "empty")
	out := FormatWatchlist([]string{"TCS.NS", "LT.NS"})
	assert.Contains(t, out, "(2)")
	assert.Contains(t, out, "• LT.NS")
}

func TestStartPolling(t *testing.T) {
	var (
		mu      sync.Mutex
		served  bool
		replies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if served {
				fmt.Fprint(w, `{"ok":true,"result":[]}`)
				return
			}
			served = true
			fmt.Fprint(w, `{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /symbols ","chat":{"id":42}}},
				{"update_id":8,"message":{"text":"/report","chat":{"id":99}}}
			]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]string
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &payload)
			replies = append(replies, payload["text"])
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("T", "42", "", zerolog.Nop())
	tn.BaseURL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var (
		cmdMu    sync.Mutex
		commands []string
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		tn.StartPolling(ctx, func(_ context.Context, cmd string) string {
			cmdMu.Lock()
			commands = append(commands, cmd)
			cmdMu.Unlock()
			return "reply to " + cmd
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(replies) == 1
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	cmdMu.Lock()
	assert.Equal(t, []string{"/symbols"}, commands, "commands from other chats are ignored")
	cmdMu.Unlock()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"reply to /symbols"}, replies)
}
