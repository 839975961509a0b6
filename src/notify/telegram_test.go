package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"macd-scan-go/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reversal = models.Transition{
	Event: models.SignalEvent{
		Date:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Ticker: "NVDA",
		Market: models.MarketUS,
		Price:  120.5,
		Labels: []string{models.LabelDeadCross},
	},
	Classification: models.ClassReversal,
	Prior:          models.DirectionBuy,
}

func TestSendTransitions(t *testing.T) {
	var got map[string]interface{}
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42")
	tn.apiBase = srv.URL
	require.NoError(t, tn.SendTransitions(context.Background(), []models.Transition{reversal}, nil))

	assert.Equal(t, "/bottoken/sendMessage", gotPath)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	text := got["text"].(string)
	assert.Contains(t, text, "New signals (1)")
	assert.Contains(t, text, "📉 <code>NVDA</code>")
	assert.Contains(t, text, "120.50 | SELL: Dead Cross (reversal from BUY)")
}

func TestSendMessageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad chat", http.StatusBadRequest)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42")
	tn.apiBase = srv.URL
	err := tn.SendErrorNotification(context.Background(), "scan", "no data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestDisabledNotifierIsNoop(t *testing.T) {
	tn := NewTelegramNotifier("", "")
	assert.False(t, tn.Enabled())
	assert.NoError(t, tn.SendTransitions(context.Background(), []models.Transition{reversal}, nil))
	assert.NoError(t, tn.SendTransitions(context.Background(), nil, nil))
}
