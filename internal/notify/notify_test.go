package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ringops/ringstats/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var event = MintConfirmed{ItemID: "1000000006671", Name: "Ring of Life", CreateNftURL: "https://market.genso.game/create-nft/"}

func TestMain(m *testing.M) {
	zap.ReplaceGlobals(zap.NewExample())
	m.Run()
}

func TestDiscordNotifier(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(httpclient.NewHTTPClient(httpclient.Options{Timeout: time.Second}), server.URL, "960098451348140072")
	require.NoError(t, notifier.Notify(context.Background(), event))

	content := payload["content"].(string)
	assert.True(t, strings.HasPrefix(content, "<@960098451348140072>\n"))
	assert.Contains(t, content, "1000000006671 Ring of Life")
	assert.Contains(t, content, "https://market.genso.game/create-nft/")
	assert.Equal(t, map[string]interface{}{"parse": []interface{}{"users"}}, payload["allowed_mentions"])
}

func TestDiscordNotifier_Unconfigured(t *testing.T) {
	notifier := NewDiscordNotifier(nil, "", "")
	assert.NoError(t, notifier.Notify(context.Background(), event))
}

func TestDiscordNotifier_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(httpclient.NewHTTPClient(httpclient.Options{Timeout: time.Second}), server.URL, "")
	assert.Error(t, notifier.Notify(context.Background(), event))
}

func TestEmailNotifier(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	notifier := NewEmailNotifier(SMTPSettings{Host: "smtp.example.com", Port: 587, Username: "bot@example.com", Password: "pw"}, []string{"a@example.com", "b@example.com"})
	notifier.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, notifier.Notify(context.Background(), event))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "bot@example.com", gotFrom)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, gotTo)
	msg := string(gotMsg)
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: =?UTF-8?b?")
	assert.Contains(t, msg, "NFT ID 1000000006671 (Ring of Life)")

	subject, _ := EmailContent(event)
	assert.Equal(t, "NFT Mint 完了: 1000000006671", subject)
}

func TestEmailNotifier_Unconfigured(t *testing.T) {
	notifier := NewEmailNotifier(SMTPSettings{}, nil)
	notifier.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("should not send")
		return nil
	}
	assert.NoError(t, notifier.Notify(context.Background(), event))
}

type countingNotifier struct {
	name  string
	calls int32
	err   error
}

func (c *countingNotifier) Name() string { return c.name }

func (c *countingNotifier) Notify(context.Context, MintConfirmed) error {
	atomic.AddInt32(&c.calls, 1)
	return c.err
}

func TestFanout_DeliversToEverySinkDespiteFailures(t *testing.T) {
	failing := &countingNotifier{name: "failing", err: errors.New("down")}
	ok := &countingNotifier{name: "ok"}

	NewFanout(failing, ok).Notify(context.Background(), event)

	assert.EqualValues(t, 1, failing.calls)
	assert.EqualValues(t, 1, ok.calls)
}
