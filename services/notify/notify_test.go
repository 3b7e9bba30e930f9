package notifysvc

import (
	"net/http"
	"sync"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/testutil"
)

func TestConsoleNotifier(t *testing.T) {
	logger := &testutil.Logger{}
	n := NewConsoleNotifier(logger)

	n.Notify("Student data saved successfully!", core.ColorSuccess)
	n.Notify("Error loading data. Please refresh the page.", core.ColorError)

	if assert.Len(t, logger.Entries("info"), 1) {
		assert.Equal(t, "notification: Student data saved successfully!", logger.Entries("info")[0].Msg)
	}
	if assert.Len(t, logger.Entries("warn"), 1) {
		assert.Equal(t, "notification: Error loading data. Please refresh the page.", logger.Entries("warn")[0].Msg)
	}
}

func TestMulti(t *testing.T) {
	a, b := &testutil.Notifier{}, &testutil.Notifier{}
	n := Multi(a, nil, b)

	n.Notify("hello", core.ColorSuccess)

	assert.Equal(t, []testutil.Notification{{Message: "hello", Color: core.ColorSuccess}}, a.Notifications())
	assert.Equal(t, a.Notifications(), b.Notifications())
}

func TestFeed_Recent(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		msgs   []string
		limit  int
		expect []string
	}{
		{name: "empty", size: 3, limit: 0, expect: []string{}},
		{name: "partial", size: 3, msgs: []string{"a", "b"}, limit: 0, expect: []string{"b", "a"}},
		{name: "wrapped", size: 3, msgs: []string{"a", "b", "c", "d", "e"}, limit: 0, expect: []string{"e", "d", "c"}},
		{name: "limited", size: 3, msgs: []string{"a", "b", "c", "d"}, limit: 2, expect: []string{"d", "c"}},
		{name: "limit above count", size: 5, msgs: []string{"a"}, limit: 3, expect: []string{"a"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFeed(tc.size)
			for _, m := range tc.msgs {
				f.Notify(m, core.ColorSuccess)
			}

			got := make([]string, 0)
			for _, n := range f.Recent(tc.limit) {
				got = append(got, n.Message)
				assert.NotEmpty(t, n.ID)
				assert.Equal(t, core.ColorSuccess, n.Color)
			}
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestSendgridAlerter(t *testing.T) {
	conf := &core.Config{AppName: "Bursar"}
	assert.Nil(t, NewSendgridAlerter(conf, &testutil.Logger{}), "disabled without key & alert email")

	conf.Mail.SendgridAPIKey = "SG.key"
	conf.Mail.AlertEmail = "bursar@school.test"
	conf.Mail.DefaultFromEmail = "noreply@school.test"

	var (
		mu   sync.Mutex
		sent []rest.Request
	)
	origSend := sendFunc
	defer func() { sendFunc = origSend }()

	logger := &testutil.Logger{}
	alerter := NewSendgridAlerter(conf, logger)
	require.NotNil(t, alerter)
	alerter.(*sendgridAlerter).async = false

	t.Run("success notifications are not emailed", func(t *testing.T) {
		sendFunc = func(req rest.Request) (*rest.Response, error) {
			mu.Lock()
			sent = append(sent, req)
			mu.Unlock()
			return &rest.Response{StatusCode: http.StatusAccepted}, nil
		}
		alerter.Notify("School fees updated successfully!", core.ColorSuccess)
		assert.Empty(t, sent)
	})

	t.Run("error notifications are emailed", func(t *testing.T) {
		alerter.Notify("Error loading data. Please refresh the page.", core.ColorError)
		if assert.Len(t, sent, 1) {
			assert.Equal(t, http.MethodPost, string(sent[0].Method))
			assert.Contains(t, string(sent[0].Body), "bursar@school.test")
			assert.Contains(t, string(sent[0].Body), "[Bursar] Error notification")
		}
		assert.Empty(t, logger.Entries("error"))
	})

	t.Run("failures are logged", func(t *testing.T) {
		sendFunc = func(req rest.Request) (*rest.Response, error) {
			return &rest.Response{StatusCode: http.StatusBadRequest, Body: "bad request"}, nil
		}
		alerter.Notify("boom", core.ColorError)
		assert.Len(t, logger.Entries("error"), 1)
	})

}
