package delivery

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oppscout/oppscout/internal/config"
)

func testConfig(baseURL string) config.DeliveryConfig {
	return config.DeliveryConfig{
		BaseURL:    baseURL,
		AccountSID: "AC_test_sid",
		AuthToken:  "secret_token",
		FromNumber: "+15550001111",
		Timeout:    5 * time.Second,
	}
}

func TestSendPostsFormWithAuth(t *testing.T) {
	t.Parallel()

	var gotPath, gotUser, gotPass, gotIdem string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		gotIdem = r.Header.Get("Idempotency-Key")
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"To":   r.PostFormValue("To"),
			"From": r.PostFormValue("From"),
			"Body": r.PostFormValue("Body"),
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewSender(testConfig(srv.URL), slog.New(slog.DiscardHandler))
	require.NoError(t, s.Send(context.Background(), "+15559998888", "hello from the queue"))

	require.Equal(t, "/2010-04-01/Accounts/AC_test_sid/Messages.json", gotPath)
	require.Equal(t, "AC_test_sid", gotUser)
	require.Equal(t, "secret_token", gotPass)
	require.NotEmpty(t, gotIdem)
	require.Equal(t, map[string]string{
		"To":   "+15559998888",
		"From": "+15550001111",
		"Body": "hello from the queue",
	}, gotForm)
}

func TestSendRejectedByProvider(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":21211,"message":"invalid phone number"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewSender(testConfig(srv.URL), slog.New(slog.DiscardHandler))
	err := s.Send(context.Background(), "+0", "body")
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}

func TestSendValidatesArguments(t *testing.T) {
	t.Parallel()

	s := NewSender(testConfig("http://localhost:0"), slog.New(slog.DiscardHandler))
	require.Error(t, s.Send(context.Background(), "", "body"))
	require.Error(t, s.Send(context.Background(), "+1555", ""))
}
