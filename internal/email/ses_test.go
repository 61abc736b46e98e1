package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/conectados420/storefront/internal/config"
)

type sesContent struct {
	Data    string `json:"Data"`
	Charset string `json:"Charset"`
}

type sesSendRequest struct {
	FromEmailAddress string `json:"FromEmailAddress"`
	Destination      struct {
		ToAddresses []string `json:"ToAddresses"`
	} `json:"Destination"`
	Content struct {
		Simple struct {
			Subject sesContent `json:"Subject"`
			Body    struct {
				Html sesContent `json:"Html"`
			} `json:"Body"`
		} `json:"Simple"`
	} `json:"Content"`
}

func newSESTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.EmailConfig{
		Enabled:      true,
		Provider:     "ses",
		From:         "Conectados 420 <no-reply@conectados420.cl>",
		SESRegion:    "us-east-1",
		SESAccessKey: "AKIDTEST",
		SESSecretKey: "secret",
		SESEndpoint:  server.URL,
	}
	svc, err := NewService(context.Background(), cfg, newTestRenderer(t), zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func TestSendViaSES_Success(t *testing.T) {
	svc := newSESTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/email/outbound-emails", r.URL.Path)
		require.Contains(t, r.Header.Get("Authorization"), "AKIDTEST")

		var req sesSendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Conectados 420 <no-reply@conectados420.cl>", req.FromEmailAddress)
		require.Equal(t, []string{"ana@example.cl"}, req.Destination.ToAddresses)
		require.Equal(t, "Tu pedido #ABCD1234 está en camino", req.Content.Simple.Subject.Data)
		require.Equal(t, "UTF-8", req.Content.Simple.Body.Html.Charset)
		require.Contains(t, req.Content.Simple.Body.Html.Data, "BX123")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"MessageId": "ses-message-1"})
	})

	id, err := svc.Send(context.Background(), Message{
		To:       "ana@example.cl",
		Template: TemplateOrderShipped,
		Data:     Data{CustomerName: "Ana", OrderRef: "ABCD1234", TrackingNumber: "BX123"}.Map(),
	})
	require.NoError(t, err)
	require.Equal(t, "ses-message-1", id)
}

func TestSendViaSES_Rejected(t *testing.T) {
	calls := 0
	svc := newSESTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Amzn-ErrorType", "MessageRejected")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Email address is not verified."})
	})

	_, err := svc.Send(context.Background(), Message{
		To:       "ana@example.cl",
		Template: TemplateOrderDelivered,
		Data:     Data{OrderRef: "ABCD1234"}.Map(),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ses send")
	require.Contains(t, err.Error(), "MessageRejected")
	require.Equal(t, 1, calls, "client errors are not retried")
}
