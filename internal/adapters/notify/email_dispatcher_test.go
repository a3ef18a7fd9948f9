package notify_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/adapters/export"
	"github.com/SscSPs/dairy_billing_app/internal/adapters/notify"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EmailDispatcherTestSuite struct {
	suite.Suite
	server   *httptest.Server
	handler  http.HandlerFunc
	received map[string]any
	auth     string
	path     string
}

func (s *EmailDispatcherTestSuite) SetupTest() {
	s.received = nil
	s.auth = ""
	s.path = ""
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.auth = r.Header.Get("Authorization")
		s.path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&s.received)
		s.handler(w, r)
	}))
}

func (s *EmailDispatcherTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *EmailDispatcherTestSuite) dispatcher() *notify.EmailDispatcher {
	d, err := notify.NewEmailDispatcher(notify.EmailConfig{
		APIURL:         s.server.URL,
		APIKey:         "re_test",
		Sender:         "billing@example.com",
		BusinessName:   "Dairy Store",
		CurrencySymbol: "₹",
	}, s.server.Client(), export.NewExporter("Dairy Store", "₹"))
	s.Require().NoError(err)
	return d
}

// attachmentBytes accepts the attachment content as a base64 string or as a
// JSON byte array, both of which the email API understands.
func attachmentBytes(t *testing.T, content any) []byte {
	switch v := content.(type) {
	case string:
		b, err := base64.StdEncoding.DecodeString(v)
		require.NoError(t, err)
		return b
	case []any:
		b := make([]byte, len(v))
		for i, n := range v {
			b[i] = byte(n.(float64))
		}
		return b
	default:
		t.Fatalf("unexpected attachment content %T", content)
		return nil
	}
}

func message() domain.StatementMessage {
	return domain.StatementMessage{
		Statement: domain.Statement{
			StatementID:  "stmt-1",
			CustomerID:   "cust-1",
			CustomerName: "Asha",
			Period:       domain.NewPeriod(3, 2024),
			TotalSales:   decimal.RequireFromString("150"),
			TotalPaid:    decimal.RequireFromString("50"),
			BalanceDue:   decimal.RequireFromString("100"),
			SalesCount:   1,
		},
		Recipient: "asha@example.com",
	}
}

func TestEmailDispatcherTestSuite(t *testing.T) {
	suite.Run(t, new(EmailDispatcherTestSuite))
}

func (s *EmailDispatcherTestSuite) TestSend_Delivered() {
	outcome := s.dispatcher().Send(context.Background(), message())

	s.True(outcome.Delivered)
	s.Equal("msg-1", outcome.ProviderMessageID)
	s.Equal("Bearer re_test", s.auth)
	s.Equal("billing@example.com", s.received["from"])
	s.Equal([]any{"asha@example.com"}, s.received["to"])
	s.Equal("Dairy Store - Bill Statement for March 2024", s.received["subject"])
	s.Contains(s.received["html"], "₹100.00")

	attachments, ok := s.received["attachments"].([]any)
	s.Require().True(ok)
	s.Require().Len(attachments, 1)
	att := attachments[0].(map[string]any)
	s.Equal("statement-2024-03-cust-1.pdf", att["filename"])
	pdf := attachmentBytes(s.T(), att["content"])
	s.Require().GreaterOrEqual(len(pdf), 4)
	s.Equal("%PDF", string(pdf[:4]))
	s.Equal("/emails", s.path)
}

func (s *EmailDispatcherTestSuite) TestSend_InvalidAddress() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"Invalid 'to' field"}`))
	}

	outcome := s.dispatcher().Send(context.Background(), message())

	s.False(outcome.Delivered)
	s.Equal(domain.DeliveryInvalidAddress, outcome.Reason)
	s.Contains(outcome.Detail, "Invalid 'to' field")
}

func (s *EmailDispatcherTestSuite) TestSend_ProviderError() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`upstream exploded`))
	}

	outcome := s.dispatcher().Send(context.Background(), message())

	s.False(outcome.Delivered)
	s.Equal(domain.DeliveryFailed, outcome.Reason)
	s.Contains(outcome.Detail, "500")
}

func (s *EmailDispatcherTestSuite) TestSend_GatewayTimeout() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}

	outcome := s.dispatcher().Send(context.Background(), message())

	s.False(outcome.Delivered)
	s.Equal(domain.DeliveryTimeout, outcome.Reason)
}

func (s *EmailDispatcherTestSuite) TestSend_WithoutExporterSkipsAttachment() {
	d, err := notify.NewEmailDispatcher(notify.EmailConfig{
		APIURL:       s.server.URL + "/",
		APIKey:       "re_test",
		Sender:       "billing@example.com",
		BusinessName: "Dairy Store",
	}, nil, nil)
	s.Require().NoError(err)

	outcome := d.Send(context.Background(), message())

	s.True(outcome.Delivered)
	s.Nil(s.received["attachments"])
}

func TestNewEmailDispatcher_RejectsBadURL(t *testing.T) {
	_, err := notify.NewEmailDispatcher(notify.EmailConfig{APIURL: "://bad", APIKey: "re_test"}, nil, nil)
	assert.Error(t, err)
}

func (s *EmailDispatcherTestSuite) TestSend_Timeout() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	outcome := s.dispatcher().Send(ctx, message())

	s.False(outcome.Delivered)
	s.Equal(domain.DeliveryTimeout, outcome.Reason)
}

func TestRenderStatementHTML_EscapesCustomerName(t *testing.T) {
	stmt := message().Statement
	stmt.CustomerName = "<script>x</script>"

	html, err := notify.RenderStatementHTML("Dairy Store", "₹", stmt)

	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "March 2024")
}

func TestLogDispatcher(t *testing.T) {
	d := notify.NewLogDispatcher()

	outcome := d.Send(context.Background(), message())
	assert.True(t, outcome.Delivered)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome = d.Send(ctx, message())
	assert.False(t, outcome.Delivered)
	assert.Equal(t, domain.DeliveryFailed, outcome.Reason)
}
