// Package notify delivers statements to customers.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/middleware"
	"github.com/SscSPs/dairy_billing_app/internal/utils"
	"github.com/resend/resend-go/v2"
)

var statementTemplate = template.Must(template.New("statement").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #1e3a8a; color: white; padding: 20px; text-align: center;">
    <h1 style="margin: 0;">{{.Business}}</h1>
    <p style="margin: 5px 0 0 0;">Monthly Bill Statement</p>
  </div>
  <div style="padding: 20px;">
    <p>Dear <strong>{{.CustomerName}}</strong>,</p>
    <p>Please find below your bill statement for <strong>{{.Month}} {{.Year}}</strong>.</p>
    <table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
      <tr><td><strong>Total Purchases</strong></td><td style="text-align: right;">{{.TotalSales}}</td></tr>
      <tr><td><strong>Amount Paid</strong></td><td style="text-align: right;">{{.TotalPaid}}</td></tr>
      <tr><td><strong>Balance Due</strong></td><td style="text-align: right; color: #dc2626;"><strong>{{.BalanceDue}}</strong></td></tr>
      <tr><td><strong>Number of Transactions</strong></td><td style="text-align: right;">{{.SalesCount}}</td></tr>
    </table>
    <p>Thank you for your continued trust in {{.Business}}.</p>
  </div>
</div>`))

type statementView struct {
	Business     string
	CustomerName string
	Month        string
	Year         int
	TotalSales   string
	TotalPaid    string
	BalanceDue   string
	SalesCount   int
}

// EmailConfig configures an EmailDispatcher.
type EmailConfig struct {
	// APIURL overrides the Resend API base URL. Empty keeps the SDK default.
	APIURL         string
	APIKey         string
	Sender         string
	BusinessName   string
	CurrencySymbol string
}

type responseTraceKey struct{}

// responseTrace receives the provider's HTTP status for one send. The SDK
// only reports failures as text, so the status is taken off the wire.
type responseTrace struct {
	status int
}

type traceTransport struct {
	base http.RoundTripper
}

func (t traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if trace, ok := req.Context().Value(responseTraceKey{}).(*responseTrace); ok && resp != nil {
		trace.status = resp.StatusCode
	}
	return resp, err
}

// EmailDispatcher sends statements through the Resend email API.
type EmailDispatcher struct {
	cfg      EmailConfig
	client   *resend.Client
	exporter portssvc.StatementExporter
}

// NewEmailDispatcher creates an EmailDispatcher. A nil exporter sends mails
// without a PDF attachment.
func NewEmailDispatcher(cfg EmailConfig, httpClient *http.Client, exporter portssvc.StatementExporter) (*EmailDispatcher, error) {
	traced := &http.Client{}
	if httpClient != nil {
		*traced = *httpClient
	}
	base := traced.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	traced.Transport = traceTransport{base: base}

	client := resend.NewCustomClient(traced, cfg.APIKey)
	if cfg.APIURL != "" {
		raw := cfg.APIURL
		// endpoints resolve relative to the base
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		baseURL, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid email API URL %q: %w", cfg.APIURL, err)
		}
		client.BaseURL = baseURL
	}
	return &EmailDispatcher{cfg: cfg, client: client, exporter: exporter}, nil
}

var _ portssvc.StatementDispatcher = (*EmailDispatcher)(nil)

func (d *EmailDispatcher) Send(ctx context.Context, msg domain.StatementMessage) domain.DeliveryOutcome {
	logger := middleware.GetLoggerFromCtx(ctx)

	params, err := d.buildRequest(msg)
	if err != nil {
		return domain.DeliveryFailure(domain.DeliveryFailed, err.Error())
	}

	trace := &responseTrace{}
	sent, err := d.client.Emails.SendWithContext(context.WithValue(ctx, responseTraceKey{}, trace), params)
	if err == nil {
		logger.Debug("Email accepted by provider",
			slog.String("message_id", sent.Id), slog.String("statement_id", msg.Statement.StatementID))
		return domain.Delivered(sent.Id)
	}

	// Deadline first: a cut-off response may still carry a status
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return domain.DeliveryFailure(domain.DeliveryTimeout, err.Error())
	}
	if trace.status == 0 {
		// never reached the provider
		return domain.DeliveryFailure(domain.DeliveryFailed, err.Error())
	}

	detail := fmt.Sprintf("provider returned %d: %v", trace.status, err)
	switch trace.status {
	case http.StatusUnprocessableEntity:
		return domain.DeliveryFailure(domain.DeliveryInvalidAddress, detail)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return domain.DeliveryFailure(domain.DeliveryTimeout, detail)
	default:
		return domain.DeliveryFailure(domain.DeliveryFailed, detail)
	}
}

func (d *EmailDispatcher) buildRequest(msg domain.StatementMessage) (*resend.SendEmailRequest, error) {
	stmt := msg.Statement
	html, err := RenderStatementHTML(d.cfg.BusinessName, d.cfg.CurrencySymbol, stmt)
	if err != nil {
		return nil, err
	}

	params := &resend.SendEmailRequest{
		From:    d.cfg.Sender,
		To:      []string{msg.Recipient},
		Subject: fmt.Sprintf("%s - Bill Statement for %s %d", d.cfg.BusinessName, stmt.Period.MonthName(), stmt.Period.Year),
		Html:    html,
	}

	if d.exporter != nil {
		doc, err := d.exporter.Export(domain.StatementDetail{Statement: stmt, Sales: msg.Sales}, domain.ExportFormatPDF)
		if err != nil {
			return nil, fmt.Errorf("render attachment: %w", err)
		}
		params.Attachments = []*resend.Attachment{{
			Filename: doc.Filename,
			Content:  doc.Content,
		}}
	}
	return params, nil
}

// RenderStatementHTML renders the mail body for a statement.
func RenderStatementHTML(business, currencySymbol string, stmt domain.Statement) (string, error) {
	var buf bytes.Buffer
	err := statementTemplate.Execute(&buf, statementView{
		Business:     business,
		CustomerName: stmt.CustomerName,
		Month:        stmt.Period.MonthName(),
		Year:         stmt.Period.Year,
		TotalSales:   utils.FormatAmount(stmt.TotalSales, currencySymbol),
		TotalPaid:    utils.FormatAmount(stmt.TotalPaid, currencySymbol),
		BalanceDue:   utils.FormatAmount(stmt.BalanceDue, currencySymbol),
		SalesCount:   stmt.SalesCount,
	})
	if err != nil {
		return "", fmt.Errorf("render statement body: %w", err)
	}
	return buf.String(), nil
}

// LogDispatcher only logs statements. Used when no email provider is configured.
type LogDispatcher struct {
	now func() time.Time
}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{now: time.Now}
}

var _ portssvc.StatementDispatcher = (*LogDispatcher)(nil)

func (d *LogDispatcher) Send(ctx context.Context, msg domain.StatementMessage) domain.DeliveryOutcome {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.DeliveryFailure(domain.DeliveryTimeout, err.Error())
		}
		return domain.DeliveryFailure(domain.DeliveryFailed, err.Error())
	}
	middleware.GetLoggerFromCtx(ctx).Info("Statement delivery logged, no email provider configured",
		slog.String("statement_id", msg.Statement.StatementID),
		slog.String("recipient", msg.Recipient),
		slog.String("balance_due", msg.Statement.BalanceDue.StringFixed(2)))
	return domain.Delivered(fmt.Sprintf("log-%d", d.now().UnixNano()))
}
