package twilio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://api.twilio.com"
	DefaultCountryCode = "+55"
	MaxMessageLength   = 1600
)

// SMSSender delivers a text message to a local phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, msg string) error
}

type Options struct {
	AccountSID string
	AuthToken  string
	FromPhone  string

	// CountryCode is prepended to the local number. Defaults to +55.
	CountryCode string
	BaseURL     string
	HTTPClient  *http.Client
}

type Client struct {
	opts Options
	http *http.Client
	v    *validator.Validate
	log  *zap.Logger
}

func New(opts Options, log *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.CountryCode == "" {
		opts.CountryCode = DefaultCountryCode
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{opts: opts, http: hc, v: validator.New(), log: log.Named("twilio")}
}

// Send posts one message through the Messages resource. Only 200 and 201
// count as delivered.
func (c *Client) Send(ctx context.Context, phone, msg string) error {
	phone = strings.TrimSpace(phone)
	msg = strings.TrimSpace(msg)
	if n := len(phone); n != 10 && n != 11 {
		return customErrors.NewInvalidArgument("Given parameters were missing or invalid")
	}
	if err := c.v.Var(msg, fmt.Sprintf("min=1,max=%d", MaxMessageLength)); err != nil {
		return customErrors.NewInvalidArgument("Given parameters were missing or invalid")
	}

	form := url.Values{
		"From": {c.opts.FromPhone},
		"To":   {c.opts.CountryCode + phone},
		"Body": {msg},
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		c.opts.BaseURL, url.PathEscape(c.opts.AccountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return customErrors.WrapInternal(err, "twilio: build request")
	}
	req.SetBasicAuth(c.opts.AccountSID, c.opts.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("sms send failed", zap.Error(err))
		return customErrors.WrapInternal(err, "twilio: send")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Warn("sms rejected", zap.Int("status", resp.StatusCode))
		return customErrors.WrapInternal(
			fmt.Errorf("status code returned was %d", resp.StatusCode), "twilio: send")
	}
	c.log.Debug("sms sent", zap.Int("status", resp.StatusCode))
	return nil
}
