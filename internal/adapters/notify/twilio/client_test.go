package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	customErrors "github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/errors"
	"github.com/stretchr/testify/require"
)

type captured struct {
	path, user, pass, contentType string
	form                          map[string]string
}

func newTwilio(t *testing.T, status int) (*Client, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.user, got.pass, _ = r.BasicAuth()
		got.contentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		got.form = map[string]string{
			"From": r.PostForm.Get("From"),
			"To":   r.PostForm.Get("To"),
			"Body": r.PostForm.Get("Body"),
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c := New(Options{
		AccountSID: "AC123",
		AuthToken:  "tok",
		FromPhone:  "+15550001111",
		BaseURL:    srv.URL,
	}, nil)
	return c, got
}

func TestSend_PostsForm(t *testing.T) {
	c, got := newTwilio(t, http.StatusCreated)

	require.NoError(t, c.Send(context.Background(), " 5551234567 ", "  hello  "))

	require.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.path)
	require.Equal(t, "AC123", got.user)
	require.Equal(t, "tok", got.pass)
	require.Equal(t, "application/x-www-form-urlencoded", got.contentType)
	require.Equal(t, map[string]string{
		"From": "+15550001111",
		"To":   "+555551234567",
		"Body": "hello",
	}, got.form)
}

func TestSend_OKStatus(t *testing.T) {
	c, _ := newTwilio(t, http.StatusOK)
	require.NoError(t, c.Send(context.Background(), "55512345678", "hi"))
}

func TestSend_RejectedStatusIsInternal(t *testing.T) {
	c, _ := newTwilio(t, http.StatusBadRequest)
	err := c.Send(context.Background(), "5551234567", "hi")
	require.True(t, customErrors.IsInternal(err))
	require.Contains(t, err.Error(), "400")
}

func TestSend_Validation(t *testing.T) {
	c, got := newTwilio(t, http.StatusCreated)
	ctx := context.Background()

	cases := map[string][2]string{
		"short phone":  {"555123", "hi"},
		"long phone":   {"555123456789", "hi"},
		"blank phone":  {"          ", "hi"},
		"empty msg":    {"5551234567", "   "},
		"msg too long": {"5551234567", strings.Repeat("x", MaxMessageLength+1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			err := c.Send(ctx, in[0], in[1])
			require.True(t, customErrors.IsInvalidArgument(err))
		})
	}
	require.Empty(t, got.path, "invalid input never reaches the API")

	require.NoError(t, c.Send(ctx, "5551234567", strings.Repeat("x", MaxMessageLength)))
}

func TestSend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{AccountSID: "AC1", BaseURL: url}, nil)
	err := c.Send(context.Background(), "5551234567", "hi")
	require.True(t, customErrors.IsInternal(err))
}
