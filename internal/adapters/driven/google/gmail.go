package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/ports/driven"
)

// Ensure MailGateway implements the port.
var _ driven.MailGateway = (*MailGateway)(nil)

// MailGateway sends email through the Gmail API as the authenticated user.
type MailGateway struct {
	limiter *RateLimiter
}

// NewMailGateway creates a Gmail-backed mail gateway.
func NewMailGateway() *MailGateway {
	return &MailGateway{limiter: NewRateLimiter(ServiceGmail)}
}

// Send delivers an HTML message from the user's own account.
func (g *MailGateway) Send(ctx context.Context, accessToken string, msg domain.OutboundEmail) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return fmt.Errorf("%w: creating gmail client: %v", domain.ErrProtocol, err)
	}

	message := &gmail.Message{Raw: encodeMessage(msg)}
	if _, err := svc.Users.Messages.Send("me", message).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: sending mail to %s: %v", domain.ErrProtocol, msg.To, err)
	}
	return nil
}

// encodeMessage builds the RFC 822 message and web-safe base64 encodes it,
// as the Gmail API requires.
func encodeMessage(msg domain.OutboundEmail) string {
	var b strings.Builder
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}
