package mailer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/naebak/naebak-auth-service/pkg/logger"
	"github.com/naebak/naebak-auth-service/pkg/metrics"
)

const (
	KindWelcome       = "welcome"
	KindPasswordReset = "password_reset"

	welcomeSubject = "مرحباً بك في نائبك"
	resetSubject   = "إعادة تعيين كلمة المرور - نائبك"

	defaultSendTimeout = 10 * time.Second
)

// Recipient identifies who a templated message goes to.
type Recipient struct {
	Email      string
	Name       string
	UserTypeAR string
}

// Notifier renders the service's transactional messages and sends them off the
// request path. Failures are logged and counted, never returned.
type Notifier struct {
	sender  Sender
	logg    *logger.Logger
	metrics *metrics.AuthMetrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotifier wires a sender. timeout bounds each detached send.
func NewNotifier(sender Sender, logg *logger.Logger, m *metrics.AuthMetrics, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Notifier{sender: sender, logg: logg, metrics: m, timeout: timeout}
}

// Welcome queues the welcome email for a new account.
func (n *Notifier) Welcome(ctx context.Context, to Recipient) {
	n.dispatch(ctx, WelcomeMessage(to))
}

// PasswordReset queues a reset link.
func (n *Notifier) PasswordReset(ctx context.Context, to Recipient, link string) {
	n.dispatch(ctx, PasswordResetMessage(to, link))
}

// Wait blocks until queued sends finish. Used on shutdown and in tests.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(parent context.Context, msg Message) {
	if n == nil || n.sender == nil {
		return
	}
	logCtx := context.Background()
	if n.logg != nil && parent != nil {
		logCtx = n.logg.WithFields(parent, map[string]any{"kind": msg.Kind})
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		err := n.sender.Send(ctx, msg)
		n.metrics.IncMail(msg.Kind, err == nil)
		if err != nil && n.logg != nil {
			n.logg.Warn(n.logg.WithField(logCtx, "error", err.Error()), "mail.send_failed")
		}
	}()
}

// WelcomeMessage renders the welcome email.
func WelcomeMessage(to Recipient) Message {
	text := fmt.Sprintf(`مرحباً %s،

تم إنشاء حسابك في منصة نائبك بنجاح بصفة: %s.

يمكنك الآن تسجيل الدخول ومتابعة نوابك ومرشحيك والتواصل معهم.

فريق نائبك`, to.Name, to.UserTypeAR)

	html := fmt.Sprintf(`<div dir="rtl" style="font-family:Tahoma,Arial,sans-serif">
<h2>مرحباً %s</h2>
<p>تم إنشاء حسابك في منصة نائبك بنجاح بصفة: <strong>%s</strong>.</p>
<p>يمكنك الآن تسجيل الدخول ومتابعة نوابك ومرشحيك والتواصل معهم.</p>
<p>فريق نائبك</p>
</div>`, to.Name, to.UserTypeAR)

	return Message{Kind: KindWelcome, To: to.Email, Subject: welcomeSubject, Text: text, HTML: html}
}

// PasswordResetMessage renders the reset email carrying link.
func PasswordResetMessage(to Recipient, link string) Message {
	text := fmt.Sprintf(`مرحباً %s،

تلقينا طلباً لإعادة تعيين كلمة المرور لحسابك. استخدم الرابط التالي خلال ساعة واحدة:

%s

إذا لم تطلب ذلك يمكنك تجاهل هذه الرسالة.

فريق نائبك`, to.Name, link)

	return Message{Kind: KindPasswordReset, To: to.Email, Subject: resetSubject, Text: text}
}
