package templates

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

const layoutOpen = `<!DOCTYPE html><html><body style="font-family:sans-serif;line-height:1.5">`
const layoutClose = `</body></html>`

// ResetPassword is sent after a forgot-password request and carries the plaintext reset code.
func ResetPassword(code string, ttl time.Duration) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`%s<h2>Password reset</h2><p>Use the code below to set a new password.</p>`+
				`<p style="font-size:20px;font-weight:bold;letter-spacing:2px">%s</p>`+
				`<p>The code expires in %s. If you did not request a reset, ignore this email.</p>%s`,
			layoutOpen, templ.EscapeString(code), templ.EscapeString(ttl.String()), layoutClose,
		)
		return err
	})
}

// HelpRequest forwards a user's help comment to the support inbox.
func HelpRequest(from, comment string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`%s<h2>Help request</h2><p><strong>From:</strong> %s</p><p><strong>Comment:</strong></p><p>%s</p>%s`,
			layoutOpen, templ.EscapeString(from), templ.EscapeString(comment), layoutClose,
		)
		return err
	})
}
