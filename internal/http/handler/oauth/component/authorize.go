package component

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	commonComp "github.com/archivelabs/lenny/internal/http/handler/common/component"
	"github.com/pkg/errors"
)

type LoginStep int

const (
	// LoginStepEmail asks for the patron email
	LoginStepEmail LoginStep = iota
	// LoginStepOTP asks for the one time password sent to the patron
	LoginStepOTP
)

type LoginFormVModel struct {
	ClientName string
	Action     string
	Step       LoginStep
	Email      string
	Message    string
	Error      string
}

// LoginForm asks the patron to sign in before authorizing an OPDS reader.
func LoginForm(vmodel LoginFormVModel) templ.Component {
	return commonComp.Page("Sign in - Lenny", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder

		sb.WriteString(`<h1>Sign in</h1>`)
		sb.WriteString(`<p><strong>` + templ.EscapeString(vmodel.ClientName) + `</strong> would like to access your Lenny loans.</p>`)

		if vmodel.Error != "" {
			sb.WriteString(`<p class="error">` + templ.EscapeString(vmodel.Error) + `</p>`)
		} else if vmodel.Message != "" {
			sb.WriteString(`<p>` + templ.EscapeString(vmodel.Message) + `</p>`)
		}

		sb.WriteString(`<form method="post" action="` + templ.EscapeString(vmodel.Action) + `">`)
		sb.WriteString(`<label for="email">Email</label>`)
		sb.WriteString(`<input id="email" type="email" name="email" required value="` + templ.EscapeString(vmodel.Email) + `">`)

		switch vmodel.Step {
		case LoginStepOTP:
			sb.WriteString(`<label for="otp">One time password</label>`)
			sb.WriteString(`<input id="otp" type="text" name="otp" required autocomplete="one-time-code">`)
			sb.WriteString(`<button type="submit" name="action" value="login">Sign in</button>`)
			sb.WriteString(`<button type="submit" name="action" value="issue" formnovalidate>Send a new code</button>`)
		default:
			sb.WriteString(`<button type="submit" name="action" value="issue">Send me a code</button>`)
		}

		sb.WriteString(`</form>`)

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return errors.WithStack(err)
		}

		return nil
	}))
}

type AuthorizedVModel struct {
	ClientName  string
	Code        string
	RedirectURL string
}

// Authorized hands the authorization code over to OPDS reader applications
// which cannot be reached through an http redirection.
func Authorized(vmodel AuthorizedVModel) templ.Component {
	return commonComp.Page("Signed in - Lenny", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder

		sb.WriteString(`<h1>You are signed in</h1>`)
		sb.WriteString(`<p>Return to <strong>` + templ.EscapeString(vmodel.ClientName) + `</strong> to continue.</p>`)
		sb.WriteString(`<p><a href="` + templ.EscapeString(vmodel.RedirectURL) + `">Open the application</a></p>`)
		sb.WriteString(`<p>Authorization code: <code id="code">` + templ.EscapeString(vmodel.Code) + `</code></p>`)

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return errors.WithStack(err)
		}

		return nil
	}))
}
