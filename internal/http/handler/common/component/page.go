package component

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/pkg/errors"
)

// Page wraps the body in the html document shared by all pages.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`); err != nil {
			return errors.WithStack(err)
		}

		if _, err := io.WriteString(w, templ.EscapeString(title)); err != nil {
			return errors.WithStack(err)
		}

		if _, err := io.WriteString(w, `</title><style>`+style+`</style></head><body><main>`); err != nil {
			return errors.WithStack(err)
		}

		if err := body.Render(ctx, w); err != nil {
			return errors.WithStack(err)
		}

		if _, err := io.WriteString(w, `</main></body></html>`); err != nil {
			return errors.WithStack(err)
		}

		return nil
	})
}

const style = `body{font-family:system-ui,sans-serif;margin:0;padding:2rem;color:#222}` +
	`main{max-width:40rem;margin:0 auto;text-align:center}` +
	`img{max-width:12rem}` +
	`form{display:flex;flex-direction:column;gap:.75rem;text-align:left}` +
	`input,button{font-size:1rem;padding:.5rem}` +
	`.error{color:#b00020}` +
	`code{word-break:break-all}`
