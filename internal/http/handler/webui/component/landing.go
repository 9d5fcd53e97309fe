package component

import (
	"context"
	"io"

	"github.com/a-h/templ"
	commonComp "github.com/archivelabs/lenny/internal/http/handler/common/component"
	"github.com/pkg/errors"
)

const (
	LogoPath   = "/assets/lenny.png"
	ProjectURL = "https://github.com/ArchiveLabs/lenny"
)

const landingBody = `<h1>Lenny</h1>` +
	`<img src="` + LogoPath + `" alt="Lenny">` +
	`<p>Lenny is a free, open source Library Lending System. You can learn more about it on <a href="` + ProjectURL + `">github</a>.</p>`

// Landing renders the project landing page. It takes no input so every render
// is identical.
func Landing() templ.Component {
	return commonComp.Page("Lenny", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, landingBody); err != nil {
			return errors.WithStack(err)
		}

		return nil
	}))
}
