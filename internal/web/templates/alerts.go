// Package templates renders the HTMX partials returned by the import API.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissable error box with the support code. Details,
// such as the rows a commit rejected, are listed under the message.
func ErrorAlert(message, action, code string, details ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div class="alert alert-error" role="alert"><p class="alert-message">%s</p>`,
			templ.EscapeString(message)); err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		if err := writeList(w, "alert-details", details); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<p class="alert-code">Error code: %s</p></div>`, templ.EscapeString(code))
		return err
	})
}

// NoticeAlert renders a success message followed by a list of warnings.
// Without warnings the box is styled as plain success.
func NoticeAlert(message string, warnings []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "alert-success"
		if len(warnings) > 0 {
			class = "alert-warning"
		}
		if _, err := fmt.Fprintf(w, `<div class="alert %s" role="status"><p class="alert-message">%s</p>`,
			class, templ.EscapeString(message)); err != nil {
			return err
		}
		if err := writeList(w, "alert-warnings", warnings); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// writeList writes items as an escaped ul. Nothing is written for no items.
func writeList(w io.Writer, class string, items []string) error {
	if len(items) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, `<ul class="%s">`, class); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, `<li>%s</li>`, templ.EscapeString(item)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</ul>`)
	return err
}
