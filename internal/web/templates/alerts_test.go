package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return b.String()
}

func TestErrorAlert(t *testing.T) {
	html := render(t, ErrorAlert("File <b>too</b> large", "Split it", "FILE001"))

	for _, want := range []string{
		"File &lt;b&gt;too&lt;/b&gt; large",
		`<p class="alert-action">Split it</p>`,
		"Error code: FILE001",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("ErrorAlert() = %q, missing %q", html, want)
		}
	}

	if html := render(t, ErrorAlert("Oops", "", "ERR000")); strings.Contains(html, "alert-action") || strings.Contains(html, "<ul") {
		t.Errorf("ErrorAlert() without action or details = %q", html)
	}
}

func TestErrorAlert_Details(t *testing.T) {
	html := render(t, ErrorAlert("No items were imported", "Fix the listed rows", "IMP003",
		"Row 2: name can't be blank", `Row 3: weight "<x>" is not a number`))

	for _, want := range []string{
		`class="alert alert-error" role="alert"`,
		`<ul class="alert-details">`,
		"<li>Row 2: name can&#39;t be blank</li>",
		"&lt;x&gt;",
		"Error code: IMP003",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("ErrorAlert() = %q, missing %q", html, want)
		}
	}
	if strings.Contains(html, "alert-warning") || strings.Contains(html, `role="status"`) {
		t.Errorf("ErrorAlert() styled as a notice: %q", html)
	}
}

func TestNoticeAlert(t *testing.T) {
	html := render(t, NoticeAlert("Imported 3 items", nil))
	if !strings.Contains(html, "alert-success") || strings.Contains(html, "<ul") {
		t.Errorf("NoticeAlert() without warnings = %q", html)
	}

	html = render(t, NoticeAlert("Imported 2 items", []string{"Row 3: name can't be blank", `Row 4: weight "<x>"`}))
	for _, want := range []string{
		"alert-warning",
		"<li>Row 3: name can&#39;t be blank</li>",
		"&lt;x&gt;",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("NoticeAlert() = %q, missing %q", html, want)
		}
	}
}
