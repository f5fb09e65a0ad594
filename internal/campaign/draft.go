package campaign

import (
	"html"
	"regexp"
	"strings"

	"github.com/ignite/campaign-console/internal/mailapi"
)

// Draft is one campaign in preparation. It exists only client-side until
// submission: cleared on a successful send, left intact on failure so the
// operator can correct and resubmit.
type Draft struct {
	ListID      int64
	SenderIDs   []int64
	Subject     string
	BodyHTML    string
	Attachments []mailapi.Attachment
}

// reset clears the composed content after a successful send. The list and
// sender selection survive so a follow-up campaign starts from the same
// audience.
func (d *Draft) reset() {
	d.Subject = ""
	d.BodyHTML = ""
	d.Attachments = nil
}

var tagRegex = regexp.MustCompile(`<[^>]*>`)

// renderedText extracts the visible text of an HTML fragment. An empty
// paragraph or markup alone yields "", which is what the empty-body
// precondition checks: markup presence does not count as content.
func renderedText(bodyHTML string) string {
	text := tagRegex.ReplaceAllString(bodyHTML, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(text)
}
