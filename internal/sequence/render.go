package sequence

import (
	"regexp"

	"github.com/unclebandit/dripline/internal/model"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// Render fills {{contact.field}} and {{company.name}} placeholders from the
// contact. Unknown fields render as empty strings.
func Render(content string, c *model.Contact) string {
	if c == nil {
		c = &model.Contact{}
	}
	return placeholder.ReplaceAllStringFunc(content, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		return c.Field(key)
	})
}
