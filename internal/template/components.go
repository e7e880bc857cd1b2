package template

import (
	"fmt"
	"regexp"
)

// Named mail components available inside "mail-component" bodies. The
// component tags expand before expression compilation, so their content may
// itself contain expressions.
var components = []struct {
	pattern *regexp.Regexp
	open    string
	close   string
}{
	{
		pattern: regexp.MustCompile(`(?s)<x-panel>(.*?)</x-panel>`),
		open:    `<div style="background-color:#f2f4f6;border-radius:4px;padding:16px;margin:16px 0;">`,
		close:   `</div>`,
	},
	{
		pattern: regexp.MustCompile(`(?s)<x-button\s+url="([^"]*)">(.*?)</x-button>`),
		open:    `<a href="%s" style="display:inline-block;background-color:#2d3748;color:#ffffff;padding:10px 18px;border-radius:4px;text-decoration:none;">`,
		close:   `</a>`,
	},
}

func expandComponents(body string) string {
	body = components[0].pattern.ReplaceAllString(body, components[0].open+"$1"+components[0].close)
	body = components[1].pattern.ReplaceAllString(body,
		fmt.Sprintf(components[1].open, "$1")+"$2"+components[1].close)
	return body
}
