package mailer

import (
	"fmt"
	"strings"
)

// Substitute replaces {variable} placeholders in an email template
func Substitute(template string, variables map[string]string) string {
	result := template
	for key, value := range variables {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}

// AbsoluteLink converts a relative link to an absolute URL for use in email
func AbsoluteLink(baseURL, link string) string {
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return fmt.Sprintf("%s%s", strings.TrimRight(baseURL, "/"), link)
}
