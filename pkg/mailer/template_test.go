package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	template := "Hello {name}, your request {title} is now {status}."
	got := Substitute(template, map[string]string{
		"name":   "alice",
		"title":  "Dark mode",
		"status": "in progress",
	})
	assert.Equal(t, "Hello alice, your request Dark mode is now in progress.", got)
}

func TestSubstituteLeavesUnknownPlaceholders(t *testing.T) {
	got := Substitute("Hi {name}, see {link}", map[string]string{"name": "bob"})
	assert.Equal(t, "Hi bob, see {link}", got)
}

func TestAbsoluteLink(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/requests/5", AbsoluteLink("http://localhost:8080/", "/requests/5"))
	assert.Equal(t, "https://example.com/x", AbsoluteLink("http://localhost:8080", "https://example.com/x"))
	assert.Equal(t, "", AbsoluteLink("http://localhost:8080", ""))
}
