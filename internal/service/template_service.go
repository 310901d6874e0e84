// internal/service/template_service.go
package service

import (
	"regexp"

	"github.com/unclebandit/church-broadcast/internal/model"
)

var (
	// {first_name}, {{First Name}}, {firstname}, {first-name} ...
	firstNamePlaceholder = regexp.MustCompile(`(?i)\{\{?\s*first[\s_-]?name\s*\}?\}`)
	// {name}, {full_name}, {{Full Name}} ...
	fullNamePlaceholder = regexp.MustCompile(`(?i)\{\{?\s*(full[\s_-]?)?name\s*\}?\}`)
)

// RenderTemplate substitutes every name placeholder for one contact.
func RenderTemplate(template string, c model.Contact) string {
	result := firstNamePlaceholder.ReplaceAllLiteralString(template, c.FirstName())
	return fullNamePlaceholder.ReplaceAllLiteralString(result, c.Name)
}
