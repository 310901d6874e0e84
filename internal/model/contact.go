// internal/model/contact.go
package model

import "strings"

// ContactKind says what the Phone field of a Contact really holds.
type ContactKind string

const (
	KindPhone ContactKind = "phone"
	// KindEmail marks registries without a phone column whose email stands in.
	KindEmail ContactKind = "email"
)

// Contact is one resolved broadcast recipient. Never persisted.
type Contact struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Phone string      `json:"phone"`
	Kind  ContactKind `json:"kind,omitempty"`
}

// FirstName returns the first space-delimited token of the name.
func (c Contact) FirstName() string {
	fields := strings.Fields(c.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// NormalizedContact returns the dedup key for the contact value: a trimmed,
// lowercased email for email surrogates, digits only otherwise.
func (c Contact) NormalizedContact() string {
	if c.Kind == KindEmail {
		return normalizeEmail(c.Phone)
	}
	return NormalizePhone(c.Phone)
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeAddress normalizes a stored contact value whose kind is not
// known: values with an @ are emails, everything else is a phone.
func NormalizeAddress(addr string) string {
	if strings.Contains(addr, "@") {
		return normalizeEmail(addr)
	}
	return NormalizePhone(addr)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
