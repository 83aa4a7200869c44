package audit

import "strings"

// roster is a remote email list under reconciliation. Entries are folded
// to lowercase on construction and consumed as local records claim them;
// whatever is left at the end is not in the app.
type roster struct {
	emails []string
}

func newRoster(emails []string) *roster {
	r := &roster{emails: make([]string, 0, len(emails))}
	for _, e := range emails {
		r.emails = append(r.emails, strings.ToLower(e))
	}
	return r
}

// claim removes the first occurrence of email (already folded by the
// caller) and reports whether it was present.
func (r *roster) claim(email string) bool {
	for i, e := range r.emails {
		if e == email {
			r.emails = append(r.emails[:i], r.emails[i+1:]...)
			return true
		}
	}
	return false
}

// remaining returns the unclaimed entries in their original order.
func (r *roster) remaining() []string { return r.emails }
