package context

import (
	"context"
)

const (
	keyPatron    contextKey = "patron"
	keyLibrarian contextKey = "librarian"
)

// Patron returns the email of the authenticated patron, or an empty string
// for anonymous requests.
func Patron(ctx context.Context) string {
	email, ok := ctx.Value(keyPatron).(string)
	if !ok {
		return ""
	}

	return email
}

func SetPatron(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyPatron, email)
}

func Librarian(ctx context.Context) bool {
	librarian, ok := ctx.Value(keyLibrarian).(bool)
	if !ok {
		return false
	}

	return librarian
}

func SetLibrarian(ctx context.Context, librarian bool) context.Context {
	return context.WithValue(ctx, keyLibrarian, librarian)
}
