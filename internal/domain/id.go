package domain

import "github.com/google/uuid"

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Lengths of generated identifiers.
const (
	ThreadIDLength  = 6
	ArticleIDLength = 10
)

// NewID returns a random alphanumeric identifier of length n.
func NewID(n int) string {
	out := make([]byte, 0, n)
	for len(out) < n {
		u := uuid.New()
		for i, b := range u {
			// bytes 6 and 8 carry the version and variant bits
			if i == 6 || i == 8 {
				continue
			}
			if len(out) == n {
				break
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
		}
	}
	return string(out)
}
