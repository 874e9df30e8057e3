package utils

import "math/rand"

const tokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomToken builds a short alphanumeric code (MFA, password reset).
func GenerateRandomToken(length int) string {
	token := make([]byte, length)
	for i := range token {
		token[i] = tokenCharset[rand.Intn(len(tokenCharset))]
	}
	return string(token)
}
