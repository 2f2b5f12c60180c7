package ports

// SignatureVerifier recovers the account that signed a message
type SignatureVerifier interface {
	RecoverAccount(message, signature string) (string, error)
}
