// createkey generates a random API key suitable for the API_KEY setting.
package main

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
)

func main() {
	// Character set: uppercase letters, lowercase letters, and numbers
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	const keyLength = 32

	charsetLen := len(charset)
	// Rejection sampling: the largest multiple of charsetLen that fits in a
	// byte, so every character is equally likely.
	maxValidByte := byte((255 / charsetLen) * charsetLen)

	apiKeyBytes := make([]byte, keyLength)
	randomByte := make([]byte, 1)

	for i := 0; i < keyLength; {
		if _, err := rand.Read(randomByte); err != nil {
			slog.Error("Failed to generate random bytes", "error", err)
			os.Exit(1)
		}

		if randomByte[0] >= maxValidByte {
			continue
		}

		apiKeyBytes[i] = charset[int(randomByte[0])%charsetLen]
		i++
	}

	fmt.Printf("API key: %s\n", string(apiKeyBytes))
	fmt.Println("Set it as API_KEY in the server environment and use it as the bearer token.")
}
