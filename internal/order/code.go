package order

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const codeLength = 12

type codeSeed struct {
	Email string `json:"email"`
	Items []Item `json:"items"`
	Nonce string `json:"nonce"`
}

// GenerateCode derives the public order code from the order contents plus a
// fresh random nonce. The nonce makes the code practically unique even for
// identical repeat orders.
func GenerateCode(email string, items []Item) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("order: failed to read nonce: %w", err)
	}
	return codeFromSeed(email, items, hex.EncodeToString(nonce))
}

// codeFromSeed is deterministic for a fixed nonce, which is what the tests
// rely on.
func codeFromSeed(email string, items []Item, nonce string) (string, error) {
	seed, err := json.Marshal(codeSeed{Email: email, Items: items, Nonce: nonce})
	if err != nil {
		return "", fmt.Errorf("order: failed to marshal code seed: %w", err)
	}

	sum := sha256.Sum256(seed)
	return strings.ToUpper(hex.EncodeToString(sum[:])[:codeLength]), nil
}
