// Package seedvault persists a seed phrase on disk encrypted with
// AES-256-GCM under a key derived from a passphrase with scrypt. The
// ciphertext is authenticated, tampering is detected at decryption time.
package seedvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
)

var (
	// ErrNullPassphrase ...
	ErrNullPassphrase = errors.New("passphrase must not be null")
	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("text to encrypt must not be null")
	// ErrInvalidCypherText ...
	ErrInvalidCypherText = errors.New("cypher is malformed or truncated")
	// ErrInvalidPassphrase is returned when decryption fails, either because
	// the passphrase is wrong or the ciphertext was tampered with.
	ErrInvalidPassphrase = errors.New("passphrase is not valid")
	// ErrVaultNotFound ...
	ErrVaultNotFound = errors.New("vault file not found")
)

// Vault stores one encrypted seed phrase at a fixed file path.
type Vault struct {
	path string
}

// NewVault returns a vault bound to the given file path.
func NewVault(path string) *Vault {
	return &Vault{path}
}

// Store encrypts the mnemonic under the passphrase and writes it to the
// vault file, creating parent directories as needed.
func (v *Vault) Store(mnemonic, passphrase string) error {
	cypherText, err := Encrypt(mnemonic, passphrase)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(v.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return os.WriteFile(v.path, []byte(cypherText), 0600)
}

// Retrieve reads the vault file and decrypts the mnemonic with the
// passphrase.
func (v *Vault) Retrieve(passphrase string) (string, error) {
	cypherText, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrVaultNotFound
		}
		return "", err
	}
	return Decrypt(string(cypherText), passphrase)
}

// Exists returns whether the vault file is present and non-empty.
func (v *Vault) Exists() bool {
	info, err := os.Stat(v.path)
	return err == nil && info.Size() > 0
}

// Encrypt returns the base64 of salt||nonce||ciphertext for the given plain
// text and passphrase.
func Encrypt(plainText, passphrase string) (string, error) {
	if len(plainText) == 0 {
		return "", ErrNullPlainText
	}
	if len(passphrase) == 0 {
		return "", ErrNullPassphrase
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	aesGCM, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aesGCM.Seal(nil, nonce, []byte(plainText), nil)

	buf := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	buf = append(buf, salt...)
	buf = append(buf, nonce...)
	buf = append(buf, sealed...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decrypt reverses Encrypt. A wrong passphrase and a tampered ciphertext are
// indistinguishable and both yield ErrInvalidPassphrase.
func Decrypt(cypherText, passphrase string) (string, error) {
	if len(passphrase) == 0 {
		return "", ErrNullPassphrase
	}

	buf, err := base64.StdEncoding.DecodeString(cypherText)
	if err != nil {
		return "", ErrInvalidCypherText
	}
	if len(buf) < saltLen {
		return "", ErrInvalidCypherText
	}

	salt, rest := buf[:saltLen], buf[saltLen:]
	aesGCM, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}
	if len(rest) < aesGCM.NonceSize() {
		return "", ErrInvalidCypherText
	}

	nonce, sealed := rest[:aesGCM.NonceSize()], rest[aesGCM.NonceSize():]
	plainText, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidPassphrase
	}
	return string(plainText), nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
