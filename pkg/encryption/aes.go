package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	ivSize       = 12
	tagSize      = aes.BlockSize
	versionMagic = byte('G')
	keySize      = 32

	// Prefix marks a value produced by Cipher.Encrypt.
	Prefix = "AES:"
)

var (
	ErrNotEncrypted    = errors.New("value is not an encrypted value")
	ErrCipherTooShort  = errors.New("ciphertext block size is too short")
	ErrUnknownVersion  = errors.New("unknown cipher payload version")
	ErrNoCipherDefined = errors.New("no cipher configured for secure values")
)

// Cipher encrypts and decrypts configuration values.
type Cipher interface {
	Encrypt(plainText string) (string, error)
	Decrypt(encrypted string) (string, error)
}

type AESCipher struct {
	aesgcm cipher.AEAD
}

// NewAESCipher returns a Cipher backed by AES-GCM. The key must be 16, 24 or
// 32 bytes long.
func NewAESCipher(key []byte) (*AESCipher, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(c)
	if err != nil {
		return nil, err
	}

	return &AESCipher{aesgcm: aesgcm}, nil
}

// NewAESCipherFromBase64 decodes a base64 data key and builds a cipher from it.
func NewAESCipherFromBase64(encodedKey string) (*AESCipher, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encodedKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decode data key: %w", err)
	}
	return NewAESCipher(key)
}

// GenerateKey returns a random 32 byte data key.
func GenerateKey() ([]byte, error) {
	return RandomBytes(keySize)
}

// IsEncrypted reports whether value looks like the output of Encrypt.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

func (c *AESCipher) Encrypt(plainText string) (string, error) {
	nonce, err := RandomBytes(ivSize)
	if err != nil {
		return "", err
	}

	packed, err := c.encrypt([]byte(plainText), nonce)
	if err != nil {
		return "", err
	}
	return Prefix + base64.StdEncoding.EncodeToString(packed), nil
}

func (c *AESCipher) Decrypt(encrypted string) (string, error) {
	if !IsEncrypted(encrypted) {
		return "", ErrNotEncrypted
	}

	packed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encrypted, Prefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted value: %w", err)
	}
	if len(packed) < 1+tagSize+ivSize {
		return "", ErrCipherTooShort
	}
	if packed[0] != versionMagic {
		return "", ErrUnknownVersion
	}

	cipherText, iv := unpack(packed)
	plain, err := c.aesgcm.Open(nil, iv, cipherText, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt value: %w", err)
	}
	return string(plain), nil
}

func (c *AESCipher) encrypt(plainText, nonce []byte) ([]byte, error) {
	if len(nonce) < ivSize {
		return nil, errors.New("nonce size is too short")
	}

	cipherTextWithTag := c.aesgcm.Seal(nil, nonce[:ivSize], plainText, nil)
	return pack(cipherTextWithTag, nonce), nil
}

func RandomBytes(size int) ([]byte, error) {
	value := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, value); err != nil {
		return nil, err
	}

	return value, nil
}

// pack lays the payload out as version|tag|iv|ciphertext.
func pack(cipherTextWithTag []byte, iv []byte) []byte {
	iv = iv[:ivSize]

	tagStartIndex := len(cipherTextWithTag) - tagSize
	tag := cipherTextWithTag[tagStartIndex:]
	cipherText := cipherTextWithTag[:tagStartIndex]

	data := make([]byte, 1+tagSize+ivSize+len(cipherText))
	data[0] = versionMagic
	index := 1

	copy(data[index:], tag)
	index += tagSize

	copy(data[index:], iv)
	index += ivSize

	copy(data[index:], cipherText)

	return data
}

func unpack(packed []byte) ([]byte, []byte) {
	index := 1

	tag := packed[index : index+tagSize]
	index += tagSize

	iv := packed[index : index+ivSize]
	index += ivSize

	cipherText := make([]byte, 0, len(packed)-index+tagSize)
	cipherText = append(cipherText, packed[index:]...)
	cipherText = append(cipherText, tag...)

	return cipherText, iv
}
