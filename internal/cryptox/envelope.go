package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// SymmetricDecrypt opens an envelope of the form
//
//	version:base64(ciphertext):base64(iv)
//
// produced with AES-CBC and PKCS#7 padding under key. The envelope is
// validated before any cipher work is done.
func SymmetricDecrypt(envelope string, key []byte) (version string, plaintext []byte, err error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		return "", nil, ErrInvalidEnvelope
	}
	version = parts[0]

	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("%w: ciphertext: %v", ErrInvalidEnvelope, err)
	}
	iv, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", nil, fmt.Errorf("%w: iv: %v", ErrInvalidEnvelope, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(iv) != block.BlockSize() {
		return "", nil, fmt.Errorf("%w: iv length %d", ErrInvalidEnvelope, len(iv))
	}
	if len(ct) == 0 || len(ct)%block.BlockSize() != 0 {
		return "", nil, fmt.Errorf("%w: ciphertext length %d", ErrInvalidEnvelope, len(ct))
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)

	plaintext, err = pkcs7Unpad(out, block.BlockSize())
	if err != nil {
		return "", nil, err
	}
	return version, plaintext, nil
}

// SymmetricEncrypt builds an envelope readable by SymmetricDecrypt using a
// random IV.
func SymmetricEncrypt(version string, plaintext, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	iv := make([]byte, block.BlockSize())
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return version + ":" + base64.StdEncoding.EncodeToString(out) + ":" + base64.StdEncoding.EncodeToString(iv), nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append([]byte{}, b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, ErrInvalidPadding
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrInvalidPadding
		}
	}
	return b[:len(b)-n], nil
}
