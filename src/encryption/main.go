// Package encryption encrypts media payloads before upload. The output is
// OpenSSL compatible (Salted__ header, EVP key derivation, AES-256-CBC),
// so clips can be decrypted with plain openssl or crypto-js on the
// receiving side.
package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"errors"
	"hash"
)

func AesEncrypt(content []byte, password string) ([]byte, error) {
	salt := make([]byte, 8)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	key, iv, err := DefaultEvpKDF([]byte(password), salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	mode := cipher.NewCBCEncrypter(block, iv)
	cipherBytes := PKCS5Padding(content, aes.BlockSize)
	mode.CryptBlocks(cipherBytes, cipherBytes)

	cipherText := make([]byte, 16+len(cipherBytes))
	copy(cipherText[:8], []byte("Salted__"))
	copy(cipherText[8:16], salt)
	copy(cipherText[16:], cipherBytes)

	return cipherText, nil
}

func AesDecrypt(cipherText []byte, password string) ([]byte, error) {
	if len(cipherText) < 16 || string(cipherText[:8]) != "Salted__" {
		return nil, errors.New("not an openssl salted payload")
	}

	salt := cipherText[8:16]
	cipherBytes := cipherText[16:]
	if len(cipherBytes) == 0 || len(cipherBytes)%aes.BlockSize != 0 {
		return nil, errors.New("truncated aes payload")
	}

	key, iv, err := DefaultEvpKDF([]byte(password), salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(cipherBytes, cipherBytes)

	return PKCS5UnPadding(cipherBytes)
}

// EvpKDF mirrors the key derivation of OpenSSL's EVP_BytesToKey and of
// crypto-js, which is the reason for the md5 default.
func EvpKDF(password []byte, salt []byte, keySize int, iterations int, hashAlgorithm string) ([]byte, error) {
	var block []byte
	var hasher hash.Hash
	derivedKeyBytes := make([]byte, 0)
	switch hashAlgorithm {
	case "md5":
		hasher = md5.New()
	default:
		return []byte{}, errors.New("unsupported hash algorithm")
	}
	for len(derivedKeyBytes) < keySize*4 {
		if len(block) > 0 {
			hasher.Write(block)
		}
		hasher.Write(password)
		hasher.Write(salt)
		block = hasher.Sum([]byte{})
		hasher.Reset()

		for i := 1; i < iterations; i++ {
			hasher.Write(block)
			block = hasher.Sum([]byte{})
			hasher.Reset()
		}
		derivedKeyBytes = append(derivedKeyBytes, block...)
	}
	return derivedKeyBytes[:keySize*4], nil
}

func DefaultEvpKDF(password []byte, salt []byte) (key []byte, iv []byte, err error) {
	keySize := 256 / 32
	ivSize := 128 / 32
	derivedKeyBytes, err := EvpKDF(password, salt, keySize+ivSize, 1, "md5")
	if err != nil {
		return []byte{}, []byte{}, err
	}
	return derivedKeyBytes[:keySize*4], derivedKeyBytes[keySize*4:], nil
}

func PKCS5UnPadding(src []byte) ([]byte, error) {
	length := len(src)
	unpadding := int(src[length-1])
	if unpadding == 0 || unpadding > aes.BlockSize || unpadding > length {
		return nil, errors.New("invalid padding")
	}
	return src[:(length - unpadding)], nil
}

func PKCS5Padding(src []byte, blockSize int) []byte {
	padding := blockSize - len(src)%blockSize
	padtext := bytes.Repeat([]byte{byte(padding)}, padding)
	return append(src, padtext...)
}
