// Package encryption provides the cipher used for secure configuration values.
//
// Secure environment variables, mail host passwords and secure plugin
// properties are stored in the configuration file encrypted. Encrypted values
// carry an "AES:" prefix followed by the base64 encoding of the packed
// AES-256-GCM payload:
//
//	cipher, err := encryption.NewAESCipher(dataKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	encrypted, err := cipher.Encrypt("s3cr3t")
//	// encrypted == "AES:R2x..."
//
//	plain, err := cipher.Decrypt(encrypted)
//
// Keys are 32 random bytes, usually generated with GenerateKey and
// distributed base64 encoded.
package encryption
