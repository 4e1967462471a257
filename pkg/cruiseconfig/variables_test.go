package cruiseconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
)

func testCipher(t *testing.T) encryption.Cipher {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := encryption.NewAESCipher(key)
	require.NoError(t, err)
	return c
}

func TestEnvironmentVariableValidate(t *testing.T) {
	tests := []struct {
		name     string
		variable *EnvironmentVariableConfig
		field    string
		expected string
	}{
		{
			name:     "value and encrypted value",
			variable: &EnvironmentVariableConfig{Name: "A", Value: "x", EncryptedValue: "AES:abc", Secure: true},
			field:    "value",
			expected: "You may only specify `value` or `encrypted_value`, not both!",
		},
		{
			name:     "encrypted value without secure",
			variable: &EnvironmentVariableConfig{Name: "A", EncryptedValue: "AES:abc"},
			field:    "encrypted_value",
			expected: "You may specify encrypted value only when option 'secure' is true.",
		},
		{
			name:     "invalid cipher text",
			variable: &EnvironmentVariableConfig{Name: "A", EncryptedValue: "garbage", Secure: true},
			field:    "encrypted_value",
			expected: "Encrypted value for variable named 'A' is invalid. This usually happens when the cipher text is modified to have an invalid value.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.variable.Validate(nil)
			assert.Equal(t, tt.expected, tt.variable.Errors().On(tt.field))
		})
	}
}

func TestEnvironmentVariableEncryption(t *testing.T) {
	c := testCipher(t)
	v := NewSecureEnvironmentVariable("TOKEN", "s3cret")

	assert.Equal(t, "****", v.DisplayValue())
	require.NoError(t, v.EncryptSecureProperties(c))
	assert.Empty(t, v.Value)
	assert.True(t, encryption.IsEncrypted(v.EncryptedValue))

	encrypted := v.EncryptedValue
	require.NoError(t, v.EncryptSecureProperties(c))
	assert.Equal(t, encrypted, v.EncryptedValue)

	plain, err := v.ResolvedValue(c)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)

	_, err = v.ResolvedValue(nil)
	assert.ErrorIs(t, err, encryption.ErrNoCipherDefined)

	v.Validate(nil)
	assert.True(t, v.Errors().IsEmpty())
}

func TestPlainEnvironmentVariable(t *testing.T) {
	v := NewEnvironmentVariable("PATH", "/bin")

	require.NoError(t, v.EncryptSecureProperties(nil))
	assert.True(t, v.IsPlain())
	assert.Equal(t, "/bin", v.DisplayValue())

	value, err := v.ResolvedValue(nil)
	require.NoError(t, err)
	assert.Equal(t, "/bin", value)

	secure := NewSecureEnvironmentVariable("KEY", "x")
	assert.ErrorIs(t, secure.EncryptSecureProperties(nil), encryption.ErrNoCipherDefined)
}

func TestEnvironmentVariablesQueries(t *testing.T) {
	vars := EnvironmentVariablesConfig{NewEnvironmentVariable("A", "1"), NewEnvironmentVariable("B", "2")}

	assert.Equal(t, []string{"A", "B"}, vars.Names())
	assert.True(t, vars.HasVariable("B"))
	assert.False(t, vars.HasVariable("b"))
	assert.Equal(t, "1", vars.Get("A").Value)
}

func TestEnvironmentVariablesSetConfigAttributes(t *testing.T) {
	vars := EnvironmentVariablesConfig{NewEnvironmentVariable("OLD", "x")}

	vars.SetConfigAttributes([]map[string]any{
		{"name": "A", "value": "1"},
		{"name": "B", "value": "2", "secure": true},
		{"name": "", "value": "3"},
	})

	assert.Equal(t, []string{"A", "B"}, vars.Names())
	assert.False(t, vars[0].Secure)
	assert.True(t, vars[1].Secure)

	vars.SetConfigAttributes("not a list")
	assert.Len(t, vars, 2)
}
