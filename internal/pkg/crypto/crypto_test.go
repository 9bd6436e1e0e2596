package crypto

import (
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordDigest(t *testing.T) {
	tests := []struct {
		algorithm string
		password  string
		want      string
	}{
		{DigestSHA1, "toto1234!", "89cad29e3ebc1035b29b1478a8e70854f25fa2b2"},
		{"", "", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{DigestSHA3256, "", "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm+"/"+tt.password, func(t *testing.T) {
			digest, err := NewPasswordDigest(tt.algorithm)
			require.NoError(t, err)
			assert.Equal(t, tt.want, digest(tt.password))
			assert.Equal(t, digest(tt.password), digest(tt.password))
		})
	}

	_, err := NewPasswordDigest("md5")
	assert.Error(t, err)
}

func TestHashReader(t *testing.T) {
	r := NewHashReader(strings.NewReader("hi"))
	data, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Equal(t, "hi", string(data))
	assert.Equal(t, int64(2), r.Size())
	assert.Equal(t, ComputeSHA256([]byte("hi")), r.SHA256())
	assert.True(t, ValidateSHA256(r.SHA256()))
	assert.False(t, ValidateSHA256("xyz"))
	assert.False(t, ValidateSHA256(strings.Repeat("A", 64)))
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	require.NoError(t, err)
	b, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())
}
