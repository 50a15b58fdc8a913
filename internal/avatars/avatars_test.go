package avatars

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, publicURL string) *Client {
	t.Helper()
	c, err := New(context.Background(), Config{
		Endpoint:       "localhost:8333",
		Region:         "us-east-1",
		AccessKey:      "access",
		SecretKey:      "secret",
		Bucket:         "avatars",
		PublicURL:      publicURL,
		ForcePathStyle: true,
		TTL:            2 * time.Minute,
	})
	require.NoError(t, err)
	return c
}

func TestPresignUpload(t *testing.T) {
	c := newTestClient(t, "")
	user := uuid.New()

	up, err := c.PresignUpload(context.Background(), user, "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.ObjectKey, "avatars/"+user.String()+"/"))
	assert.True(t, strings.HasSuffix(up.ObjectKey, ".png"))
	assert.Equal(t, "https://localhost:8333/avatars/"+up.ObjectKey, up.PublicURL)

	u, err := url.Parse(up.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8333", u.Host)
	assert.Equal(t, "/avatars/"+up.ObjectKey, u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "120", u.Query().Get("X-Amz-Expires"))
}

func TestPresignUploadPublicURL(t *testing.T) {
	c := newTestClient(t, "https://cdn.example.com/")

	up, err := c.PresignUpload(context.Background(), uuid.New(), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+up.ObjectKey, up.PublicURL)
}

func TestPresignUploadRejectsType(t *testing.T) {
	c := newTestClient(t, "")

	_, err := c.PresignUpload(context.Background(), uuid.New(), "application/pdf")
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Endpoint: "localhost:8333"})
	require.Error(t, err)
}

func TestNewWithCustomCABundle(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	bundle := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(bundle, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	t.Setenv("AWS_CA_BUNDLE", bundle)

	c := newTestClient(t, "")
	_, err = c.PresignUpload(context.Background(), uuid.New(), "image/webp")
	require.NoError(t, err)
}
