package resolve

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLogoURL_Drive(t *testing.T) {
	got := NormalizeLogoURL("https://drive.google.com/file/d/ABC123/view")
	assert.Equal(t, "https://drive.google.com/uc?export=download&id=ABC123", got)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", u.Query().Get("id"))

	assert.Equal(t,
		"https://drive.google.com/uc?export=download&id=XYZ",
		NormalizeLogoURL("https://drive.google.com/open?id=XYZ"))
	assert.Equal(t,
		"https://drive.google.com/uc?export=download&id=Q-9_z",
		NormalizeLogoURL("https://drive.google.com/file/d/Q-9_z/view?usp=sharing"))
}

func TestNormalizeLogoURL_Dropbox(t *testing.T) {
	got := NormalizeLogoURL("https://www.dropbox.com/s/abc/logo.png?dl=0")
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "1", u.Query().Get("dl"))
	assert.Equal(t, "/s/abc/logo.png", u.Path)

	got = NormalizeLogoURL("https://www.dropbox.com/scl/fi/xyz/logo.png?rlkey=k")
	u, err = url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "1", u.Query().Get("dl"))
	assert.Equal(t, "k", u.Query().Get("rlkey"))
}

func TestNormalizeLogoURL_Passthrough(t *testing.T) {
	for _, in := range []string{
		"https://cdn.acme.com/logo.png",
		"https://dl.dropboxusercontent.com/s/abc/logo.png",
		"https://drive.google.com/drive/folders",
		"not a url",
		"",
	} {
		assert.Equal(t, in, NormalizeLogoURL(in))
	}
}
