package browser

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Defaults(t *testing.T) {
	assert.Equal(t, DefaultTimeout, Options{}.timeout())
	assert.Equal(t, time.Second, Options{Timeout: time.Second}.timeout())
	assert.NotNil(t, Options{}.logger())
}

func TestPrintToPDF_Integration(t *testing.T) {
	remote := os.Getenv("CHROME_WS_URL")
	if remote == "" && os.Getenv("CHROME_PATH") == "" {
		t.Skip("Skipping integration test: neither CHROME_WS_URL nor CHROME_PATH set")
	}

	pdf, err := PrintToPDF(t.Context(), Options{RemoteURL: remote}, "<html><body><h1>Hi</h1></body></html>", Letter)
	require.NoError(t, err)
	assert.True(t, len(pdf) > 4 && string(pdf[:4]) == "%PDF")
}
