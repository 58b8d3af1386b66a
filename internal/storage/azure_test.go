package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "remitcli/internal/errors"
)

// azuriteConnectionString uses the published storage emulator account.
const azuriteConnectionString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;" +
	"AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="

func TestNewAzure(t *testing.T) {
	sink, err := NewAzure(azuriteConnectionString, "reports", nil)

	require.NoError(t, err)
	assert.Equal(t, "azure", sink.Backend())
}

func TestNewAzure_Errors(t *testing.T) {
	_, err := NewAzure(azuriteConnectionString, "", nil)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))

	_, err = NewAzure("not a connection string", "reports", nil)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
}

func TestAzure_RejectsBadNamesBeforeNetwork(t *testing.T) {
	sink, err := NewAzure(azuriteConnectionString, "reports", nil)
	require.NoError(t, err)

	err = sink.Put(context.Background(), "../x.xlsx", strings.NewReader("x"))
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))

	_, err = sink.Get(context.Background(), "")
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
}
