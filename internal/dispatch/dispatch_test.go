package dispatch

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"ingesta_drive/empresas_2025.csv", KindCarrier},
		{"ingesta_drive/EMPRESA_carga.CSV", KindCarrier},
		{"ingesta_drive/conductores_junio.csv", KindDriver},
		{"ingesta_drive/vehiculos.csv", KindVehicle},
		{"ingesta_drive/vehiculo_flota_sur.csv", KindVehicle},
		{"ingesta_drive/empresas.xlsx", KindUnknown},
		{"ingesta_drive/otros.csv", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Match(tt.name), "Match(%q)", tt.name)
	}
}

// failStore proves skipped objects never reach the object store.
type failStore struct{}

func (failStore) Open(context.Context, string, string) (io.ReadCloser, error) {
	return nil, errors.New("store must not be touched")
}

func TestHandleObjectSkipsOutsidePrefix(t *testing.T) {
	d := &Dispatcher{Store: failStore{}, IngestPrefix: "ingesta_drive/"}

	sum, err := d.HandleObject(context.Background(), "b", "otros/empresas.csv")
	require.NoError(t, err)
	assert.Zero(t, sum.Rows)
}

func TestHandleObjectSkipsUnknownFiles(t *testing.T) {
	d := &Dispatcher{Store: failStore{}}

	sum, err := d.HandleObject(context.Background(), "b", "ingesta_drive/notas.txt")
	require.NoError(t, err)
	assert.Zero(t, sum.Rows)
}
