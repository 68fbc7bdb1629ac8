package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vehicleHeader = "registration_plate;carrier_bp;vehicle_type;vehicle_designation;vehicle_make;vehicle_model;" +
	"year_of_manufacture;gps;odometer_km;peso;" +
	"fecha_revision_tecnica;fecha_vencimiento_revision_tecnica;brakes_status;lights_status;" +
	"permiso_circulacion_data;soap_data;certificado_anotaciones_vigentes_data"

func vehicleProcessor() *Vehicle {
	v := NewVehicle()
	v.carriers["BP001"] = 10
	return v
}

func TestVehicleCarrierIsImmutableOnConflict(t *testing.T) {
	// The upsert must not list carrier_id in its conflict update set: the
	// carrier assigned at first registration survives re-imports that
	// arrive with a different business-partner code.
	update := upsertVehicle[strings.Index(upsertVehicle, "DO UPDATE SET"):]
	assert.NotContains(t, update, "carrier_id")
	assert.Contains(t, update, "vehicle_model_id = EXCLUDED.vehicle_model_id")
}

func TestVehicleRowExpandsInspectionAndDocuments(t *testing.T) {
	permit := `{"municipalidad":"Renca","fecha_emision":"01-03-2025","fecha_vencimiento":"31-03-2026"}`
	soap := `{"numero_poliza":884421,"institucion_aseguradora":"HDI","fecha_vencimiento_poliza":"31-03-2026"}`
	cert := `{"folio":"C-77","codigo_verificacion":"abc","fecha_emision":"02-01-2025",` +
		`"datos_propietario_actual":{"nombre":"Transportes Sur","rut":"12345678-5","fecha_adquisicion":"15-07-2018"}}`

	recs := records(t, vehicleHeader,
		"ABCD12;BP001;Camion;Carga;Volvo;FH;2019;true;120000;18,5;"+
			"10-01-2025;10-01-2026;Aprobada;Rechazada;"+
			permit+";"+soap+";"+cert,
	)

	db := &fakeDB{}
	sum, err := Run(context.Background(), db, &sliceSource{recs: recs}, vehicleProcessor())
	require.NoError(t, err)
	require.Equal(t, 1, sum.Imported, "rejections: %v", sum.Rejections)

	joined := strings.Join(db.Committed, "\n")
	assert.Contains(t, joined, "INSERT INTO vehiculo ")
	assert.Contains(t, joined, "INSERT INTO revision_tecnica")
	assert.Contains(t, joined, "INSERT INTO permiso_circulacion")
	assert.Contains(t, joined, "INSERT INTO soap ")
	assert.Contains(t, joined, "INSERT INTO certificado_anotaciones_vigentes")
	// Brand catalog resolve plus compound model create.
	assert.Contains(t, joined, "INSERT INTO vehiculo_marca")
	assert.Contains(t, joined, "INSERT INTO vehiculo_modelo")
}

func TestVehicleOptionalDocumentsSkipped(t *testing.T) {
	recs := records(t, vehicleHeader,
		"ABCD12;BP001;Camion;Carga;Volvo;FH;2019;true;120000;18,5;"+
			"10-01-2025;10-01-2026;Aprobada;Aprobada;;;",
	)

	db := &fakeDB{}
	sum, err := Run(context.Background(), db, &sliceSource{recs: recs}, vehicleProcessor())
	require.NoError(t, err)
	require.Equal(t, 1, sum.Imported)

	joined := strings.Join(db.Committed, "\n")
	assert.Contains(t, joined, "INSERT INTO revision_tecnica", "inspection snapshot is mandatory")
	assert.NotContains(t, joined, "permiso_circulacion")
	assert.NotContains(t, joined, "INSERT INTO soap")
	assert.NotContains(t, joined, "certificado_anotaciones_vigentes")
}

func TestVehicleMissingPlateIsStructural(t *testing.T) {
	recs := records(t, vehicleHeader,
		";BP001;Camion;Carga;Volvo;FH;2019;true;120000;18,5;10-01-2025;10-01-2026;Aprobada;Aprobada;;;")

	db := &fakeDB{}
	sum, err := Run(context.Background(), db, &sliceSource{recs: recs}, vehicleProcessor())
	require.NoError(t, err)
	require.Len(t, sum.Rejections, 1)
	assert.ErrorIs(t, sum.Rejections[0].Err, ErrStructural)
}

func TestVehicleUnknownCarrierIsReferential(t *testing.T) {
	recs := records(t, vehicleHeader,
		"ABCD12;BP404;Camion;Carga;Volvo;FH;2019;true;120000;18,5;10-01-2025;10-01-2026;Aprobada;Aprobada;;;")

	db := &fakeDB{}
	sum, err := Run(context.Background(), db, &sliceSource{recs: recs}, vehicleProcessor())
	require.NoError(t, err)
	require.Len(t, sum.Rejections, 1)
	assert.ErrorIs(t, sum.Rejections[0].Err, ErrReferential)
	assert.Equal(t, "ABCD12", sum.Rejections[0].Key)
}

func TestVehicleModelCacheHitSkipsCreate(t *testing.T) {
	v := vehicleProcessor()
	v.brands["Volvo"] = 3
	v.models["Volvo|FH"] = 7

	recs := records(t, vehicleHeader,
		"ABCD12;BP001;Camion;Carga;Volvo;FH;2019;true;120000;18,5;10-01-2025;10-01-2026;Aprobada;Aprobada;;;")

	db := &fakeDB{}
	_, err := Run(context.Background(), db, &sliceSource{recs: recs}, v)
	require.NoError(t, err)

	joined := strings.Join(db.Committed, "\n")
	assert.NotContains(t, joined, "INSERT INTO vehiculo_marca")
	assert.NotContains(t, joined, "INSERT INTO vehiculo_modelo")
}
