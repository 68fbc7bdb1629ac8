package importer

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/catalog"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/csv"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/normalize"
)

// Vehicle imports vehicle rows keyed by registration plate, with a
// technical-inspection snapshot per import and up to three optional
// embedded documents (circulation permit, insurance policy, ownership
// certificate). The vehicle model is a compound lazy-create: it needs the
// resolved brand id as a foreign key, so it cannot go through the generic
// catalog resolver.
type Vehicle struct {
	carriers     catalog.Cache // carrier_bp -> carrier_id, read-only
	types        catalog.Cache
	designations catalog.Cache
	brands       catalog.Cache
	models       catalog.Cache // "brand|model" -> vehicle_model_id
}

func NewVehicle() *Vehicle {
	return &Vehicle{
		carriers:     catalog.Cache{},
		types:        catalog.Cache{},
		designations: catalog.Cache{},
		brands:       catalog.Cache{},
		models:       catalog.Cache{},
	}
}

func (v *Vehicle) Entity() string { return "vehicle" }

func (v *Vehicle) Key(rec csv.Record) string { return rec.Get("registration_plate") }

func (v *Vehicle) Preload(ctx context.Context, db DBTX) error {
	if err := catalog.PreloadKeyed(ctx, db, v.carriers,
		"SELECT carrier_id, carrier_bp FROM empresa WHERE carrier_bp IS NOT NULL"); err != nil {
		return err
	}
	if err := catalog.Preload(ctx, db, v.types, "tipo_vehiculo", "vehicle_type", "vehicle_type_id"); err != nil {
		return err
	}
	if err := catalog.Preload(ctx, db, v.designations, "tipo_designacion", "vehicle_designation", "vehicle_designation_id"); err != nil {
		return err
	}
	if err := catalog.Preload(ctx, db, v.brands, "vehiculo_marca", "vehicle_brand", "vehicle_brand_id"); err != nil {
		return err
	}
	return catalog.PreloadKeyed(ctx, db, v.models, `
		SELECT m.vehicle_model_id, b.vehicle_brand || '|' || m.vehicle_model
		FROM vehiculo_modelo m
		JOIN vehiculo_marca b ON m.vehicle_brand_id = b.vehicle_brand_id`)
}

// circulationPermit mirrors permiso_circulacion_data.
type circulationPermit struct {
	Municipalidad    string `json:"municipalidad"`
	FechaEmision     string `json:"fecha_emision"`
	FechaVencimiento string `json:"fecha_vencimiento"`
}

// insurancePolicy mirrors soap_data (the mandatory accident policy).
type insurancePolicy struct {
	NumeroPoliza           *int64 `json:"numero_poliza"`
	InstitucionAseguradora string `json:"institucion_aseguradora"`
	FechaVencimientoPoliza string `json:"fecha_vencimiento_poliza"`
}

// ownershipCertificate mirrors certificado_anotaciones_vigentes_data.
type ownershipCertificate struct {
	Folio                  string `json:"folio"`
	CodigoVerificacion     string `json:"codigo_verificacion"`
	FechaEmision           string `json:"fecha_emision"`
	LimitacionesAlDominio  string `json:"limitaciones_al_dominio"`
	DatosPropietarioActual *struct {
		Nombre           string `json:"nombre"`
		Rut              string `json:"rut"`
		FechaAdquisicion string `json:"fecha_adquisicion"`
	} `json:"datos_propietario_actual"`
}

// carrier_id is deliberately absent from the conflict SET list: the carrier
// a vehicle was first registered under is immutable on re-import.
const upsertVehicle = `
INSERT INTO vehiculo (
  registration_plate, year_of_manufacture, gps, engine_number, chassis_number,
  vin, odometer_km, cortina, instalacion_cortina, parrilla,
  peso, largo, ancho, alto, mop_clasification,
  nominal_pallet, vehicle_type_id, vehicle_designation_id,
  vehicle_model_id, carrier_id
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
  $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
)
ON CONFLICT (registration_plate) DO UPDATE SET
  year_of_manufacture = EXCLUDED.year_of_manufacture,
  gps = EXCLUDED.gps,
  engine_number = EXCLUDED.engine_number,
  chassis_number = EXCLUDED.chassis_number,
  vin = EXCLUDED.vin,
  odometer_km = EXCLUDED.odometer_km,
  cortina = EXCLUDED.cortina,
  instalacion_cortina = EXCLUDED.instalacion_cortina,
  parrilla = EXCLUDED.parrilla,
  peso = EXCLUDED.peso,
  largo = EXCLUDED.largo,
  ancho = EXCLUDED.ancho,
  alto = EXCLUDED.alto,
  mop_clasification = EXCLUDED.mop_clasification,
  nominal_pallet = EXCLUDED.nominal_pallet,
  vehicle_type_id = EXCLUDED.vehicle_type_id,
  vehicle_designation_id = EXCLUDED.vehicle_designation_id,
  vehicle_model_id = EXCLUDED.vehicle_model_id
RETURNING vehicle_id`

func (v *Vehicle) ProcessRow(ctx context.Context, tx DBTX, rec csv.Record) error {
	plate := normalize.Spaces(rec.Get("registration_plate"))
	if plate == "" {
		return structuralf("registration_plate is empty")
	}

	carrierBP := normalize.Spaces(rec.Get("carrier_bp"))
	carrierID, ok := v.carriers[carrierBP]
	if !ok {
		return referentialf("carrier with carrier_bp %q not found for plate %q", carrierBP, plate)
	}

	typeID, err := v.resolveOptional(ctx, tx, v.types, rec.Get("vehicle_type"),
		"tipo_vehiculo", "vehicle_type", "vehicle_type_id")
	if err != nil {
		return err
	}
	designationID, err := v.resolveOptional(ctx, tx, v.designations, rec.Get("vehicle_designation"),
		"tipo_designacion", "vehicle_designation", "vehicle_designation_id")
	if err != nil {
		return err
	}

	modelID, err := v.resolveModel(ctx, tx, rec.Get("vehicle_make"), rec.Get("vehicle_model"))
	if err != nil {
		return err
	}

	var vehicleID int64
	err = tx.QueryRow(ctx, upsertVehicle,
		plate,
		normalize.ToPgInt4(rec.Get("year_of_manufacture")),
		normalize.Bool(rec.Get("gps")),
		normalize.ToPgText(rec.Get("engine_number")),
		normalize.ToPgText(rec.Get("chassis_number")),
		normalize.ToPgText(rec.Get("vin")),
		normalize.ToPgInt4(rec.Get("odometer_km")),
		normalize.ToPgText(rec.Get("cortina")),
		normalize.ToPgDate(rec.Get("instalacion_cortina")),
		normalize.Bool(rec.Get("parrilla")),
		normalize.ToPgFloat8(rec.Get("peso")),
		normalize.ToPgFloat8(rec.Get("largo")),
		normalize.ToPgFloat8(rec.Get("ancho")),
		normalize.ToPgFloat8(rec.Get("alto")),
		normalize.ToPgText(rec.Get("mop_clasification")),
		normalize.ToPgInt4(rec.Get("nominal_pallet")),
		typeID,
		designationID,
		modelID,
		carrierID,
	).Scan(&vehicleID)
	if err != nil {
		return constraintf("upserting vehicle %s: %v", plate, err)
	}

	if err := v.insertInspection(ctx, tx, vehicleID, rec); err != nil {
		return err
	}
	if err := v.insertCirculationPermit(ctx, tx, vehicleID, rec.Get("permiso_circulacion_data")); err != nil {
		return err
	}
	if err := v.insertInsurance(ctx, tx, vehicleID, rec.Get("soap_data")); err != nil {
		return err
	}
	return v.insertOwnershipCertificate(ctx, tx, vehicleID, rec.Get("certificado_anotaciones_vigentes_data"))
}

// resolveOptional resolves a catalog label into a nullable foreign key.
// An absent label yields NULL instead of creating an empty catalog entry.
func (v *Vehicle) resolveOptional(ctx context.Context, tx DBTX, cache catalog.Cache, raw, table, labelCol, idCol string) (pgtype.Int4, error) {
	label := normalize.Spaces(raw)
	if label == "" {
		return pgtype.Int4{}, nil
	}
	id, err := catalog.Resolve(ctx, tx, cache, label, table, labelCol, idCol)
	if err != nil {
		return pgtype.Int4{}, constraintf("resolving %s: %v", table, err)
	}
	return pgtype.Int4{Int32: id, Valid: true}, nil
}

// resolveModel lazily creates the (brand, model) compound entry. The brand
// goes through the generic catalog first because the model row needs its id.
func (v *Vehicle) resolveModel(ctx context.Context, tx DBTX, rawBrand, rawModel string) (pgtype.Int4, error) {
	brand := normalize.Spaces(rawBrand)
	model := normalize.Spaces(rawModel)
	if brand == "" || model == "" {
		return pgtype.Int4{}, nil
	}

	brandID, err := catalog.Resolve(ctx, tx, v.brands, brand, "vehiculo_marca", "vehicle_brand", "vehicle_brand_id")
	if err != nil {
		return pgtype.Int4{}, constraintf("resolving vehicle brand: %v", err)
	}

	key := brand + "|" + model
	if id, ok := v.models[key]; ok {
		return pgtype.Int4{Int32: id, Valid: true}, nil
	}

	var id int32
	err = tx.QueryRow(ctx, `
		INSERT INTO vehiculo_modelo (vehicle_brand_id, vehicle_model) VALUES ($1, $2)
		ON CONFLICT (vehicle_brand_id, vehicle_model) DO UPDATE SET vehicle_model = EXCLUDED.vehicle_model
		RETURNING vehicle_model_id`,
		brandID, model).Scan(&id)
	if err != nil {
		return pgtype.Int4{}, constraintf("creating vehicle model %q: %v", key, err)
	}

	v.models[key] = id
	return pgtype.Int4{Int32: id, Valid: true}, nil
}

// insertInspection records the mandatory technical-inspection snapshot:
// two dates plus twelve approval-status flags coerced from their tokens.
func (v *Vehicle) insertInspection(ctx context.Context, tx DBTX, vehicleID int64, rec csv.Record) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO revision_tecnica (
		  vehicle_id, fecha_revision_tecnica, fecha_vencimiento_revision_tecnica,
		  emissions_crt_status, identification_status, visual_status, lights_status,
		  alignment_status, brakes_status, clearances_status, emissions_status,
		  opacity_status, steering_angle_status, noise_status, suspension_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		vehicleID,
		normalize.ToPgDate(rec.Get("fecha_revision_tecnica")),
		normalize.ToPgDate(rec.Get("fecha_vencimiento_revision_tecnica")),
		normalize.ApprovedStatus(rec.Get("emissions_crt_status")),
		normalize.ApprovedStatus(rec.Get("identification_status")),
		normalize.ApprovedStatus(rec.Get("visual_status")),
		normalize.ApprovedStatus(rec.Get("lights_status")),
		normalize.ApprovedStatus(rec.Get("alignment_status")),
		normalize.ApprovedStatus(rec.Get("brakes_status")),
		normalize.ApprovedStatus(rec.Get("clearances_status")),
		normalize.ApprovedStatus(rec.Get("emissions_status")),
		normalize.ApprovedStatus(rec.Get("opacity_status")),
		normalize.ApprovedStatus(rec.Get("steering_angle_status")),
		normalize.ApprovedStatus(rec.Get("noise_status")),
		normalize.ApprovedStatus(rec.Get("suspension_status")),
	)
	if err != nil {
		return constraintf("inserting technical inspection: %v", err)
	}
	return nil
}

func (v *Vehicle) insertCirculationPermit(ctx context.Context, tx DBTX, vehicleID int64, raw string) error {
	if raw == "" {
		return nil
	}

	var data circulationPermit
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return structuralf("malformed permiso_circulacion_data: %v", err)
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO permiso_circulacion (vehicle_id, municipalidad, fecha_emision, fecha_vencimiento)
		VALUES ($1, $2, $3, $4)`,
		vehicleID,
		normalize.ToPgText(data.Municipalidad),
		normalize.ToPgDate(data.FechaEmision),
		normalize.ToPgDate(data.FechaVencimiento),
	)
	if err != nil {
		return constraintf("inserting circulation permit: %v", err)
	}
	return nil
}

func (v *Vehicle) insertInsurance(ctx context.Context, tx DBTX, vehicleID int64, raw string) error {
	if raw == "" {
		return nil
	}

	var data insurancePolicy
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return structuralf("malformed soap_data: %v", err)
	}

	policy := pgtype.Int8{}
	if data.NumeroPoliza != nil {
		policy = pgtype.Int8{Int64: *data.NumeroPoliza, Valid: true}
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO soap (vehicle_id, numero_poliza, institucion_aseguradora, fecha_vencimiento_poliza)
		VALUES ($1, $2, $3, $4)`,
		vehicleID,
		policy,
		normalize.ToPgText(data.InstitucionAseguradora),
		normalize.ToPgDate(data.FechaVencimientoPoliza),
	)
	if err != nil {
		return constraintf("inserting insurance policy: %v", err)
	}
	return nil
}

func (v *Vehicle) insertOwnershipCertificate(ctx context.Context, tx DBTX, vehicleID int64, raw string) error {
	if raw == "" {
		return nil
	}

	var data ownershipCertificate
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return structuralf("malformed certificado_anotaciones_vigentes_data: %v", err)
	}

	var ownerName, ownerRUT, acquired string
	if data.DatosPropietarioActual != nil {
		ownerName = data.DatosPropietarioActual.Nombre
		ownerRUT = data.DatosPropietarioActual.Rut
		acquired = data.DatosPropietarioActual.FechaAdquisicion
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO certificado_anotaciones_vigentes (
		  vehicle_id, folio, codigo_verificacion, fecha_emision,
		  limitaciones_al_dominio, nombre_propietario, rut_propietario, fecha_adquisicion
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		vehicleID,
		normalize.ToPgText(data.Folio),
		normalize.ToPgText(data.CodigoVerificacion),
		normalize.ToPgDate(data.FechaEmision),
		normalize.ToPgText(data.LimitacionesAlDominio),
		normalize.ToPgText(ownerName),
		normalize.ToPgText(ownerRUT),
		normalize.ToPgDate(acquired),
	)
	if err != nil {
		return constraintf("inserting ownership certificate: %v", err)
	}
	return nil
}
