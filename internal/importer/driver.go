package importer

import (
	"context"
	"encoding/json"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/catalog"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/csv"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/normalize"
)

// Driver imports driver rows together with their embedded documents: the
// career record certificate (restrictions + infraction history) and the
// two-part license scan (front/back) with its license-class associations.
// Child rows are insert-only; re-importing a driver appends a fresh
// document snapshot rather than replacing prior history.
type Driver struct {
	carriers catalog.Cache // carrier_bp -> carrier_id, read-only
	roles    catalog.Cache
	classes  catalog.Cache
}

func NewDriver() *Driver {
	return &Driver{
		carriers: catalog.Cache{},
		roles:    catalog.Cache{},
		classes:  catalog.Cache{},
	}
}

func (d *Driver) Entity() string { return "driver" }

func (d *Driver) Key(rec csv.Record) string { return rec.Get("national_id") }

func (d *Driver) Preload(ctx context.Context, db DBTX) error {
	if err := catalog.PreloadKeyed(ctx, db, d.carriers,
		"SELECT carrier_id, carrier_bp FROM empresa WHERE carrier_bp IS NOT NULL"); err != nil {
		return err
	}
	if err := catalog.Preload(ctx, db, d.roles, "conductor_rol", "conductor_rol", "conductor_rol_id"); err != nil {
		return err
	}
	return catalog.Preload(ctx, db, d.classes, "clase_licencia", "clase_licencia", "clase_licencia_id")
}

// careerRecord mirrors the hoja_de_vida_data JSON column.
type careerRecord struct {
	Persona *struct {
		Comuna                string `json:"comuna"`
		Domicilio             string `json:"domicilio"`
		RestriccionesLicencia []struct {
			FechaAnotacion            string `json:"fechaAnotacion"`
			BloqueRestriccionLicencia string `json:"bloqueRestriccionLicencia"`
		} `json:"restriccionesLicencia"`
		DuracionesRestringidas []struct {
			FechaAnotacion            string `json:"fechaAnotacion"`
			BloqueDuracionRestringida string `json:"bloqueDuracionRestringida"`
		} `json:"duracionesRestringidas"`
		InfraccionesRegistradas []struct {
			ProcesoNumero string `json:"procesoNumero"`
			Tribunal      string `json:"tribunal"`
			FechaDenuncia string `json:"fechaDenuncia"`
			Infraccion    string `json:"infraccion"`
			Resolucion    string `json:"resolucion"`
		} `json:"infraccionesRegistradas"`
	} `json:"persona"`
	Certificado *struct {
		Folio              string `json:"folio"`
		FechaEmision       string `json:"fechaEmision"`
		CodigoVerificacion string `json:"codigoVerificacion"`
	} `json:"certificado"`
}

// licenseFront mirrors licencia_frontal_data.
type licenseFront struct {
	Clase              []string `json:"clase"`
	Municipalidad      string   `json:"municipalidad"`
	FechaDeControl     string   `json:"fecha_de_control"`
	FechaUltimoControl string   `json:"fecha_ultimo_control"`
}

// licenseBack mirrors licencia_reverso_data.
type licenseBack struct {
	Codigo string `json:"codigo"`
}

const upsertDriver = `
INSERT INTO conductor (
  conductor_rut, carrier_id, conductor_rol_id, conductor_nombre,
  conductor_fecha_nacimiento, conductor_telefono, conductor_email
) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (conductor_rut) DO UPDATE SET
  carrier_id = EXCLUDED.carrier_id,
  conductor_rol_id = EXCLUDED.conductor_rol_id,
  conductor_nombre = EXCLUDED.conductor_nombre,
  conductor_fecha_nacimiento = EXCLUDED.conductor_fecha_nacimiento,
  conductor_telefono = EXCLUDED.conductor_telefono,
  conductor_email = EXCLUDED.conductor_email
RETURNING conductor_id`

func (d *Driver) ProcessRow(ctx context.Context, tx DBTX, rec csv.Record) error {
	rut, ok := normalize.RUT(rec.Get("national_id"), false)
	if !ok {
		return structuralf("invalid national_id %q", rec.Get("national_id"))
	}

	carrierBP := normalize.Spaces(rec.Get("carrier_bp"))
	carrierID, ok := d.carriers[carrierBP]
	if !ok {
		return referentialf("carrier with carrier_bp %q not found", carrierBP)
	}

	role := normalize.Spaces(rec.Get("driver_role"))
	if role == "" {
		return structuralf("driver_role is empty")
	}
	roleID, err := catalog.Resolve(ctx, tx, d.roles, role, "conductor_rol", "conductor_rol", "conductor_rol_id")
	if err != nil {
		return constraintf("resolving driver role: %v", err)
	}

	var driverID int64
	err = tx.QueryRow(ctx, upsertDriver,
		rut,
		carrierID,
		roleID,
		normalize.ToPgText(rec.Get("driver_name")),
		normalize.ToPgDate(rec.Get("birth_date")),
		normalize.ToPgText(rec.Get("phone_number")),
		normalize.ToPgText(rec.Get("email")),
	).Scan(&driverID)
	if err != nil {
		return constraintf("upserting driver %s: %v", rut, err)
	}

	if err := d.insertCareerRecord(ctx, tx, driverID, rec.Get("hoja_de_vida_data")); err != nil {
		return err
	}

	return d.insertLicense(ctx, tx, driverID,
		rec.Get("licencia_frontal_data"), rec.Get("licencia_reverso_data"))
}

// insertCareerRecord expands the career-record document into one hoja_vida
// row plus its restriction and infraction children. Absent document or
// absent certificate section is not an error.
func (d *Driver) insertCareerRecord(ctx context.Context, tx DBTX, driverID int64, raw string) error {
	if raw == "" {
		return nil
	}

	var data careerRecord
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return structuralf("malformed hoja_de_vida_data: %v", err)
	}
	if data.Certificado == nil {
		return nil
	}

	var comuna, domicilio string
	if data.Persona != nil {
		comuna = data.Persona.Comuna
		domicilio = data.Persona.Domicilio
	}

	var careerID int64
	err := tx.QueryRow(ctx, `
		INSERT INTO hoja_vida (conductor_id, folio, codigo_verificacion, fecha_emision, comuna, domicilio)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING hoja_vida_id`,
		driverID,
		normalize.ToPgText(data.Certificado.Folio),
		normalize.ToPgText(data.Certificado.CodigoVerificacion),
		normalize.ToPgDate(data.Certificado.FechaEmision),
		normalize.ToPgText(comuna),
		normalize.ToPgText(domicilio),
	).Scan(&careerID)
	if err != nil {
		return constraintf("inserting career record: %v", err)
	}

	if data.Persona == nil {
		return nil
	}

	const insertRestriction = `
		INSERT INTO hoja_vida_restriccion (hoja_vida_id, fecha_anotacion, restriccion)
		VALUES ($1, $2, $3)`

	for _, item := range data.Persona.RestriccionesLicencia {
		_, err := tx.Exec(ctx, insertRestriction,
			careerID, normalize.ToPgDate(item.FechaAnotacion), normalize.ToPgText(item.BloqueRestriccionLicencia))
		if err != nil {
			return constraintf("inserting license restriction: %v", err)
		}
	}
	for _, item := range data.Persona.DuracionesRestringidas {
		_, err := tx.Exec(ctx, insertRestriction,
			careerID, normalize.ToPgDate(item.FechaAnotacion), normalize.ToPgText(item.BloqueDuracionRestringida))
		if err != nil {
			return constraintf("inserting restricted duration: %v", err)
		}
	}

	for _, item := range data.Persona.InfraccionesRegistradas {
		_, err := tx.Exec(ctx, `
			INSERT INTO hoja_vida_infraccion (hoja_vida_id, proceso, tribunal, fecha_denuncia, infraccion, resolucion)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			careerID,
			normalize.ToPgText(item.ProcesoNumero),
			normalize.ToPgText(item.Tribunal),
			normalize.ToPgDate(item.FechaDenuncia),
			normalize.ToPgText(item.Infraccion),
			normalize.ToPgText(item.Resolucion),
		)
		if err != nil {
			return constraintf("inserting infraction: %v", err)
		}
	}

	return nil
}

// insertLicense expands the two-part license document into one licencia row
// plus its class associations. Both parts must be present for the license
// to exist; a lone front or back is ignored, matching the source files
// which always carry the pair.
func (d *Driver) insertLicense(ctx context.Context, tx DBTX, driverID int64, frontRaw, backRaw string) error {
	if frontRaw == "" || backRaw == "" {
		return nil
	}

	var front licenseFront
	if err := json.Unmarshal([]byte(frontRaw), &front); err != nil {
		return structuralf("malformed licencia_frontal_data: %v", err)
	}
	var back licenseBack
	if err := json.Unmarshal([]byte(backRaw), &back); err != nil {
		return structuralf("malformed licencia_reverso_data: %v", err)
	}

	var licenseID int64
	err := tx.QueryRow(ctx, `
		INSERT INTO licencia (conductor_id, municipalidad, fecha_de_control, fecha_ultimo_control, codigo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING licencia_id`,
		driverID,
		normalize.ToPgText(front.Municipalidad),
		normalize.ToPgDate(front.FechaDeControl),
		normalize.ToPgDate(front.FechaUltimoControl),
		normalize.ToPgText(back.Codigo),
	).Scan(&licenseID)
	if err != nil {
		return constraintf("inserting license: %v", err)
	}

	for _, class := range front.Clase {
		classID, err := catalog.Resolve(ctx, tx, d.classes, class, "clase_licencia", "clase_licencia", "clase_licencia_id")
		if err != nil {
			return constraintf("resolving license class %q: %v", class, err)
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO licencia_clase (licencia_id, clase_licencia_id) VALUES ($1, $2)",
			licenseID, classID)
		if err != nil {
			return constraintf("associating license class %q: %v", class, err)
		}
	}

	return nil
}
